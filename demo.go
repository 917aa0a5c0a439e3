package main

import (
	"context"
	"log"
	"path/filepath"
	"sync"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/pistage/engine"
	"github.com/milk9111/pistage/prefabs"
)

// Demo wraps the engine with a pause menu and scene hot reload.
type Demo struct {
	engine    *engine.Engine
	sceneFile string

	ui *ebitenui.UI

	mu     sync.Mutex
	paused bool
}

func NewDemo(cfg engine.Config, sceneFile string) (*Demo, error) {
	built, err := prefabs.LoadScene(sceneFile)
	if err != nil {
		return nil, err
	}
	e, err := engine.New(cfg, built.Scene)
	if err != nil {
		return nil, err
	}
	d := &Demo{engine: e, sceneFile: sceneFile}
	d.ui = NewPauseUI(d)
	return d, nil
}

func (d *Demo) Paused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

func (d *Demo) SetPaused(p bool) {
	d.mu.Lock()
	d.paused = p
	d.mu.Unlock()
}

// StepOnce advances the paused scene by a single tick.
func (d *Demo) StepOnce() {
	dt := 1 / float64(d.engine.Config().TPS)
	if err := d.engine.Tick(context.Background(), dt); err != nil {
		log.Printf("Demo: step: %v", err)
	}
}

func (d *Demo) TogglePhysics() {
	s := d.engine.Scene()
	s.SetPhysicsPaused(!s.MainLayer().PhysicsPaused())
}

// Reload rebuilds the scene file and swaps it in at the end of the next
// tick. A broken file leaves the running scene untouched.
func (d *Demo) Reload() {
	built, err := prefabs.LoadScene(d.sceneFile)
	if err != nil {
		log.Printf("Demo: reload %s: %v", d.sceneFile, err)
		return
	}
	if err := d.engine.Transition(built.Scene); err != nil {
		log.Printf("Demo: reload %s: %v", d.sceneFile, err)
	}
}

// Watch reloads the scene whenever its scene file or any script under dirs
// changes, until ctx is done.
func (d *Demo) Watch(ctx context.Context, dirs ...string) error {
	w, err := prefabs.NewWatcher(dirs...)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = w.Close()
	}()
	go func() {
		for {
			select {
			case batch, ok := <-w.Changes:
				if !ok {
					return
				}
				if d.affects(batch) {
					d.Reload()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("Demo: watch error: %v", err)
			}
		}
	}()
	return nil
}

// affects reports whether a batch touches the running scene. Other scene
// files in the watched directories are ignored.
func (d *Demo) affects(batch []prefabs.Change) bool {
	for _, c := range batch {
		if c.Kind == prefabs.SceneFile && filepath.Base(c.Path) != filepath.Base(d.sceneFile) {
			continue
		}
		log.Printf("Demo: %s %s changed, reloading", c.Kind, filepath.Base(c.Path))
		return true
	}
	return false
}

func (d *Demo) Update() error {
	if d.engine.Stopped() {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		d.SetPaused(!d.Paused())
	}
	if d.Paused() {
		d.ui.Update()
		return nil
	}
	return d.engine.Update()
}

func (d *Demo) Draw(screen *ebiten.Image) {
	d.engine.Draw(screen)
	if d.Paused() {
		d.ui.Draw(screen)
	}
}

func (d *Demo) Layout(outsideWidth, outsideHeight int) (int, int) {
	return d.engine.Layout(outsideWidth, outsideHeight)
}
