package engine

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/pistage/common"
	"github.com/milk9111/pistage/stage"
)

// Config sets up the window and the simulation rate.
type Config struct {
	Width  int
	Height int
	Title  string
	// Debug draws body outlines, joints and counters over the scene.
	Debug bool
	// TPS is the number of fixed updates per second.
	TPS int
}

func DefaultConfig() Config {
	return Config{
		Width:  common.BaseWidth,
		Height: common.BaseHeight,
		Title:  "pistage",
		TPS:    common.TicksPerSecond,
	}
}

// Engine drives one scene at a time, either through ebiten or headless.
type Engine struct {
	cfg   Config
	input *Input

	mu     sync.Mutex
	scene  *stage.Scene
	next   *stage.Scene
	frames []stage.FrameUpdateListener

	debug   atomic.Bool
	started atomic.Bool
	stopped atomic.Bool
	ticks   atomic.Uint64
}

// New returns an engine showing scene.
func New(cfg Config, scene *stage.Scene) (*Engine, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: window size %dx%d", stage.ErrIllegalArgument, cfg.Width, cfg.Height)
	}
	if scene == nil {
		return nil, fmt.Errorf("%w: nil scene", stage.ErrIllegalArgument)
	}
	if cfg.TPS <= 0 {
		cfg.TPS = common.TicksPerSecond
	}
	e := &Engine{cfg: cfg, input: NewInput(), scene: scene}
	e.debug.Store(cfg.Debug)
	return e, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Scene returns the scene currently being run.
func (e *Engine) Scene() *stage.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene
}

// Transition replaces the running scene at the end of the current tick.
// The previous scene is destroyed.
func (e *Engine) Transition(next *stage.Scene) error {
	if next == nil {
		return fmt.Errorf("%w: nil scene", stage.ErrIllegalArgument)
	}
	e.mu.Lock()
	e.next = next
	e.mu.Unlock()
	return nil
}

// OnFrameUpdate registers fn to run once per tick after the scene updated.
func (e *Engine) OnFrameUpdate(fn stage.FrameUpdateListener) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.frames = append(e.frames, fn)
	e.mu.Unlock()
}

func (e *Engine) Debug() bool {
	return e.debug.Load()
}

func (e *Engine) SetDebug(on bool) {
	e.debug.Store(on)
}

// Ticks returns the number of completed ticks.
func (e *Engine) Ticks() uint64 {
	return e.ticks.Load()
}

// Stop ends Run or RunHeadless after the current tick.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

func (e *Engine) Stopped() bool {
	return e.stopped.Load()
}

// Tick runs one frame: queued input, the physics step, frame listeners
// and finally a pending scene transition. Step errors are returned after
// the rest of the frame has run.
func (e *Engine) Tick(ctx context.Context, dt float64) error {
	s := e.Scene()
	w, h := float64(e.cfg.Width), float64(e.cfg.Height)

	s.DispatchInput(w, h)
	err := s.Step(ctx, dt)
	s.Update(dt)

	e.mu.Lock()
	frames := make([]stage.FrameUpdateListener, len(e.frames))
	copy(frames, e.frames)
	e.mu.Unlock()
	for _, fn := range frames {
		fn(dt)
	}

	e.applyTransition()
	e.ticks.Add(1)
	return err
}

func (e *Engine) applyTransition() {
	e.mu.Lock()
	next := e.next
	prev := e.scene
	e.next = nil
	if next != nil {
		e.scene = next
	}
	e.mu.Unlock()

	if next == nil || next == prev {
		return
	}
	log.Printf("Engine: transition scene %q -> %q", prev.Name(), next.Name())
	prev.Destroy()
}

func (e *Engine) begin() error {
	if !e.started.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: engine already started", stage.ErrIllegalState)
	}
	return nil
}

// Run opens the window and blocks until it is closed or Stop is called.
func (e *Engine) Run() error {
	return e.RunGame(e)
}

// RunGame is Run with g as the ebiten game. g is expected to delegate to
// e's Update, Draw and Layout, adding its own overlays.
func (e *Engine) RunGame(g ebiten.Game) error {
	if err := e.begin(); err != nil {
		return err
	}
	ebiten.SetWindowSize(e.cfg.Width, e.cfg.Height)
	ebiten.SetWindowTitle(e.cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(e.cfg.TPS)
	log.Printf("Engine: run %dx%d tps=%d", e.cfg.Width, e.cfg.Height, e.cfg.TPS)
	return ebiten.RunGame(g)
}

// RunHeadless ticks at the configured rate without a window or input,
// back to back, until frames ticks ran (frames <= 0 means unbounded), ctx
// is done or Stop is called.
func (e *Engine) RunHeadless(ctx context.Context, frames int) error {
	if err := e.begin(); err != nil {
		return err
	}
	dt := 1 / float64(e.cfg.TPS)
	for n := 0; frames <= 0 || n < frames; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.stopped.Load() {
			return nil
		}
		if err := e.Tick(ctx, dt); err != nil {
			log.Printf("Engine: tick %d: %v", e.Ticks(), err)
		}
	}
	return nil
}

// Update implements ebiten.Game.
func (e *Engine) Update() error {
	if e.stopped.Load() {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		e.SetDebug(!e.Debug())
	}
	e.input.Poll(e.Scene())

	tps := ebiten.TPS()
	if tps <= 0 {
		tps = e.cfg.TPS
	}
	dt := 1 / float64(tps)
	if dt > common.MaxFrameDelta {
		dt = common.MaxFrameDelta
	}
	if err := e.Tick(context.Background(), dt); err != nil {
		log.Printf("Engine: tick %d: %v", e.Ticks(), err)
	}
	return nil
}

// Draw implements ebiten.Game.
func (e *Engine) Draw(screen *ebiten.Image) {
	s := e.Scene()
	if bg := s.Background(); bg != nil {
		screen.Fill(bg)
	} else {
		screen.Fill(color.Black)
	}

	w, h := float64(e.cfg.Width), float64(e.cfg.Height)
	c := &stage.Canvas{Target: screen}
	s.Render(c, w, h)
	if e.Debug() {
		s.RenderDebug(c, w, h)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Ticks: %d    FPS: %.2f", e.Ticks(), ebiten.ActualFPS()), 4, e.cfg.Height-16)
	}
}

// Layout implements ebiten.Game with a fixed logical resolution.
func (e *Engine) Layout(outsideWidth, outsideHeight int) (int, int) {
	return e.cfg.Width, e.cfg.Height
}
