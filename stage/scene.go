package stage

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"runtime"
	"sort"
	"sync"

	"github.com/milk9111/pistage/geom"
	"golang.org/x/sync/errgroup"
)

// Scene is an ordered stack of layers viewed through one camera. It owns a
// main layer at order 0 that Add and Remove forward to.
type Scene struct {
	inputListeners

	name   string
	camera *Camera
	main   *Layer
	input  EventQueue

	mu         sync.RWMutex
	layers     []*Layer
	background color.Color
}

func NewScene(name string) *Scene {
	main, _ := NewLayer(LayerConfig{Name: "main", Parallax: DefaultParallax(), TimeDistortion: 1})
	s := &Scene{
		name:       name,
		camera:     NewCamera(),
		main:       main,
		background: color.Black,
	}
	_ = s.AddLayer(main)
	return s
}

func (s *Scene) Name() string {
	return s.name
}

func (s *Scene) Camera() *Camera {
	return s.camera
}

func (s *Scene) MainLayer() *Layer {
	return s.main
}

func (s *Scene) Background() color.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

func (s *Scene) SetBackground(c color.Color) {
	s.mu.Lock()
	s.background = c
	s.mu.Unlock()
}

// AddLayer inserts l by its order. A layer can belong to one scene only.
func (s *Scene) AddLayer(l *Layer) error {
	if l == nil {
		return fmt.Errorf("%w: nil layer", ErrIllegalArgument)
	}
	l.propMu.Lock()
	if l.scene != nil {
		l.propMu.Unlock()
		return fmt.Errorf("%w: layer %q already belongs to scene %q", ErrIllegalState, l.name, l.scene.name)
	}
	l.scene = s
	l.propMu.Unlock()

	s.mu.Lock()
	s.layers = append(s.layers, l)
	s.mu.Unlock()
	s.sortLayers()
	return nil
}

// RemoveLayer detaches l from the scene without destroying it.
func (s *Scene) RemoveLayer(l *Layer) {
	if l == nil {
		return
	}
	s.mu.Lock()
	for i, other := range s.layers {
		if other == l {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	l.propMu.Lock()
	if l.scene == s {
		l.scene = nil
	}
	l.propMu.Unlock()
}

// Layers returns the layers in ascending order.
func (s *Scene) Layers() []*Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

func (s *Scene) sortLayers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	sort.SliceStable(s.layers, func(i, j int) bool {
		return s.layers[i].Order() < s.layers[j].Order()
	})
}

// Add schedules actors for the main layer.
func (s *Scene) Add(actors ...*Actor) {
	s.main.Add(actors...)
}

// Remove schedules actors for removal from the main layer.
func (s *Scene) Remove(actors ...*Actor) {
	s.main.Remove(actors...)
}

func (s *Scene) Gravity() geom.Vector {
	return s.main.Gravity()
}

// SetGravity sets the gravity of the main layer.
func (s *Scene) SetGravity(g geom.Vector) {
	s.main.SetGravity(g)
}

func (s *Scene) SetGravityOfEarth() {
	s.main.SetGravityOfEarth()
}

// SetPhysicsPaused pauses or resumes every layer's world.
func (s *Scene) SetPhysicsPaused(paused bool) {
	for _, l := range s.Layers() {
		l.SetPhysicsPaused(paused)
	}
}

// Post queues a raw input event for the next DispatchInput.
func (s *Scene) Post(evt InputEvent) {
	s.input.Push(evt)
}

// DispatchInput delivers queued input in arrival order. Mouse positions
// are converted per layer using that layer's parallax.
func (s *Scene) DispatchInput(w, h float64) {
	events := s.input.Drain()
	if len(events) == 0 {
		return
	}
	v := s.camera.View()
	layers := s.Layers()
	for _, evt := range events {
		s.dispatchOwn(evt, v, w, h)
		for _, l := range layers {
			l.dispatch(evt, v, w, h)
		}
	}
}

func (s *Scene) dispatchOwn(evt InputEvent, v View, w, h float64) {
	switch e := evt.(type) {
	case KeyEvent:
		s.fireKey(e)
	case MouseButtonEvent:
		sp := geom.Vec(e.X, e.Y)
		s.fireClick(MouseClick{Button: e.Button, Pressed: e.Pressed, Screen: sp, World: s.main.ScreenToWorld(v, sp, w, h)})
	case MouseMoveEvent:
		sp := geom.Vec(e.X, e.Y)
		s.fireMove(MouseMove{Screen: sp, World: s.main.ScreenToWorld(v, sp, w, h)})
	case ScrollEvent:
		sp := geom.Vec(e.X, e.Y)
		s.fireScroll(MouseScroll{DX: e.DX, DY: e.DY, Screen: sp, World: s.main.ScreenToWorld(v, sp, w, h)})
	}
}

// Step advances every layer concurrently and waits for all of them.
func (s *Scene) Step(ctx context.Context, dt float64) error {
	layers := s.Layers()
	errs := make([]error, len(layers))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, l := range layers {
		if ctx.Err() != nil {
			errs[i] = ctx.Err()
			continue
		}
		g.Go(func() error {
			if err := l.Step(dt); err != nil {
				errs[i] = fmt.Errorf("layer %q: %w", l.name, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Update runs scene and layer frame listeners and advances the camera.
func (s *Scene) Update(dt float64) {
	s.fireFrame(dt)
	for _, l := range s.Layers() {
		l.Update(dt)
	}
	s.camera.Update(dt)
}

// Render draws every layer bottom to top. The camera view is taken once
// so all layers agree on the focus.
func (s *Scene) Render(c *Canvas, w, h float64) {
	v := s.camera.View()
	for _, l := range s.Layers() {
		l.Render(c, v, w, h)
	}
}

// VisibleArea returns the world rectangle of the main layer on screen.
func (s *Scene) VisibleArea(w, h float64) geom.Bounds {
	return s.main.VisibleArea(s.camera.View(), w, h)
}

// Destroy destroys every layer.
func (s *Scene) Destroy() {
	for _, l := range s.Layers() {
		l.Destroy()
	}
}
