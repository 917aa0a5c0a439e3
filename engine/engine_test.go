package engine

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/pistage/geom"
	"github.com/milk9111/pistage/physics"
	"github.com/milk9111/pistage/stage"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig(), stage.NewScene("test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		scene *stage.Scene
	}{
		{"zero width", Config{Width: 0, Height: 600}, stage.NewScene("s")},
		{"negative height", Config{Width: 800, Height: -1}, stage.NewScene("s")},
		{"nil scene", DefaultConfig(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, tt.scene); !errors.Is(err, stage.ErrIllegalArgument) {
				t.Fatalf("err = %v, want ErrIllegalArgument", err)
			}
		})
	}
}

func TestLayoutIsFixed(t *testing.T) {
	e := newTestEngine(t)
	w, h := e.Layout(1920, 1080)
	if w != 800 || h != 600 {
		t.Fatalf("Layout = %dx%d, want 800x600", w, h)
	}
}

func TestTickOrder(t *testing.T) {
	e := newTestEngine(t)
	s := e.Scene()
	var order []string

	s.OnKey(func(stage.KeyEvent) { order = append(order, "input") })
	s.OnFrameUpdate(func(float64) { order = append(order, "scene") })
	e.OnFrameUpdate(func(float64) { order = append(order, "engine") })

	cfg := stage.DefaultActorConfig()
	a := stage.NewActor(cfg)
	a.OnMount(func(*stage.Layer) { order = append(order, "mount") })
	s.Add(a)
	s.Post(stage.KeyEvent{Key: ebiten.KeyA, Pressed: true})

	if err := e.Tick(context.Background(), 1.0/60); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	want := []string{"input", "mount", "scene", "engine"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	if e.Ticks() != 1 {
		t.Fatalf("Ticks = %d, want 1", e.Ticks())
	}
}

func TestTransitionIsDeferred(t *testing.T) {
	e := newTestEngine(t)
	first := e.Scene()
	next := stage.NewScene("next")

	a := stage.NewActor(stage.DefaultActorConfig())
	first.Add(a)
	if err := e.Tick(context.Background(), 1.0/60); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	var seen *stage.Scene
	e.OnFrameUpdate(func(float64) {
		if seen == nil {
			if err := e.Transition(next); err != nil {
				t.Errorf("Transition: %v", err)
			}
			seen = e.Scene()
		}
	})
	if err := e.Tick(context.Background(), 1.0/60); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if seen != first {
		t.Fatalf("scene switched during the tick")
	}
	if e.Scene() != next {
		t.Fatalf("scene not switched after the tick")
	}
	if a.IsMounted() {
		t.Fatalf("previous scene was not destroyed")
	}
	if err := e.Transition(nil); !errors.Is(err, stage.ErrIllegalArgument) {
		t.Fatalf("Transition(nil) err = %v", err)
	}
}

func TestRunHeadless(t *testing.T) {
	e := newTestEngine(t)
	s := e.Scene()
	s.SetGravityOfEarth()

	cfg := stage.DefaultActorConfig()
	cfg.Physics.BodyType = physics.Dynamic
	cfg.Physics.Fixtures = physics.Fixtures(physics.Box(1, 1))
	a := stage.NewActor(cfg)
	s.Add(a)

	if err := e.RunHeadless(context.Background(), 60); err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	if e.Ticks() != 60 {
		t.Fatalf("Ticks = %d, want 60", e.Ticks())
	}
	if p := a.Position(); p.Y >= 0 || p.X != 0 {
		t.Fatalf("Position = %v, want a fall along y", p)
	}
	if v := a.Velocity(); v.Y >= 0 {
		t.Fatalf("Velocity = %v, want downward", v)
	}

	if err := e.RunHeadless(context.Background(), 1); !errors.Is(err, stage.ErrIllegalState) {
		t.Fatalf("second start err = %v, want ErrIllegalState", err)
	}
	if err := e.Run(); !errors.Is(err, stage.ErrIllegalState) {
		t.Fatalf("Run after headless err = %v, want ErrIllegalState", err)
	}
}

func TestRunHeadlessStops(t *testing.T) {
	t.Run("stop", func(t *testing.T) {
		e := newTestEngine(t)
		e.OnFrameUpdate(func(float64) {
			if e.Ticks() == 4 {
				e.Stop()
			}
		})
		if err := e.RunHeadless(context.Background(), 0); err != nil {
			t.Fatalf("RunHeadless: %v", err)
		}
		if e.Ticks() != 5 {
			t.Fatalf("Ticks = %d, want 5", e.Ticks())
		}
		if !e.Stopped() {
			t.Fatalf("Stopped = false after Stop")
		}
		if err := e.Update(); !errors.Is(err, ebiten.Termination) {
			t.Fatalf("Update after Stop err = %v, want ebiten.Termination", err)
		}
	})
	t.Run("context", func(t *testing.T) {
		e := newTestEngine(t)
		ctx, cancel := context.WithCancel(context.Background())
		e.OnFrameUpdate(func(float64) {
			if e.Ticks() == 2 {
				cancel()
			}
		})
		if err := e.RunHeadless(ctx, 0); !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
		if e.Ticks() != 3 {
			t.Fatalf("Ticks = %d, want 3", e.Ticks())
		}
	})
}

func TestTickDispatchesMouseInWorldUnits(t *testing.T) {
	e := newTestEngine(t)
	s := e.Scene()
	s.Camera().SetFocus(geom.Vec(10, 10))

	var got geom.Vector
	s.OnMouseMove(func(m stage.MouseMove) { got = m.World })
	s.Post(stage.MouseMoveEvent{X: 400, Y: 300})
	if err := e.Tick(context.Background(), 1.0/60); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if math.Abs(got.X-10) > 1e-9 || math.Abs(got.Y-10) > 1e-9 {
		t.Fatalf("World = %v, want (10, 10)", got)
	}
}
