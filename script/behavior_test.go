package script

import (
	"errors"
	"math"
	"testing"

	"github.com/milk9111/pistage/geom"
	"github.com/milk9111/pistage/stage"
)

const moverSource = `
update := func(actor, dt) {
	actor.set_position(actor.position()[0] + 2 * dt, 5)
	actor.rotate_by(90 * dt)
	n := actor.state.frames
	if n == undefined {
		n = 0
	}
	actor.state.frames = n + 1
}
`

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func newActor(name string) *stage.Actor {
	cfg := stage.DefaultActorConfig()
	cfg.Name = name
	return stage.NewActor(cfg)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		noUpd bool
	}{
		{"syntax", "update := func(actor, dt) {", false},
		{"missing update", "x := 1", true},
		{"runtime error at top level", "x := 1 / 0\nupdate := func(a, dt) {}", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.name, []byte(tt.src))
			if err == nil {
				t.Fatalf("Compile succeeded")
			}
			if got := errors.Is(err, ErrNoUpdate); got != tt.noUpd {
				t.Fatalf("errors.Is(err, ErrNoUpdate) = %v, want %v (err %v)", got, tt.noUpd, err)
			}
		})
	}
}

func TestBindingUpdate(t *testing.T) {
	b, err := Compile("mover", []byte(moverSource))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	a := newActor("a")
	bd := b.Bind(a)
	for i := 0; i < 2; i++ {
		if err := bd.Update(0.5); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if p := a.Position(); !approxEqual(p.X, 2, 1e-9) || !approxEqual(p.Y, 5, 1e-9) {
		t.Fatalf("Position = %v, want (2, 5)", p)
	}
	if r := a.Rotation(); !approxEqual(r, 90, 1e-9) {
		t.Fatalf("Rotation = %v, want 90", r)
	}
	if got := bd.State("frames"); got != int64(2) {
		t.Fatalf("state.frames = %v (%T), want 2", got, got)
	}
}

func TestBindingsHaveSeparateState(t *testing.T) {
	b, err := Compile("mover", []byte(moverSource))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	one := b.Bind(newActor("one"))
	two := b.Bind(newActor("two"))
	for i := 0; i < 3; i++ {
		if err := one.Update(0.1); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if err := two.Update(0.1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := one.State("frames"); got != int64(3) {
		t.Fatalf("one frames = %v, want 3", got)
	}
	if got := two.State("frames"); got != int64(1) {
		t.Fatalf("two frames = %v, want 1", got)
	}
}

func TestAttachRunsOnFrameUpdate(t *testing.T) {
	src := `
update := func(actor, dt) {
	actor.set_velocity(1, dt)
}
`
	b, err := Compile("vel", []byte(src))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	s := stage.NewScene("s")
	a := newActor("a")
	bd := b.Attach(a)

	s.Update(0.25)
	if v := a.Velocity(); v != geom.Zero {
		t.Fatalf("unmounted actor ran the script: %v", v)
	}

	s.Add(a)
	if err := s.MainLayer().Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	s.Update(0.25)
	if v := a.Velocity(); !approxEqual(v.X, 1, 1e-9) || !approxEqual(v.Y, 0.25, 1e-9) {
		t.Fatalf("Velocity = %v, want (1, 0.25)", v)
	}

	bd.Detach()
	s.Update(0.5)
	if v := a.Velocity(); !approxEqual(v.Y, 0.25, 1e-9) {
		t.Fatalf("detached script still ran: %v", v)
	}
}

func TestBindingArgumentErrors(t *testing.T) {
	src := `
update := func(actor, dt) {
	actor.set_velocity("fast", 1)
}
`
	b, err := Compile("bad", []byte(src))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := b.Bind(newActor("a")).Update(0.1); err == nil {
		t.Fatalf("Update with a string argument succeeded")
	}
}
