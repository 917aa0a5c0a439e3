package physics

import (
	"math"
	"testing"

	"github.com/milk9111/pistage/geom"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func sampleData() Data {
	d := DefaultData()
	d.Position = geom.Vec(3.3, -7.1)
	d.Rotation = 33
	d.Velocity = geom.Vec(1.25, -2)
	d.AngularVelocity = 12.5
	d.Friction = 0.3
	d.Restitution = 0.1
	d.LinearDamping = 0.2
	d.AngularDamping = 0.4
	d.GravityScale = 0.5
	d.Fixtures = Fixtures(Box(1, 2))
	return d
}

func TestAttachDetachRoundTrip(t *testing.T) {
	w := NewWorld()
	want := sampleData()

	h, err := w.Attach(7, want)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if got := h.Position(); got != want.Position {
		t.Fatalf("Position after attach = %v, want %v", got, want.Position)
	}
	if got := h.Rotation(); got != want.Rotation {
		t.Fatalf("Rotation after attach = %v, want %v", got, want.Rotation)
	}

	got, err := h.Detach()
	if err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if got.Position != want.Position || got.Rotation != want.Rotation {
		t.Fatalf("pose = %v/%v, want %v/%v", got.Position, got.Rotation, want.Position, want.Rotation)
	}
	if got.Velocity != want.Velocity || got.AngularVelocity != want.AngularVelocity {
		t.Fatalf("motion = %v/%v, want %v/%v", got.Velocity, got.AngularVelocity, want.Velocity, want.AngularVelocity)
	}
	if got.BodyType != want.BodyType || got.Friction != want.Friction || got.Restitution != want.Restitution ||
		got.Density != want.Density || got.LinearDamping != want.LinearDamping ||
		got.AngularDamping != want.AngularDamping || got.GravityScale != want.GravityScale {
		t.Fatalf("material = %+v, want %+v", got, want)
	}
	if n := len(got.Fixtures()); n != 1 {
		t.Fatalf("fixtures = %d, want 1", n)
	}
	if w.BodyCount() != 0 {
		t.Fatalf("BodyCount = %d, want 0", w.BodyCount())
	}
	if _, err := h.Detach(); err == nil {
		t.Fatalf("second Detach succeeded")
	}
}

func TestAttachDuplicateID(t *testing.T) {
	w := NewWorld()
	if _, err := w.Attach(1, DefaultData()); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if _, err := w.Attach(1, DefaultData()); err == nil {
		t.Fatalf("duplicate Attach succeeded")
	}
}

func TestNonFiniteInputsIgnored(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)

	handlers := map[string]Handler{
		"inert": NewInertHandler(sampleData()),
	}
	h, err := NewWorld().Attach(1, sampleData())
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	handlers["simulation"] = h

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			v := h.Velocity()
			h.SetVelocity(geom.Vec(nan, 1))
			h.ApplyImpulse(geom.Vec(1, inf))
			h.ApplyForce(geom.Vec(nan, nan))
			h.SetPosition(geom.Vec(inf, 0))
			if got := h.Velocity(); got != v {
				t.Fatalf("Velocity = %v, want %v", got, v)
			}
			if got := h.Position(); !got.IsValid() {
				t.Fatalf("Position = %v, want finite", got)
			}
		})
	}
}

func TestInertImpulse(t *testing.T) {
	d := DefaultData()
	d.BodyType = Dynamic
	d.Fixtures = Fixtures(Box(1, 2))
	h := NewInertHandler(d)

	if m := h.Mass(); !approxEqual(m, 20, 1e-9) {
		t.Fatalf("Mass = %v, want 20", m)
	}
	h.ApplyImpulse(geom.Vec(20, 0))
	if v := h.Velocity(); !approxEqual(v.X, 1, 1e-9) {
		t.Fatalf("Velocity = %v, want (1, 0)", v)
	}

	h.SetBodyType(Static)
	h.ApplyImpulse(geom.Vec(20, 0))
	if v := h.Velocity(); !approxEqual(v.X, 1, 1e-9) {
		t.Fatalf("static impulse changed velocity to %v", v)
	}
}

func TestSimulationMassMatchesFixtures(t *testing.T) {
	d := DefaultData()
	d.BodyType = Dynamic
	d.Fixtures = Fixtures(Box(1, 2))
	h, err := NewWorld().Attach(1, d)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if m := h.Mass(); !approxEqual(m, 20, 1e-6) {
		t.Fatalf("Mass = %v, want 20", m)
	}

	empty := DefaultData()
	empty.BodyType = Dynamic
	h2, err := h.World().Attach(2, empty)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if m := h2.Mass(); m != 1 {
		t.Fatalf("Mass without fixtures = %v, want 1", m)
	}
}

func TestCenterAndContains(t *testing.T) {
	d := DefaultData()
	d.Position = geom.Vec(10, 10)
	d.Fixtures = Fixtures(Box(2, 4))
	h := NewInertHandler(d)

	if c := h.Center(); c != geom.Vec(11, 12) {
		t.Fatalf("Center = %v, want (11, 12)", c)
	}
	if !h.Contains(geom.Vec(11, 13)) {
		t.Fatalf("Contains inner point = false")
	}
	if h.Contains(geom.Vec(13, 13)) {
		t.Fatalf("Contains outer point = true")
	}

	h.SetRotation(90)
	c := h.Center()
	if !approxEqual(c.X, 8, 1e-9) || !approxEqual(c.Y, 11, 1e-9) {
		t.Fatalf("rotated Center = %v, want (8, 11)", c)
	}
}

func TestBodyTypeNames(t *testing.T) {
	for _, bt := range []BodyType{Static, Dynamic, Kinematic, Sensor, Particle} {
		got, err := ParseBodyType(bt.String())
		if err != nil || got != bt {
			t.Fatalf("ParseBodyType(%q) = %v, %v", bt.String(), got, err)
		}
	}
	if _, err := ParseBodyType("ghost"); err == nil {
		t.Fatalf("ParseBodyType(ghost) succeeded")
	}
}

func TestRotationTurnsAboutOrigin(t *testing.T) {
	start := geom.Vec(3.3, -7.1)
	d := sampleData()
	d.Rotation = 0

	sim, err := NewWorld().Attach(1, d)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	handlers := map[string]Handler{
		"inert":      NewInertHandler(d),
		"simulation": sim,
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			h.SetRotation(90)
			if p := h.Position(); !approxEqual(p.X, start.X, 1e-9) || !approxEqual(p.Y, start.Y, 1e-9) {
				t.Fatalf("Position after SetRotation(90) = %v, want %v", p, start)
			}
			h.RotateBy(-45)
			if p := h.Position(); !approxEqual(p.X, start.X, 1e-9) || !approxEqual(p.Y, start.Y, 1e-9) {
				t.Fatalf("Position after RotateBy(-45) = %v, want %v", p, start)
			}
			// Box(1, 2) turned 45 degrees about its lower-left corner.
			c := h.Center()
			wantX := start.X + (math.Cos(math.Pi/4) - 2*math.Sin(math.Pi/4))/2
			wantY := start.Y + (math.Sin(math.Pi/4) + 2*math.Cos(math.Pi/4))/2
			if !approxEqual(c.X, wantX, 1e-9) || !approxEqual(c.Y, wantY, 1e-9) {
				t.Fatalf("Center = %v, want (%v, %v)", c, wantX, wantY)
			}
		})
	}
}

func TestSetFixturesKeepsRotatedPose(t *testing.T) {
	h, err := NewWorld().Attach(1, sampleData())
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	h.SetFixtures(Fixtures(Box(4, 1)))
	if p := h.Position(); p != geom.Vec(3.3, -7.1) {
		t.Fatalf("Position = %v, want (3.3, -7.1)", p)
	}
	if r := h.Rotation(); r != 33 {
		t.Fatalf("Rotation = %v, want 33", r)
	}
}
