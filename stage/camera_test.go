package stage

import (
	"errors"
	"math"
	"testing"

	"github.com/milk9111/pistage/geom"
	"github.com/tanema/gween/ease"
)

func TestCameraDefaults(t *testing.T) {
	c := NewCamera()
	v := c.View()
	if v.Zoom != 32 || v.Focus != geom.Zero || v.Rotation != 0 {
		t.Fatalf("View = %+v, want zoom 32 at origin", v)
	}
}

func TestCameraBoundsClamp(t *testing.T) {
	tests := []struct {
		name  string
		focus geom.Vector
		want  geom.Vector
	}{
		{"inside", geom.Vec(20, 30), geom.Vec(20, 30)},
		{"right of", geom.Vec(150, 50), geom.Vec(100, 50)},
		{"below left", geom.Vec(-5, -5), geom.Vec(0, 0)},
		{"on edge", geom.Vec(100, 100), geom.Vec(100, 100)},
		{"above only", geom.Vec(50, 400), geom.Vec(50, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCamera()
			c.SetBounds(geom.NewBounds(0, 0, 100, 100))
			c.SetFocus(tt.focus)
			got := c.EffectiveFocus()
			if got != tt.want {
				t.Fatalf("EffectiveFocus = %v, want %v", got, tt.want)
			}
			c.SetFocus(got)
			if again := c.EffectiveFocus(); again != got {
				t.Fatalf("clamp not idempotent: %v then %v", got, again)
			}
		})
	}
}

func TestCameraClearBounds(t *testing.T) {
	c := NewCamera()
	c.SetBounds(geom.NewBounds(0, 0, 10, 10))
	c.SetFocus(geom.Vec(50, 50))
	c.ClearBounds()
	if got := c.EffectiveFocus(); got != geom.Vec(50, 50) {
		t.Fatalf("EffectiveFocus = %v, want (50, 50)", got)
	}
}

func TestCameraZoom(t *testing.T) {
	c := NewCamera()
	for _, z := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		if err := c.SetZoom(z); !errors.Is(err, ErrIllegalArgument) {
			t.Errorf("SetZoom(%v) err = %v", z, err)
		}
	}
	if got := c.Zoom(); got != 32 {
		t.Fatalf("Zoom = %v after rejected calls", got)
	}

	if err := c.ZoomIn(0.5); err != nil {
		t.Fatalf("ZoomIn: %v", err)
	}
	if got := c.Zoom(); got != 48 {
		t.Fatalf("Zoom = %v, want 48", got)
	}
	if err := c.ZoomOut(0.25); err != nil {
		t.Fatalf("ZoomOut: %v", err)
	}
	if got := c.Zoom(); got != 36 {
		t.Fatalf("Zoom = %v, want 36", got)
	}
	if err := c.ZoomOut(1); !errors.Is(err, ErrIllegalArgument) {
		t.Fatalf("ZoomOut(1) err = %v", err)
	}
	if got := c.Zoom(); got != 36 {
		t.Fatalf("Zoom = %v after rejected ZoomOut", got)
	}
}

func TestCameraRotationWraps(t *testing.T) {
	c := NewCamera()
	c.RotateBy(350)
	c.RotateBy(20)
	if got := c.Rotation(); !approxEqual(got, 10, 1e-9) {
		t.Fatalf("Rotation = %v, want 10", got)
	}
	c.RotateTo(-450)
	if got := c.Rotation(); !approxEqual(got, -90, 1e-9) {
		t.Fatalf("Rotation = %v, want -90", got)
	}
	c.RotateBy(math.NaN())
	if got := c.Rotation(); !approxEqual(got, -90, 1e-9) {
		t.Fatalf("Rotation = %v after NaN", got)
	}
}

func TestCameraFollow(t *testing.T) {
	c := NewCamera()
	a := newTestActor("a", geom.Vec(4, 6))
	c.Follow(a)
	c.SetOffset(geom.Vec(0, 1))
	if got := c.EffectiveFocus(); !approxVec(got, geom.Vec(4, 7), 1e-9) {
		t.Fatalf("EffectiveFocus = %v, want (4, 7)", got)
	}
	a.SetPosition(geom.Vec(10, 10))
	if got := c.EffectiveFocus(); !approxVec(got, geom.Vec(10, 11), 1e-9) {
		t.Fatalf("EffectiveFocus = %v, want (10, 11)", got)
	}

	c.SetBounds(geom.NewBounds(0, 0, 8, 8))
	if got := c.EffectiveFocus(); !approxVec(got, geom.Vec(8, 8), 1e-9) {
		t.Fatalf("clamped follow = %v, want (8, 8)", got)
	}

	c.SetFocus(geom.Vec(1, 1))
	if c.Following() != nil {
		t.Fatalf("SetFocus kept following")
	}
}

func TestCameraScrollTo(t *testing.T) {
	c := NewCamera()
	c.ScrollTo(geom.Vec(10, -20), 1, ease.Linear)
	if !c.Scrolling() {
		t.Fatalf("not scrolling")
	}
	c.Update(0.5)
	if got := c.Focus(); !approxVec(got, geom.Vec(5, -10), 1e-4) {
		t.Fatalf("Focus halfway = %v, want (5, -10)", got)
	}
	c.Update(0.6)
	if c.Scrolling() {
		t.Fatalf("still scrolling after duration")
	}
	if got := c.Focus(); !approxVec(got, geom.Vec(10, -20), 1e-4) {
		t.Fatalf("Focus = %v, want (10, -20)", got)
	}

	c.ScrollTo(geom.Zero, 1, nil)
	c.SetFocus(geom.Vec(3, 3))
	c.Update(0.5)
	if c.Scrolling() || c.Focus() != geom.Vec(3, 3) {
		t.Fatalf("SetFocus did not cancel the scroll")
	}
}

func TestCameraWorldToScreen(t *testing.T) {
	c := NewCamera()
	if got := c.WorldToScreen(geom.Zero, 800, 600); got != geom.Vec(400, 300) {
		t.Fatalf("WorldToScreen = %v, want (400, 300)", got)
	}
	c.RotateTo(90)
	if got := c.WorldToScreen(geom.Vec(1, 0), 800, 600); !approxVec(got, geom.Vec(400, 268), 1e-9) {
		t.Fatalf("rotated WorldToScreen = %v, want (400, 268)", got)
	}
}
