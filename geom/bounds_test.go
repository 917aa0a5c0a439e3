package geom

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestBoundsMoveByRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		b      Bounds
		dx, dy float64
	}{
		{"origin", NewBounds(0, 0, 1, 1), 3, 4},
		{"negative", NewBounds(-5, 2, 10, 0.5), -7.25, 11},
		{"zero", NewBounds(1, 1, 2, 2), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.b.MoveBy(tt.dx, tt.dy).MoveBy(-tt.dx, -tt.dy)
			if got != tt.b {
				t.Fatalf("round trip = %v, want %v", got, tt.b)
			}
		})
	}
}

func TestBoundsSmallestCommonContainsBoth(t *testing.T) {
	pairs := [][2]Bounds{
		{NewBounds(0, 0, 1, 1), NewBounds(5, 5, 1, 1)},
		{NewBounds(-3, 2, 4, 4), NewBounds(0, 0, 1, 1)},
		{NewBounds(0, 0, 10, 10), NewBounds(2, 2, 1, 1)},
	}
	for _, p := range pairs {
		u := p[0].SmallestCommon(p[1])
		if !u.ContainsBounds(p[0]) || !u.ContainsBounds(p[1]) {
			t.Errorf("%v does not contain %v and %v", u, p[0], p[1])
		}
	}
	u := NewBounds(0, 0, 1, 1).SmallestCommon(NewBounds(5, 5, 1, 1))
	if u != NewBounds(0, 0, 6, 6) {
		t.Fatalf("SmallestCommon = %v, want (0,0,6,6)", u)
	}
}

func TestBoundsHalfPlanes(t *testing.T) {
	b := NewBounds(0, 0, 2, 2)

	if got := b.Above(1); got != b {
		t.Errorf("Above satisfied = %v, want identity", got)
	}
	got := b.Above(5)
	if got.Top() != 5 || got.X != b.X || got.Height != b.Height {
		t.Errorf("Above(5) = %v, want top edge on 5", got)
	}

	if got := b.Below(0); got != b {
		t.Errorf("Below satisfied = %v, want identity", got)
	}
	if got := NewBounds(0, 3, 2, 2).Below(1); got.Y != 1 {
		t.Errorf("Below(1).Y = %v, want 1", got.Y)
	}

	if got := b.RightOf(1); got != b {
		t.Errorf("RightOf satisfied = %v, want identity", got)
	}
	if got := b.RightOf(10); got.Right() != 10 {
		t.Errorf("RightOf(10).Right() = %v, want 10", got.Right())
	}

	if got := b.LeftOf(0); got != b {
		t.Errorf("LeftOf satisfied = %v, want identity", got)
	}
	if got := NewBounds(4, 0, 2, 2).LeftOf(1); got.X != 1 {
		t.Errorf("LeftOf(1).X = %v, want 1", got.X)
	}
}

func TestBoundsContainsInclusive(t *testing.T) {
	b := NewBounds(0, 0, 100, 100)
	tests := []struct {
		p    Vector
		want bool
	}{
		{Vec(0, 0), true},
		{Vec(100, 100), true},
		{Vec(50, 100), true},
		{Vec(100.01, 50), false},
		{Vec(-0.01, 50), false},
	}
	for _, tt := range tests {
		if got := b.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if !b.ContainsBounds(b) {
		t.Fatalf("bounds must contain themselves")
	}
}

func TestBoundsFitInside(t *testing.T) {
	outer := NewBounds(0, 0, 10, 10)
	tests := []struct {
		name string
		in   Bounds
		want Bounds
	}{
		{"inside", NewBounds(2, 2, 2, 2), NewBounds(2, 2, 2, 2)},
		{"left", NewBounds(-3, 2, 2, 2), NewBounds(0, 2, 2, 2)},
		{"top right", NewBounds(9, 9, 2, 2), NewBounds(8, 8, 2, 2)},
		{"too wide", NewBounds(3, 3, 20, 2), NewBounds(0, 3, 20, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.FitInside(outer); got != tt.want {
				t.Fatalf("FitInside = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoundsCenter(t *testing.T) {
	b := NewBounds(2, 4, 4, 2)
	c := b.Center()
	if c != Vec(4, 5) {
		t.Fatalf("Center = %v, want (4, 5)", c)
	}
	if got := b.WithCenter(Vec(0, 0)); got != NewBounds(-2, -1, 4, 2) {
		t.Fatalf("WithCenter = %v", got)
	}
}

func TestVectorRotate(t *testing.T) {
	v := Vec(1, 0).Rotate(90)
	if !approxEqual(v.X, 0, 1e-9) || !approxEqual(v.Y, 1, 1e-9) {
		t.Fatalf("Rotate(90) = %v, want (0, 1)", v)
	}
	if Vec(math.NaN(), 0).IsValid() {
		t.Fatalf("NaN vector reported valid")
	}
}
