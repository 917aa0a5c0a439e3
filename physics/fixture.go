package physics

import (
	"math"

	"github.com/milk9111/pistage/geom"
)

// ShapeKind tags the geometry carried by a Fixture.
type ShapeKind int

const (
	ShapeCircle ShapeKind = iota
	ShapePolygon
	ShapeSegment
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeCircle:
		return "circle"
	case ShapePolygon:
		return "polygon"
	case ShapeSegment:
		return "segment"
	}
	return "unknown"
}

// Material overrides the body-wide material for a single fixture.
type Material struct {
	Density     float64
	Friction    float64
	Restitution float64
}

// Fixture is one collision shape in body-local meters. Only the fields
// matching Kind are read:
//   - ShapeCircle: Center, Radius
//   - ShapePolygon: Points (convex)
//   - ShapeSegment: A, B, Radius
type Fixture struct {
	Kind   ShapeKind
	Center geom.Vector
	Radius float64
	Points []geom.Vector
	A, B   geom.Vector

	Sensor   bool
	Material *Material
}

// FixtureFunc produces the fixtures of a body. It is called when a body
// is created and whenever the fixtures are replaced.
type FixtureFunc func() []Fixture

// Fixtures wraps a fixed list into a FixtureFunc.
func Fixtures(fs ...Fixture) FixtureFunc {
	return func() []Fixture {
		out := make([]Fixture, len(fs))
		copy(out, fs)
		return out
	}
}

func Circle(center geom.Vector, radius float64) Fixture {
	return Fixture{Kind: ShapeCircle, Center: center, Radius: radius}
}

// Box is a w×h rectangle with its lower-left corner at the body origin.
func Box(w, h float64) Fixture {
	return Rect(0, 0, w, h)
}

func Rect(x, y, w, h float64) Fixture {
	return Polygon(
		geom.Vec(x, y),
		geom.Vec(x+w, y),
		geom.Vec(x+w, y+h),
		geom.Vec(x, y+h),
	)
}

func Polygon(points ...geom.Vector) Fixture {
	pts := make([]geom.Vector, len(points))
	copy(pts, points)
	return Fixture{Kind: ShapePolygon, Points: pts}
}

func Segment(a, b geom.Vector) Fixture {
	return Fixture{Kind: ShapeSegment, A: a, B: b}
}

// Area in square meters. Segments have no area.
func (f Fixture) Area() float64 {
	switch f.Kind {
	case ShapeCircle:
		return math.Pi * f.Radius * f.Radius
	case ShapePolygon:
		return math.Abs(signedArea(f.Points))
	}
	return 0
}

func (f Fixture) density(fallback float64) float64 {
	if f.Material != nil {
		return f.Material.Density
	}
	return fallback
}

// Bounds returns the world-space axis-aligned box of the fixture on a body
// at pos rotated by rot degrees.
func (f Fixture) Bounds(pos geom.Vector, rot float64) geom.Bounds {
	switch f.Kind {
	case ShapeCircle:
		c := f.Center.Rotate(rot).Add(pos)
		return geom.BoundsAround(c, 2*f.Radius, 2*f.Radius)
	case ShapePolygon:
		return pointsBounds(transformPoints(f.Points, pos, rot))
	case ShapeSegment:
		b := pointsBounds(transformPoints([]geom.Vector{f.A, f.B}, pos, rot))
		return geom.NewBounds(b.X-f.Radius, b.Y-f.Radius, b.Width+2*f.Radius, b.Height+2*f.Radius)
	}
	return geom.NewBounds(pos.X, pos.Y, 0, 0)
}

// Contains reports whether the world point p is inside the fixture.
func (f Fixture) Contains(pos geom.Vector, rot float64, p geom.Vector) bool {
	local := p.Sub(pos).Rotate(-rot)
	switch f.Kind {
	case ShapeCircle:
		return local.Sub(f.Center).Length() <= f.Radius
	case ShapePolygon:
		return convexContains(f.Points, local)
	case ShapeSegment:
		return segmentDistance(f.A, f.B, local) <= f.Radius
	}
	return false
}

// WorldPoints returns the polygon or segment vertices in world space.
func (f Fixture) WorldPoints(pos geom.Vector, rot float64) []geom.Vector {
	switch f.Kind {
	case ShapePolygon:
		return transformPoints(f.Points, pos, rot)
	case ShapeSegment:
		return transformPoints([]geom.Vector{f.A, f.B}, pos, rot)
	}
	return nil
}

func fixturesBounds(fs []Fixture, pos geom.Vector, rot float64) geom.Bounds {
	if len(fs) == 0 {
		return geom.NewBounds(pos.X, pos.Y, 0, 0)
	}
	b := fs[0].Bounds(pos, rot)
	for _, f := range fs[1:] {
		b = b.SmallestCommon(f.Bounds(pos, rot))
	}
	return b
}

func fixturesContain(fs []Fixture, pos geom.Vector, rot float64, p geom.Vector) bool {
	for _, f := range fs {
		if f.Contains(pos, rot, p) {
			return true
		}
	}
	return false
}

func fixturesMass(fs []Fixture, density float64) float64 {
	var m float64
	for _, f := range fs {
		m += f.Area() * f.density(density)
	}
	return m
}

func transformPoints(pts []geom.Vector, pos geom.Vector, rot float64) []geom.Vector {
	out := make([]geom.Vector, len(pts))
	for i, p := range pts {
		out[i] = p.Rotate(rot).Add(pos)
	}
	return out
}

func pointsBounds(pts []geom.Vector) geom.Bounds {
	if len(pts) == 0 {
		return geom.Bounds{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return geom.NewBounds(minX, minY, maxX-minX, maxY-minY)
}

func signedArea(pts []geom.Vector) float64 {
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].Cross(pts[j])
	}
	return a / 2
}

// counterClockwise returns pts in counter-clockwise order.
func counterClockwise(pts []geom.Vector) []geom.Vector {
	out := make([]geom.Vector, len(pts))
	copy(out, pts)
	if signedArea(out) < 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func convexContains(pts []geom.Vector, p geom.Vector) bool {
	if len(pts) < 3 {
		return false
	}
	var pos, neg bool
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		c := b.Sub(a).Cross(p.Sub(a))
		if c > 0 {
			pos = true
		} else if c < 0 {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}

func segmentDistance(a, b, p geom.Vector) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Sub(a).Length()
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return p.Sub(a.Add(ab.Scale(t))).Length()
}
