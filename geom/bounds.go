package geom

import (
	"fmt"
	"math"
)

// Bounds is an axis-aligned rectangle in world meters. (X, Y) is the
// lower-left corner; Y grows upwards. Bounds values are never mutated,
// every operation returns a new value.
type Bounds struct {
	X, Y          float64
	Width, Height float64
}

func NewBounds(x, y, width, height float64) Bounds {
	return Bounds{X: x, Y: y, Width: width, Height: height}
}

// BoundsAround returns bounds of the given size centred on c.
func BoundsAround(c Vector, width, height float64) Bounds {
	return Bounds{X: c.X - width/2, Y: c.Y - height/2, Width: width, Height: height}
}

func (b Bounds) Right() float64 { return b.X + b.Width }
func (b Bounds) Top() float64   { return b.Y + b.Height }

func (b Bounds) Center() Vector {
	return Vector{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// WithCenter moves the bounds so that their centre is c.
func (b Bounds) WithCenter(c Vector) Bounds {
	return BoundsAround(c, b.Width, b.Height)
}

func (b Bounds) MoveBy(dx, dy float64) Bounds {
	b.X += dx
	b.Y += dy
	return b
}

func (b Bounds) Translate(v Vector) Bounds {
	return b.MoveBy(v.X, v.Y)
}

// SmallestCommon returns the smallest bounds containing both b and o.
func (b Bounds) SmallestCommon(o Bounds) Bounds {
	x := math.Min(b.X, o.X)
	y := math.Min(b.Y, o.Y)
	return Bounds{
		X:      x,
		Y:      y,
		Width:  math.Max(b.Right(), o.Right()) - x,
		Height: math.Max(b.Top(), o.Top()) - y,
	}
}

// Above returns b unchanged if its top edge is on or above line, otherwise
// the minimal vertical translation that puts the top edge on line.
func (b Bounds) Above(line float64) Bounds {
	if b.Top() >= line {
		return b
	}
	b.Y = line - b.Height
	return b
}

// Below returns b unchanged if its bottom edge is on or below line, otherwise
// moves it down so the bottom edge lies on line.
func (b Bounds) Below(line float64) Bounds {
	if b.Y <= line {
		return b
	}
	b.Y = line
	return b
}

// RightOf returns b unchanged if its right edge is on or right of line,
// otherwise moves it right so the right edge lies on line.
func (b Bounds) RightOf(line float64) Bounds {
	if b.Right() >= line {
		return b
	}
	b.X = line - b.Width
	return b
}

// LeftOf returns b unchanged if its left edge is on or left of line,
// otherwise moves it left so the left edge lies on line.
func (b Bounds) LeftOf(line float64) Bounds {
	if b.X <= line {
		return b
	}
	b.X = line
	return b
}

// Contains reports whether p lies inside b. Edges count as inside.
func (b Bounds) Contains(p Vector) bool {
	return p.X >= b.X && p.X <= b.Right() && p.Y >= b.Y && p.Y <= b.Top()
}

// ContainsBounds reports whether o lies completely inside b. Shared edges
// count as inside.
func (b Bounds) ContainsBounds(o Bounds) bool {
	return o.X >= b.X && o.Right() <= b.Right() && o.Y >= b.Y && o.Top() <= b.Top()
}

func (b Bounds) Intersects(o Bounds) bool {
	return b.X < o.Right() &&
		b.Right() > o.X &&
		b.Y < o.Top() &&
		b.Top() > o.Y
}

// FitInside moves b per axis by the smallest amount that places it inside
// outer. On an axis where b is larger than outer it is aligned to outer's
// lower edge instead.
func (b Bounds) FitInside(outer Bounds) Bounds {
	b.X = fitAxis(b.X, b.Width, outer.X, outer.Width)
	b.Y = fitAxis(b.Y, b.Height, outer.Y, outer.Height)
	return b
}

func fitAxis(pos, size, outerPos, outerSize float64) float64 {
	if size >= outerSize {
		return outerPos
	}
	if pos < outerPos {
		return outerPos
	}
	if pos+size > outerPos+outerSize {
		return outerPos + outerSize - size
	}
	return pos
}

// ClampPoint clamps p per axis into b.
func (b Bounds) ClampPoint(p Vector) Vector {
	return Vector{
		X: math.Max(b.X, math.Min(b.Right(), p.X)),
		Y: math.Max(b.Y, math.Min(b.Top(), p.Y)),
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("Bounds(x=%g, y=%g, w=%g, h=%g)", b.X, b.Y, b.Width, b.Height)
}
