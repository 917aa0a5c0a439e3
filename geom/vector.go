package geom

import (
	"fmt"
	"math"

	"github.com/milk9111/pistage/common"
)

// Vector is a 2D point or displacement in world meters, Y-up.
type Vector struct {
	X, Y float64
}

var Zero = Vector{}

func Vec(x, y float64) Vector {
	return Vector{X: x, Y: y}
}

func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector) Scale(f float64) Vector {
	return Vector{X: v.X * f, Y: v.Y * f}
}

// Mul multiplies component-wise.
func (v Vector) Mul(o Vector) Vector {
	return Vector{X: v.X * o.X, Y: v.Y * o.Y}
}

func (v Vector) Neg() Vector {
	return Vector{X: -v.X, Y: -v.Y}
}

func (v Vector) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vector) Dot(o Vector) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vector) Cross(o Vector) float64 {
	return v.X*o.Y - v.Y*o.X
}

// Rotate turns v counter-clockwise by deg degrees.
func (v Vector) Rotate(deg float64) Vector {
	if deg == 0 {
		return v
	}
	s, c := math.Sincos(common.DegToRad(deg))
	return Vector{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// IsValid reports whether both components are finite.
func (v Vector) IsValid() bool {
	return common.Finite(v.X, v.Y)
}

func (v Vector) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}
