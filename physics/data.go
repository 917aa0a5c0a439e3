package physics

import "github.com/milk9111/pistage/geom"

// Data is the plain physics state of a body. It travels between handlers
// when an actor is mounted or unmounted.
type Data struct {
	Position        geom.Vector
	Rotation        float64 // degrees, counter-clockwise
	Velocity        geom.Vector
	AngularVelocity float64 // degrees per second

	BodyType       BodyType
	Density        float64
	Friction       float64
	Restitution    float64
	LinearDamping  float64
	AngularDamping float64
	GravityScale   float64
	RotationLocked bool

	Fixtures FixtureFunc
}

// DefaultData returns the state of a freshly created actor.
func DefaultData() Data {
	return Data{
		BodyType:     Sensor,
		Density:      10,
		Friction:     0,
		Restitution:  0.5,
		GravityScale: 1,
	}
}

func (d Data) fixtures() []Fixture {
	if d.Fixtures == nil {
		return nil
	}
	return d.Fixtures()
}
