package physics

import "github.com/milk9111/pistage/geom"

// Handler is the physics capability set of an actor. InertHandler backs
// actors outside any world, SimulationHandler backs mounted ones.
//
// Non-finite vectors passed to the velocity, force and impulse setters are
// ignored.
type Handler interface {
	Position() geom.Vector
	SetPosition(p geom.Vector)
	MoveBy(d geom.Vector)
	// Center is the centre of the fixtures' bounding box in world space.
	Center() geom.Vector
	Bounds() geom.Bounds
	Contains(p geom.Vector) bool

	Rotation() float64
	SetRotation(deg float64)
	RotateBy(deg float64)

	Velocity() geom.Vector
	SetVelocity(v geom.Vector)
	AngularVelocity() float64
	SetAngularVelocity(degPerSec float64)
	ApplyForce(f geom.Vector)
	ApplyForceAt(f, worldPoint geom.Vector)
	ApplyImpulse(j geom.Vector)
	ApplyImpulseAt(j, worldPoint geom.Vector)
	ApplyTorque(t float64)
	// ResetMovement zeroes linear and angular velocity.
	ResetMovement()

	BodyType() BodyType
	SetBodyType(t BodyType)
	Density() float64
	SetDensity(d float64)
	Friction() float64
	SetFriction(f float64)
	Restitution() float64
	SetRestitution(r float64)
	LinearDamping() float64
	SetLinearDamping(d float64)
	AngularDamping() float64
	SetAngularDamping(d float64)
	GravityScale() float64
	SetGravityScale(s float64)
	RotationLocked() bool
	SetRotationLocked(locked bool)
	Mass() float64

	Fixtures() []Fixture
	SetFixtures(fn FixtureFunc)

	// Data snapshots the full state.
	Data() Data
}
