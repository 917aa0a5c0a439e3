package physics

import (
	"log"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/pistage/common"
	"github.com/milk9111/pistage/geom"
)

// SimulationHandler backs a body that lives in a World. All access goes
// through the world's lock so it is safe against a concurrent Step.
type SimulationHandler struct {
	world *World
	id    uint64

	body      *cp.Body
	shapes    []*cp.Shape
	fixtureFn FixtureFunc
	fixtures  []Fixture

	bodyType       BodyType
	density        float64
	friction       float64
	restitution    float64
	linearDamping  float64
	angularDamping float64
	gravityScale   float64
	rotationLocked bool

	// Last written values in caller units. They are returned for as long as
	// the body has not moved, so conversions never drift.
	pos        geom.Vector
	posMark    cp.Vector
	rot        float64
	angleMark  float64
	angVel     float64
	angVelMark float64

	detached bool
}

func newSimulationHandler(w *World, id uint64, d Data) *SimulationHandler {
	h := &SimulationHandler{
		world:          w,
		id:             id,
		fixtureFn:      d.Fixtures,
		bodyType:       d.BodyType,
		density:        d.Density,
		friction:       d.Friction,
		restitution:    d.Restitution,
		linearDamping:  d.LinearDamping,
		angularDamping: d.AngularDamping,
		gravityScale:   d.GravityScale,
		rotationLocked: d.RotationLocked,
	}

	switch d.BodyType {
	case Static:
		h.body = cp.NewStaticBody()
	case Kinematic:
		h.body = cp.NewKinematicBody()
	default:
		h.body = cp.NewBody(0, 0)
	}
	h.body.UserData = id
	h.body.SetVelocityUpdateFunc(h.updateVelocity)
	w.space.AddBody(h.body)

	// Static shapes are indexed with the pose they have when added. The
	// position is pinned again once mass has moved the centre of gravity.
	h.setRotation(d.Rotation)
	h.setPosition(d.Position)
	h.buildShapes(d.fixtures())
	h.fixMass()
	h.setPosition(d.Position)
	if h.body.GetType() != cp.BODY_STATIC {
		h.body.SetVelocity(d.Velocity.X, d.Velocity.Y)
		h.setAngularVelocity(d.AngularVelocity)
	}

	log.Printf("PhysicsWorld: Attach body id=%d type=%s fixtures=%d", id, d.BodyType, len(h.fixtures))
	return h
}

// ID returns the caller ID the body was attached with.
func (h *SimulationHandler) ID() uint64 {
	return h.id
}

// World returns the world the body lives in.
func (h *SimulationHandler) World() *World {
	return h.world
}

// Detach removes the body and every joint referencing it, returning the
// final state.
func (h *SimulationHandler) Detach() (Data, error) {
	h.world.mu.Lock()
	defer h.world.mu.Unlock()
	if h.detached {
		return Data{}, ErrDetached
	}
	d := h.dataLocked()
	h.destroyLocked()
	return d, nil
}

func (h *SimulationHandler) Detached() bool {
	h.world.mu.Lock()
	defer h.world.mu.Unlock()
	return h.detached
}

func (h *SimulationHandler) destroyLocked() {
	if h.detached {
		return
	}
	for _, s := range h.shapes {
		h.world.space.RemoveShape(s)
	}
	h.shapes = nil
	h.world.forget(h.id)
	h.world.space.RemoveBody(h.body)
	h.detached = true
}

// with runs fn under the world lock unless the body is gone.
func (h *SimulationHandler) with(fn func()) {
	h.world.mu.Lock()
	defer h.world.mu.Unlock()
	if h.detached {
		return
	}
	fn()
}

func (h *SimulationHandler) buildShapes(fs []Fixture) {
	h.fixtures = fs
	for _, f := range fs {
		s := newShape(h.body, f)
		if s == nil {
			continue
		}
		h.applyMaterial(s, f)
		h.world.space.AddShape(s)
		h.shapes = append(h.shapes, s)
	}
}

func newShape(body *cp.Body, f Fixture) *cp.Shape {
	switch f.Kind {
	case ShapeCircle:
		if f.Radius <= 0 {
			return nil
		}
		return cp.NewCircle(body, f.Radius, cp.Vector{X: f.Center.X, Y: f.Center.Y})
	case ShapePolygon:
		if len(f.Points) < 3 {
			return nil
		}
		pts := counterClockwise(f.Points)
		verts := make([]cp.Vector, len(pts))
		for i, p := range pts {
			verts[i] = cp.Vector{X: p.X, Y: p.Y}
		}
		return cp.NewPolyShapeRaw(body, len(verts), verts, 0)
	case ShapeSegment:
		return cp.NewSegment(body, cp.Vector{X: f.A.X, Y: f.A.Y}, cp.Vector{X: f.B.X, Y: f.B.Y}, f.Radius)
	}
	return nil
}

func (h *SimulationHandler) applyMaterial(s *cp.Shape, f Fixture) {
	density, friction, restitution := h.density, h.friction, h.restitution
	if f.Material != nil {
		density, friction, restitution = f.Material.Density, f.Material.Friction, f.Material.Restitution
	}
	s.SetCollisionType(collisionTypeBody)
	s.SetFriction(friction)
	s.SetElasticity(restitution)
	s.SetDensity(density)
	s.SetSensor(f.Sensor || h.bodyType == Sensor)
	s.SetFilter(h.bodyType.filter())
}

func (h *SimulationHandler) shapeFixtures(fn func(s *cp.Shape, f Fixture)) {
	for i, s := range h.shapes {
		if i < len(h.fixtures) {
			fn(s, h.fixtures[i])
		}
	}
}

// fixMass keeps dynamic bodies integrable when their fixtures carry no mass.
func (h *SimulationHandler) fixMass() {
	if h.body.GetType() != cp.BODY_DYNAMIC {
		return
	}
	if m := h.body.Mass(); m <= 0 || !common.Finite(m) {
		h.body.SetMass(1)
	}
	if h.rotationLocked {
		h.body.SetMoment(math.Inf(1))
		return
	}
	if i := h.body.Moment(); i <= 0 || !common.Finite(i) {
		h.body.SetMoment(1)
	}
}

func (h *SimulationHandler) updateVelocity(body *cp.Body, gravity cp.Vector, damping float64, dt float64) {
	cp.BodyUpdateVelocity(body, gravity.Mult(h.gravityScale), damping, dt)
	if h.linearDamping > 0 {
		body.SetVelocityVector(body.Velocity().Mult(1 / (1 + dt*h.linearDamping)))
	}
	if h.angularDamping > 0 {
		body.SetAngularVelocity(body.AngularVelocity() / (1 + dt*h.angularDamping))
	}
}

// refreshStatic re-inserts the shapes of a static body so the static index
// picks up their new bounding boxes.
func (h *SimulationHandler) refreshStatic() {
	if h.body.GetType() != cp.BODY_STATIC {
		return
	}
	for _, s := range h.shapes {
		h.world.space.RemoveShape(s)
		h.world.space.AddShape(s)
	}
}

func (h *SimulationHandler) position() geom.Vector {
	p := h.body.Position()
	if p == h.posMark {
		return h.pos
	}
	return geom.Vec(p.X, p.Y)
}

func (h *SimulationHandler) setPosition(p geom.Vector) {
	h.body.SetPosition(cp.Vector{X: p.X, Y: p.Y})
	h.pos = p
	h.posMark = h.body.Position()
	h.refreshStatic()
}

func (h *SimulationHandler) rotationDeg() float64 {
	a := h.body.Angle()
	if a == h.angleMark {
		return h.rot
	}
	return common.RadToDeg(a)
}

// setRotation turns the body about its origin. cp turns about the centre of
// gravity, so the origin is put back afterwards.
func (h *SimulationHandler) setRotation(deg float64) {
	origin := h.position()
	h.body.SetAngle(common.DegToRad(deg))
	h.rot = deg
	h.angleMark = h.body.Angle()
	h.setPosition(origin)
}

func (h *SimulationHandler) angularVelocity() float64 {
	w := h.body.AngularVelocity()
	if w == h.angVelMark {
		return h.angVel
	}
	return common.RadToDeg(w)
}

func (h *SimulationHandler) setAngularVelocity(deg float64) {
	h.body.SetAngularVelocity(common.DegToRad(deg))
	h.angVel = deg
	h.angVelMark = h.body.AngularVelocity()
}

func (h *SimulationHandler) Position() (p geom.Vector) {
	h.with(func() { p = h.position() })
	return p
}

func (h *SimulationHandler) SetPosition(p geom.Vector) {
	if !p.IsValid() {
		return
	}
	h.with(func() { h.setPosition(p) })
}

func (h *SimulationHandler) MoveBy(d geom.Vector) {
	if !d.IsValid() {
		return
	}
	h.with(func() { h.setPosition(h.position().Add(d)) })
}

func (h *SimulationHandler) Bounds() (b geom.Bounds) {
	h.with(func() { b = fixturesBounds(h.fixtures, h.position(), h.rotationDeg()) })
	return b
}

func (h *SimulationHandler) Center() geom.Vector {
	return h.Bounds().Center()
}

func (h *SimulationHandler) Contains(p geom.Vector) (ok bool) {
	h.with(func() { ok = fixturesContain(h.fixtures, h.position(), h.rotationDeg(), p) })
	return ok
}

func (h *SimulationHandler) Rotation() (r float64) {
	h.with(func() { r = h.rotationDeg() })
	return r
}

func (h *SimulationHandler) SetRotation(deg float64) {
	if !common.Finite(deg) {
		return
	}
	h.with(func() { h.setRotation(deg) })
}

func (h *SimulationHandler) RotateBy(deg float64) {
	if !common.Finite(deg) {
		return
	}
	h.with(func() { h.setRotation(h.rotationDeg() + deg) })
}

func (h *SimulationHandler) Velocity() (v geom.Vector) {
	h.with(func() {
		cv := h.body.Velocity()
		v = geom.Vec(cv.X, cv.Y)
	})
	return v
}

func (h *SimulationHandler) SetVelocity(v geom.Vector) {
	if !v.IsValid() {
		return
	}
	h.with(func() {
		if h.body.GetType() == cp.BODY_STATIC {
			return
		}
		h.body.SetVelocity(v.X, v.Y)
		h.body.Activate()
	})
}

func (h *SimulationHandler) AngularVelocity() (w float64) {
	h.with(func() { w = h.angularVelocity() })
	return w
}

func (h *SimulationHandler) SetAngularVelocity(deg float64) {
	if !common.Finite(deg) {
		return
	}
	h.with(func() {
		if h.body.GetType() == cp.BODY_STATIC {
			return
		}
		h.setAngularVelocity(deg)
		h.body.Activate()
	})
}

func (h *SimulationHandler) ApplyForce(f geom.Vector) {
	if !f.IsValid() {
		return
	}
	h.with(func() {
		if h.body.GetType() != cp.BODY_DYNAMIC {
			return
		}
		h.body.SetForce(h.body.Force().Add(cp.Vector{X: f.X, Y: f.Y}))
	})
}

func (h *SimulationHandler) ApplyForceAt(f, point geom.Vector) {
	if !f.IsValid() || !point.IsValid() {
		return
	}
	h.with(func() {
		if h.body.GetType() != cp.BODY_DYNAMIC {
			return
		}
		h.body.ApplyForceAtWorldPoint(cp.Vector{X: f.X, Y: f.Y}, cp.Vector{X: point.X, Y: point.Y})
	})
}

func (h *SimulationHandler) ApplyImpulse(j geom.Vector) {
	if !j.IsValid() {
		return
	}
	h.with(func() {
		if h.body.GetType() != cp.BODY_DYNAMIC {
			return
		}
		v := h.body.Velocity().Add(cp.Vector{X: j.X, Y: j.Y}.Mult(1 / h.body.Mass()))
		h.body.SetVelocityVector(v)
		h.body.Activate()
	})
}

func (h *SimulationHandler) ApplyImpulseAt(j, point geom.Vector) {
	if !j.IsValid() || !point.IsValid() {
		return
	}
	h.with(func() {
		if h.body.GetType() != cp.BODY_DYNAMIC {
			return
		}
		h.body.ApplyImpulseAtWorldPoint(cp.Vector{X: j.X, Y: j.Y}, cp.Vector{X: point.X, Y: point.Y})
	})
}

func (h *SimulationHandler) ApplyTorque(t float64) {
	if !common.Finite(t) {
		return
	}
	h.with(func() {
		if h.body.GetType() != cp.BODY_DYNAMIC {
			return
		}
		h.body.SetTorque(h.body.Torque() + common.DegToRad(t))
	})
}

func (h *SimulationHandler) ResetMovement() {
	h.with(func() {
		if h.body.GetType() == cp.BODY_STATIC {
			return
		}
		h.body.SetVelocity(0, 0)
		h.setAngularVelocity(0)
	})
}

func (h *SimulationHandler) BodyType() (t BodyType) {
	h.with(func() { t = h.bodyType })
	return t
}

func (h *SimulationHandler) SetBodyType(t BodyType) {
	h.with(func() {
		if t == h.bodyType {
			return
		}
		pos, rot := h.position(), h.rotationDeg()
		h.bodyType = t
		h.body.SetType(t.cpType())
		h.shapeFixtures(func(s *cp.Shape, f Fixture) {
			s.SetSensor(f.Sensor || t == Sensor)
			s.SetFilter(t.filter())
		})
		h.fixMass()
		h.setRotation(rot)
		h.setPosition(pos)
	})
}

func (h *SimulationHandler) Density() (v float64) {
	h.with(func() { v = h.density })
	return v
}

func (h *SimulationHandler) SetDensity(v float64) {
	if !common.Finite(v) || v < 0 {
		return
	}
	h.with(func() {
		h.density = v
		h.shapeFixtures(func(s *cp.Shape, f Fixture) {
			if f.Material == nil {
				s.SetDensity(v)
			}
		})
		h.fixMass()
	})
}

func (h *SimulationHandler) Friction() (v float64) {
	h.with(func() { v = h.friction })
	return v
}

func (h *SimulationHandler) SetFriction(v float64) {
	if !common.Finite(v) || v < 0 {
		return
	}
	h.with(func() {
		h.friction = v
		h.shapeFixtures(func(s *cp.Shape, f Fixture) {
			if f.Material == nil {
				s.SetFriction(v)
			}
		})
	})
}

func (h *SimulationHandler) Restitution() (v float64) {
	h.with(func() { v = h.restitution })
	return v
}

func (h *SimulationHandler) SetRestitution(v float64) {
	if !common.Finite(v) || v < 0 {
		return
	}
	h.with(func() {
		h.restitution = v
		h.shapeFixtures(func(s *cp.Shape, f Fixture) {
			if f.Material == nil {
				s.SetElasticity(v)
			}
		})
	})
}

func (h *SimulationHandler) LinearDamping() (v float64) {
	h.with(func() { v = h.linearDamping })
	return v
}

func (h *SimulationHandler) SetLinearDamping(v float64) {
	if !common.Finite(v) || v < 0 {
		return
	}
	h.with(func() { h.linearDamping = v })
}

func (h *SimulationHandler) AngularDamping() (v float64) {
	h.with(func() { v = h.angularDamping })
	return v
}

func (h *SimulationHandler) SetAngularDamping(v float64) {
	if !common.Finite(v) || v < 0 {
		return
	}
	h.with(func() { h.angularDamping = v })
}

func (h *SimulationHandler) GravityScale() (v float64) {
	h.with(func() { v = h.gravityScale })
	return v
}

func (h *SimulationHandler) SetGravityScale(v float64) {
	if !common.Finite(v) {
		return
	}
	h.with(func() { h.gravityScale = v })
}

func (h *SimulationHandler) RotationLocked() (v bool) {
	h.with(func() { v = h.rotationLocked })
	return v
}

func (h *SimulationHandler) SetRotationLocked(locked bool) {
	h.with(func() {
		if locked == h.rotationLocked {
			return
		}
		h.rotationLocked = locked
		if h.body.GetType() != cp.BODY_DYNAMIC {
			return
		}
		if !locked {
			h.body.AccumulateMassFromShapes()
		}
		h.fixMass()
	})
}

func (h *SimulationHandler) Mass() (m float64) {
	h.with(func() {
		if h.body.GetType() == cp.BODY_DYNAMIC {
			m = h.body.Mass()
			return
		}
		m = fixturesMass(h.fixtures, h.density)
	})
	return m
}

func (h *SimulationHandler) Fixtures() (fs []Fixture) {
	h.with(func() {
		fs = make([]Fixture, len(h.fixtures))
		copy(fs, h.fixtures)
	})
	return fs
}

func (h *SimulationHandler) SetFixtures(fn FixtureFunc) {
	h.with(func() {
		pos, rot := h.position(), h.rotationDeg()
		for _, s := range h.shapes {
			h.world.space.RemoveShape(s)
		}
		h.shapes = nil
		h.fixtureFn = fn
		var fs []Fixture
		if fn != nil {
			fs = fn()
		}
		h.buildShapes(fs)
		if h.body.GetType() == cp.BODY_DYNAMIC {
			h.body.AccumulateMassFromShapes()
		}
		h.fixMass()
		h.setRotation(rot)
		h.setPosition(pos)
	})
}

func (h *SimulationHandler) Data() (d Data) {
	h.with(func() { d = h.dataLocked() })
	return d
}

func (h *SimulationHandler) dataLocked() Data {
	v := h.body.Velocity()
	return Data{
		Position:        h.position(),
		Rotation:        h.rotationDeg(),
		Velocity:        geom.Vec(v.X, v.Y),
		AngularVelocity: h.angularVelocity(),
		BodyType:        h.bodyType,
		Density:         h.density,
		Friction:        h.friction,
		Restitution:     h.restitution,
		LinearDamping:   h.linearDamping,
		AngularDamping:  h.angularDamping,
		GravityScale:    h.gravityScale,
		RotationLocked:  h.rotationLocked,
		Fixtures:        h.fixtureFn,
	}
}

var _ Handler = (*SimulationHandler)(nil)
