package physics

import (
	"sync"

	"github.com/milk9111/pistage/common"
	"github.com/milk9111/pistage/geom"
)

// InertHandler stores physics state for an actor that is not part of any
// world. Nothing moves on its own; forces and torque are dropped, impulses
// change the stored velocity.
type InertHandler struct {
	mu   sync.RWMutex
	data Data
}

func NewInertHandler(d Data) *InertHandler {
	return &InertHandler{data: d}
}

func (h *InertHandler) read(fn func(d *Data)) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn(&h.data)
}

func (h *InertHandler) write(fn func(d *Data)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.data)
}

func (h *InertHandler) Position() (p geom.Vector) {
	h.read(func(d *Data) { p = d.Position })
	return p
}

func (h *InertHandler) SetPosition(p geom.Vector) {
	if !p.IsValid() {
		return
	}
	h.write(func(d *Data) { d.Position = p })
}

func (h *InertHandler) MoveBy(delta geom.Vector) {
	if !delta.IsValid() {
		return
	}
	h.write(func(d *Data) { d.Position = d.Position.Add(delta) })
}

func (h *InertHandler) Bounds() (b geom.Bounds) {
	h.read(func(d *Data) { b = fixturesBounds(d.fixtures(), d.Position, d.Rotation) })
	return b
}

func (h *InertHandler) Center() geom.Vector {
	return h.Bounds().Center()
}

func (h *InertHandler) Contains(p geom.Vector) (ok bool) {
	h.read(func(d *Data) { ok = fixturesContain(d.fixtures(), d.Position, d.Rotation, p) })
	return ok
}

func (h *InertHandler) Rotation() (r float64) {
	h.read(func(d *Data) { r = d.Rotation })
	return r
}

func (h *InertHandler) SetRotation(deg float64) {
	if !common.Finite(deg) {
		return
	}
	h.write(func(d *Data) { d.Rotation = deg })
}

func (h *InertHandler) RotateBy(deg float64) {
	if !common.Finite(deg) {
		return
	}
	h.write(func(d *Data) { d.Rotation += deg })
}

func (h *InertHandler) Velocity() (v geom.Vector) {
	h.read(func(d *Data) { v = d.Velocity })
	return v
}

func (h *InertHandler) SetVelocity(v geom.Vector) {
	if !v.IsValid() {
		return
	}
	h.write(func(d *Data) { d.Velocity = v })
}

func (h *InertHandler) AngularVelocity() (w float64) {
	h.read(func(d *Data) { w = d.AngularVelocity })
	return w
}

func (h *InertHandler) SetAngularVelocity(w float64) {
	if !common.Finite(w) {
		return
	}
	h.write(func(d *Data) { d.AngularVelocity = w })
}

func (h *InertHandler) ApplyForce(geom.Vector)               {}
func (h *InertHandler) ApplyForceAt(geom.Vector, geom.Vector) {}
func (h *InertHandler) ApplyTorque(float64)                  {}

func (h *InertHandler) ApplyImpulse(j geom.Vector) {
	if !j.IsValid() {
		return
	}
	h.write(func(d *Data) {
		if !d.BodyType.Simulated() {
			return
		}
		m := fixturesMass(d.fixtures(), d.Density)
		if m <= 0 {
			m = 1
		}
		d.Velocity = d.Velocity.Add(j.Scale(1 / m))
	})
}

func (h *InertHandler) ApplyImpulseAt(j, _ geom.Vector) {
	h.ApplyImpulse(j)
}

func (h *InertHandler) ResetMovement() {
	h.write(func(d *Data) {
		d.Velocity = geom.Zero
		d.AngularVelocity = 0
	})
}

func (h *InertHandler) BodyType() (t BodyType) {
	h.read(func(d *Data) { t = d.BodyType })
	return t
}

func (h *InertHandler) SetBodyType(t BodyType) {
	h.write(func(d *Data) { d.BodyType = t })
}

func (h *InertHandler) Density() (v float64) {
	h.read(func(d *Data) { v = d.Density })
	return v
}

func (h *InertHandler) SetDensity(v float64) {
	if !common.Finite(v) || v < 0 {
		return
	}
	h.write(func(d *Data) { d.Density = v })
}

func (h *InertHandler) Friction() (v float64) {
	h.read(func(d *Data) { v = d.Friction })
	return v
}

func (h *InertHandler) SetFriction(v float64) {
	if !common.Finite(v) || v < 0 {
		return
	}
	h.write(func(d *Data) { d.Friction = v })
}

func (h *InertHandler) Restitution() (v float64) {
	h.read(func(d *Data) { v = d.Restitution })
	return v
}

func (h *InertHandler) SetRestitution(v float64) {
	if !common.Finite(v) || v < 0 {
		return
	}
	h.write(func(d *Data) { d.Restitution = v })
}

func (h *InertHandler) LinearDamping() (v float64) {
	h.read(func(d *Data) { v = d.LinearDamping })
	return v
}

func (h *InertHandler) SetLinearDamping(v float64) {
	if !common.Finite(v) || v < 0 {
		return
	}
	h.write(func(d *Data) { d.LinearDamping = v })
}

func (h *InertHandler) AngularDamping() (v float64) {
	h.read(func(d *Data) { v = d.AngularDamping })
	return v
}

func (h *InertHandler) SetAngularDamping(v float64) {
	if !common.Finite(v) || v < 0 {
		return
	}
	h.write(func(d *Data) { d.AngularDamping = v })
}

func (h *InertHandler) GravityScale() (v float64) {
	h.read(func(d *Data) { v = d.GravityScale })
	return v
}

func (h *InertHandler) SetGravityScale(v float64) {
	if !common.Finite(v) {
		return
	}
	h.write(func(d *Data) { d.GravityScale = v })
}

func (h *InertHandler) RotationLocked() (v bool) {
	h.read(func(d *Data) { v = d.RotationLocked })
	return v
}

func (h *InertHandler) SetRotationLocked(locked bool) {
	h.write(func(d *Data) { d.RotationLocked = locked })
}

func (h *InertHandler) Mass() (m float64) {
	h.read(func(d *Data) { m = fixturesMass(d.fixtures(), d.Density) })
	return m
}

func (h *InertHandler) Fixtures() (fs []Fixture) {
	h.read(func(d *Data) { fs = d.fixtures() })
	return fs
}

func (h *InertHandler) SetFixtures(fn FixtureFunc) {
	h.write(func(d *Data) { d.Fixtures = fn })
}

func (h *InertHandler) Data() (out Data) {
	h.read(func(d *Data) { out = *d })
	return out
}

var _ Handler = (*InertHandler)(nil)
