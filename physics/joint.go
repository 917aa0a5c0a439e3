package physics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/pistage/geom"
)

var ErrInvalidJoint = errors.New("physics: invalid joint")

// JointKind selects the constraint connecting two bodies.
type JointKind int

const (
	// JointRevolute pins both anchors to one point, letting the bodies spin.
	JointRevolute JointKind = iota
	// JointDistance keeps the anchors at their current distance.
	JointDistance
	// JointRope keeps the anchors at most Length apart.
	JointRope
	// JointPrismatic lets B's anchor slide along a groove fixed to A.
	JointPrismatic
)

func (k JointKind) String() string {
	switch k {
	case JointRevolute:
		return "revolute"
	case JointDistance:
		return "distance"
	case JointRope:
		return "rope"
	case JointPrismatic:
		return "prismatic"
	}
	return fmt.Sprintf("JointKind(%d)", int(k))
}

// ParseJointKind maps a name such as "rope" to its JointKind.
func ParseJointKind(name string) (JointKind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k := JointRevolute; k <= JointPrismatic; k++ {
		if k.String() == n {
			return k, nil
		}
	}
	return 0, fmt.Errorf("physics: unknown joint kind %q", name)
}

// JointSpec describes a joint. Anchors are body-local.
type JointSpec struct {
	Kind    JointKind
	AnchorA geom.Vector
	AnchorB geom.Vector
	// Length is the rope's maximum length.
	Length float64
	// Axis is the groove for prismatic joints, from AnchorA to AnchorA+Axis
	// in A's frame.
	Axis             geom.Vector
	CollideConnected bool
}

// Joint is a constraint between two bodies of the same world.
type Joint struct {
	world      *World
	spec       JointSpec
	a, b       uint64
	ha, hb     *SimulationHandler
	constraint *cp.Constraint
	removed    bool
}

// JointView is a snapshot of a joint's world-space anchors.
type JointView struct {
	Kind JointKind
	A, B geom.Vector
}

// Connect creates a joint between two bodies of w.
func (w *World) Connect(a, b *SimulationHandler, spec JointSpec) (*Joint, error) {
	if w == nil || a == nil || b == nil {
		return nil, ErrDetached
	}
	if a.world != w || b.world != w {
		return nil, ErrForeignWorld
	}
	if a == b {
		return nil, fmt.Errorf("%w: body %d joined to itself", ErrInvalidJoint, a.id)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if a.detached || b.detached {
		return nil, ErrDetached
	}

	ancA := cp.Vector{X: spec.AnchorA.X, Y: spec.AnchorA.Y}
	ancB := cp.Vector{X: spec.AnchorB.X, Y: spec.AnchorB.Y}
	var c *cp.Constraint
	switch spec.Kind {
	case JointRevolute:
		c = cp.NewPivotJoint2(a.body, b.body, ancA, ancB)
	case JointDistance:
		c = cp.NewPinJoint(a.body, b.body, ancA, ancB)
	case JointRope:
		if spec.Length <= 0 {
			return nil, fmt.Errorf("%w: rope length %v", ErrInvalidJoint, spec.Length)
		}
		c = cp.NewSlideJoint(a.body, b.body, ancA, ancB, 0, spec.Length)
	case JointPrismatic:
		if spec.Axis == geom.Zero {
			return nil, fmt.Errorf("%w: prismatic joint without axis", ErrInvalidJoint)
		}
		end := ancA.Add(cp.Vector{X: spec.Axis.X, Y: spec.Axis.Y})
		c = cp.NewGrooveJoint(a.body, b.body, ancA, end, ancB)
	default:
		return nil, fmt.Errorf("%w: kind %v", ErrInvalidJoint, spec.Kind)
	}
	c.SetCollideBodies(spec.CollideConnected)
	w.space.AddConstraint(c)

	j := &Joint{world: w, spec: spec, a: a.id, b: b.id, ha: a, hb: b, constraint: c}
	w.joints = append(w.joints, j)
	return j, nil
}

func (j *Joint) Kind() JointKind {
	return j.spec.Kind
}

// Bodies returns the IDs of the connected bodies.
func (j *Joint) Bodies() (uint64, uint64) {
	return j.a, j.b
}

// Active reports whether the joint is still part of its world.
func (j *Joint) Active() bool {
	if j == nil || j.world == nil {
		return false
	}
	j.world.mu.Lock()
	defer j.world.mu.Unlock()
	return !j.removed
}

// Remove deletes the joint. Removing twice is a no-op.
func (j *Joint) Remove() {
	if j == nil || j.world == nil {
		return
	}
	w := j.world
	w.mu.Lock()
	defer w.mu.Unlock()
	if j.removed {
		return
	}
	j.removeLocked()
	for i, other := range w.joints {
		if other == j {
			w.joints = append(w.joints[:i], w.joints[i+1:]...)
			break
		}
	}
}

func (j *Joint) removeLocked() {
	if j.removed {
		return
	}
	j.world.space.RemoveConstraint(j.constraint)
	j.removed = true
}

// Joints returns the world-space anchors of every joint.
func (w *World) Joints() []JointView {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]JointView, 0, len(w.joints))
	for _, j := range w.joints {
		out = append(out, JointView{
			Kind: j.spec.Kind,
			A:    j.spec.AnchorA.Rotate(j.ha.rotationDeg()).Add(j.ha.position()),
			B:    j.spec.AnchorB.Rotate(j.hb.rotationDeg()).Add(j.hb.position()),
		})
	}
	return out
}
