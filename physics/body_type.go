package physics

import (
	"fmt"
	"strings"

	"github.com/jakecoffman/cp"
)

// BodyType decides how a body takes part in the simulation.
type BodyType int

const (
	// Static bodies never move and collide with everything but other statics.
	Static BodyType = iota
	// Dynamic bodies are fully simulated.
	Dynamic
	// Kinematic bodies move with their velocity and ignore forces.
	Kinematic
	// Sensor bodies move like dynamic ones but only report contacts.
	Sensor
	// Particle bodies are dynamic but only collide with static and kinematic bodies.
	Particle
)

var bodyTypeNames = [...]string{
	Static:    "static",
	Dynamic:   "dynamic",
	Kinematic: "kinematic",
	Sensor:    "sensor",
	Particle:  "particle",
}

func (t BodyType) String() string {
	if t < 0 || int(t) >= len(bodyTypeNames) {
		return fmt.Sprintf("BodyType(%d)", int(t))
	}
	return bodyTypeNames[t]
}

// ParseBodyType maps a name such as "dynamic" to its BodyType.
func ParseBodyType(name string) (BodyType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range bodyTypeNames {
		if s == n {
			return BodyType(i), nil
		}
	}
	return 0, fmt.Errorf("physics: unknown body type %q", name)
}

// Simulated reports whether forces and gravity act on the body type.
func (t BodyType) Simulated() bool {
	return t == Dynamic || t == Sensor || t == Particle
}

func (t BodyType) cpType() int {
	switch t {
	case Static:
		return cp.BODY_STATIC
	case Kinematic:
		return cp.BODY_KINEMATIC
	default:
		return cp.BODY_DYNAMIC
	}
}

const (
	categoryStatic uint = 1 << iota
	categoryKinematic
	categoryDynamic
	categorySensor
	categoryParticle
)

func (t BodyType) filter() cp.ShapeFilter {
	all := cp.ALL_CATEGORIES
	switch t {
	case Static:
		return cp.ShapeFilter{Group: cp.NO_GROUP, Categories: categoryStatic, Mask: all}
	case Kinematic:
		return cp.ShapeFilter{Group: cp.NO_GROUP, Categories: categoryKinematic, Mask: all}
	case Sensor:
		return cp.ShapeFilter{Group: cp.NO_GROUP, Categories: categorySensor, Mask: all}
	case Particle:
		return cp.ShapeFilter{Group: cp.NO_GROUP, Categories: categoryParticle, Mask: categoryStatic | categoryKinematic}
	default:
		return cp.ShapeFilter{Group: cp.NO_GROUP, Categories: categoryDynamic, Mask: all}
	}
}
