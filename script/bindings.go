package script

import (
	"log"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/milk9111/pistage/geom"
	"github.com/milk9111/pistage/stage"
)

// actorObject exposes a to scripts as an immutable map of functions.
func actorObject(a *stage.Actor, state *tengo.Map, scriptName string) *tengo.ImmutableMap {
	values := map[string]tengo.Object{
		"id":    &tengo.Int{Value: int64(a.ID())},
		"name":  &tengo.String{Value: a.Name()},
		"kind":  &tengo.String{Value: a.Kind()},
		"state": state,
	}

	values["position"] = &tengo.UserFunction{Name: "position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return vectorObject(a.Position()), nil
	}}
	values["set_position"] = vectorSetter("set_position", a.SetPosition)
	values["move_by"] = vectorSetter("move_by", a.MoveBy)
	values["velocity"] = &tengo.UserFunction{Name: "velocity", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return vectorObject(a.Velocity()), nil
	}}
	values["set_velocity"] = vectorSetter("set_velocity", a.SetVelocity)
	values["apply_impulse"] = vectorSetter("apply_impulse", a.ApplyImpulse)
	values["apply_force"] = vectorSetter("apply_force", a.ApplyForce)

	values["rotation"] = &tengo.UserFunction{Name: "rotation", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: a.Rotation()}, nil
	}}
	values["rotate_by"] = &tengo.UserFunction{Name: "rotate_by", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		deg, ok := objectAsFloat(args[0])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "degrees", Expected: "float", Found: args[0].TypeName()}
		}
		a.RotateBy(deg)
		return tengo.UndefinedValue, nil
	}}

	values["mounted"] = &tengo.UserFunction{Name: "mounted", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if a.IsMounted() {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}
	values["collisions"] = &tengo.UserFunction{Name: "collisions", Value: func(args ...tengo.Object) (tengo.Object, error) {
		others := a.Collisions()
		out := make([]tengo.Object, 0, len(others))
		for _, o := range others {
			out = append(out, &tengo.String{Value: o.Name()})
		}
		return &tengo.Array{Value: out}, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, arg := range args {
			parts = append(parts, objectAsString(arg))
		}
		log.Printf("Script: actor=%d script=%q %s", a.ID(), scriptName, strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func vectorSetter(name string, set func(geom.Vector)) *tengo.UserFunction {
	return &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		x, ok := objectAsFloat(args[0])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "x", Expected: "float", Found: args[0].TypeName()}
		}
		y, ok := objectAsFloat(args[1])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "y", Expected: "float", Found: args[1].TypeName()}
		}
		set(geom.Vec(x, y))
		return tengo.UndefinedValue, nil
	}}
}

func vectorObject(v geom.Vector) *tengo.Array {
	return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: v.X}, &tengo.Float{Value: v.Y}}}
}

func objectAsFloat(obj tengo.Object) (float64, bool) {
	switch v := obj.(type) {
	case *tengo.Float:
		return v.Value, true
	case *tengo.Int:
		return float64(v.Value), true
	}
	return 0, false
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
