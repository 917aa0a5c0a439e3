package prefabs

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/milk9111/pistage/geom"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// ParseSceneSpec decodes a scene description from YAML.
func ParseSceneSpec(data []byte) (SceneSpec, error) {
	var spec SceneSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return SceneSpec{}, fmt.Errorf("prefabs: unmarshal scene: %w", err)
	}
	return spec, nil
}

// SceneSpec describes a whole scene. Actors without a layer go to the
// main layer.
type SceneSpec struct {
	Name       string      `yaml:"name"`
	Background *YAMLColor  `yaml:"background"`
	Gravity    *VectorSpec `yaml:"gravity"`
	Camera     CameraSpec  `yaml:"camera"`
	Layers     []LayerSpec `yaml:"layers"`
	Actors     []ActorSpec `yaml:"actors"`
	Joints     []JointSpec `yaml:"joints"`
}

type VectorSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (v VectorSpec) Vector() geom.Vector {
	return geom.Vec(v.X, v.Y)
}

type BoundsSpec struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type CameraSpec struct {
	Focus    VectorSpec  `yaml:"focus"`
	Zoom     float64     `yaml:"zoom"`
	Rotation float64     `yaml:"rotation"`
	Follow   string      `yaml:"follow"`
	Offset   VectorSpec  `yaml:"offset"`
	Bounds   *BoundsSpec `yaml:"bounds"`
}

type ParallaxSpec struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Zoom     float64 `yaml:"zoom"`
	Rotation float64 `yaml:"rotation"`
}

type LayerSpec struct {
	Name           string        `yaml:"name"`
	Order          int           `yaml:"order"`
	Parallax       *ParallaxSpec `yaml:"parallax"`
	TimeDistortion float64       `yaml:"time_distortion"`
	Gravity        *VectorSpec   `yaml:"gravity"`
	Hidden         bool          `yaml:"hidden"`
}

type ActorSpec struct {
	Name            string        `yaml:"name"`
	Kind            string        `yaml:"kind"`
	Layer           string        `yaml:"layer"`
	LayerPosition   *int          `yaml:"layer_position"`
	Hidden          bool          `yaml:"hidden"`
	Opacity         *float64      `yaml:"opacity"`
	Body            string        `yaml:"body"`
	Position        VectorSpec    `yaml:"position"`
	Rotation        float64       `yaml:"rotation"`
	Velocity        VectorSpec    `yaml:"velocity"`
	AngularVelocity float64       `yaml:"angular_velocity"`
	Density         *float64      `yaml:"density"`
	Friction        *float64      `yaml:"friction"`
	Restitution     *float64      `yaml:"restitution"`
	LinearDamping   float64       `yaml:"linear_damping"`
	AngularDamping  float64       `yaml:"angular_damping"`
	GravityScale    *float64      `yaml:"gravity_scale"`
	RotationLocked  bool          `yaml:"rotation_locked"`
	Fixtures        []FixtureSpec `yaml:"fixtures"`
	Color           *YAMLColor    `yaml:"color"`
	Outline         *YAMLColor    `yaml:"outline"`
	Script          string        `yaml:"script"`
}

// FixtureSpec is one shape. Shape is one of box, rect, circle, polygon or
// segment; the other fields are read according to it.
type FixtureSpec struct {
	Shape  string       `yaml:"shape"`
	X      float64      `yaml:"x"`
	Y      float64      `yaml:"y"`
	Width  float64      `yaml:"width"`
	Height float64      `yaml:"height"`
	Radius float64      `yaml:"radius"`
	Points []VectorSpec `yaml:"points"`
	A      VectorSpec   `yaml:"a"`
	B      VectorSpec   `yaml:"b"`
	Sensor bool         `yaml:"sensor"`
}

type JointSpec struct {
	Kind             string     `yaml:"kind"`
	A                string     `yaml:"a"`
	B                string     `yaml:"b"`
	AnchorA          VectorSpec `yaml:"anchor_a"`
	AnchorB          VectorSpec `yaml:"anchor_b"`
	Length           float64    `yaml:"length"`
	Axis             VectorSpec `yaml:"axis"`
	CollideConnected bool       `yaml:"collide_connected"`
}

// YAMLColor accepts "#rrggbb", "#rrggbbaa" or an SVG colour name.
type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	if named, ok := colornames.Map[strings.ToLower(strings.TrimSpace(value.Value))]; ok {
		c.Color = named
		return nil
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
