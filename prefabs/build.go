package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"strings"

	"github.com/milk9111/pistage/geom"
	"github.com/milk9111/pistage/physics"
	"github.com/milk9111/pistage/script"
	"github.com/milk9111/pistage/stage"
)

var ErrInvalidScene = errors.New("prefabs: invalid scene")

// Built is a scene created from a SceneSpec together with the named
// objects inside it.
type Built struct {
	Scene    *stage.Scene
	Actors   map[string]*stage.Actor
	Joints   []*stage.Joint
	Bindings []*script.Binding
}

// LoadScene reads and builds the scene file name.
func LoadScene(name string) (*Built, error) {
	spec, err := LoadSpec[SceneSpec](name)
	if err != nil {
		return nil, err
	}
	b, err := Build(spec)
	if err != nil {
		return nil, fmt.Errorf("prefabs: build %s: %w", name, err)
	}
	return b, nil
}

// Build creates the scene, mounts its actors and joints and binds scripts.
// The returned scene has no pending actions left.
func Build(spec SceneSpec) (built *Built, err error) {
	name := spec.Name
	if name == "" {
		name = "scene"
	}
	s := stage.NewScene(name)
	defer func() {
		if err != nil {
			s.Destroy()
			built = nil
		}
	}()

	if spec.Background != nil {
		s.SetBackground(spec.Background.Color)
	}
	if spec.Gravity != nil {
		s.SetGravity(spec.Gravity.Vector())
	}

	layers := map[string]*stage.Layer{"": s.MainLayer(), s.MainLayer().Name(): s.MainLayer()}
	for _, ls := range spec.Layers {
		if _, dup := layers[ls.Name]; dup || ls.Name == "" {
			return nil, fmt.Errorf("%w: layer name %q missing or used twice", ErrInvalidScene, ls.Name)
		}
		l, err := stage.NewLayer(layerConfig(ls))
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", ls.Name, err)
		}
		if err := s.AddLayer(l); err != nil {
			return nil, fmt.Errorf("layer %q: %w", ls.Name, err)
		}
		layers[ls.Name] = l
	}

	built = &Built{Scene: s, Actors: make(map[string]*stage.Actor)}
	actorLayers := make(map[string]*stage.Layer)
	behaviors := make(map[string]*script.Behavior)
	for _, as := range spec.Actors {
		if as.Name != "" {
			if _, dup := built.Actors[as.Name]; dup {
				return nil, fmt.Errorf("%w: actor %q defined twice", ErrInvalidScene, as.Name)
			}
		}
		l, ok := layers[as.Layer]
		if !ok {
			return nil, fmt.Errorf("%w: actor %q: unknown layer %q", ErrInvalidScene, as.Name, as.Layer)
		}
		a, err := buildActor(as)
		if err != nil {
			return nil, fmt.Errorf("actor %q: %w", as.Name, err)
		}
		if as.Script != "" {
			b, ok := behaviors[as.Script]
			if !ok {
				src, err := LoadScript(as.Script)
				if err != nil {
					return nil, fmt.Errorf("actor %q: load script: %w", as.Name, err)
				}
				if b, err = script.Compile(as.Script, src); err != nil {
					return nil, fmt.Errorf("actor %q: %w", as.Name, err)
				}
				behaviors[as.Script] = b
			}
			built.Bindings = append(built.Bindings, b.Attach(a))
		}
		l.Add(a)
		if as.Name != "" {
			built.Actors[as.Name] = a
			actorLayers[as.Name] = l
		}
	}

	for _, js := range spec.Joints {
		a, okA := built.Actors[js.A]
		b, okB := built.Actors[js.B]
		if !okA || !okB {
			return nil, fmt.Errorf("%w: joint %s-%s: unknown actor", ErrInvalidScene, js.A, js.B)
		}
		l := actorLayers[js.A]
		if actorLayers[js.B] != l {
			return nil, fmt.Errorf("%w: joint %s-%s: actors on different layers", ErrInvalidScene, js.A, js.B)
		}
		kind, err := physics.ParseJointKind(js.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
		}
		built.Joints = append(built.Joints, l.Join(a, b, physics.JointSpec{
			Kind:             kind,
			AnchorA:          js.AnchorA.Vector(),
			AnchorB:          js.AnchorB.Vector(),
			Length:           js.Length,
			Axis:             js.Axis.Vector(),
			CollideConnected: js.CollideConnected,
		}))
	}

	if err := setupCamera(s.Camera(), spec.Camera, built.Actors); err != nil {
		return nil, err
	}

	for _, l := range s.Layers() {
		if err := l.Flush(); err != nil {
			return nil, fmt.Errorf("layer %q: %w", l.Name(), err)
		}
	}

	log.Printf("Prefabs: built scene %q layers=%d actors=%d joints=%d scripts=%d",
		name, len(s.Layers()), len(spec.Actors), len(built.Joints), len(built.Bindings))
	return built, nil
}

func layerConfig(ls LayerSpec) stage.LayerConfig {
	cfg := stage.DefaultLayerConfig()
	cfg.Name = ls.Name
	cfg.Order = ls.Order
	cfg.Hidden = ls.Hidden
	if ls.Parallax != nil {
		cfg.Parallax = stage.Parallax{X: ls.Parallax.X, Y: ls.Parallax.Y, Zoom: ls.Parallax.Zoom, Rotation: ls.Parallax.Rotation}
	}
	if ls.TimeDistortion != 0 {
		cfg.TimeDistortion = ls.TimeDistortion
	}
	if ls.Gravity != nil {
		cfg.Gravity = ls.Gravity.Vector()
	}
	return cfg
}

func buildActor(as ActorSpec) (*stage.Actor, error) {
	cfg := stage.DefaultActorConfig()
	cfg.Name = as.Name
	cfg.Kind = as.Kind
	cfg.Hidden = as.Hidden
	if as.LayerPosition != nil {
		cfg.LayerPosition = *as.LayerPosition
	}
	if as.Opacity != nil {
		cfg.Opacity = *as.Opacity
	}

	d := cfg.Physics
	if as.Body != "" {
		bt, err := physics.ParseBodyType(as.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
		}
		d.BodyType = bt
	}
	d.Position = as.Position.Vector()
	d.Rotation = as.Rotation
	d.Velocity = as.Velocity.Vector()
	d.AngularVelocity = as.AngularVelocity
	if as.Density != nil {
		d.Density = *as.Density
	}
	if as.Friction != nil {
		d.Friction = *as.Friction
	}
	if as.Restitution != nil {
		d.Restitution = *as.Restitution
	}
	if as.GravityScale != nil {
		d.GravityScale = *as.GravityScale
	}
	d.LinearDamping = as.LinearDamping
	d.AngularDamping = as.AngularDamping
	d.RotationLocked = as.RotationLocked

	fixtures := make([]physics.Fixture, 0, len(as.Fixtures))
	for i, fs := range as.Fixtures {
		f, err := buildFixture(fs)
		if err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
		fixtures = append(fixtures, f)
	}
	d.Fixtures = physics.Fixtures(fixtures...)
	cfg.Physics = d

	a := stage.NewActor(cfg)
	if as.Color != nil || as.Outline != nil {
		var fill, outline color.Color
		if as.Color != nil {
			fill = as.Color.Color
		}
		if as.Outline != nil {
			outline = as.Outline.Color
		}
		a.SetDrawer(&ShapeDrawer{
			Shapes:  func() []physics.Fixture { return a.Handler().Fixtures() },
			Fill:    fill,
			Outline: outline,
		})
	}
	return a, nil
}

// buildFixture turns a FixtureSpec into a physics fixture. A box is
// centred on (x, y); a rect has its lower-left corner there.
func buildFixture(fs FixtureSpec) (physics.Fixture, error) {
	var f physics.Fixture
	switch strings.ToLower(fs.Shape) {
	case "box", "rect":
		if !(fs.Width > 0) || !(fs.Height > 0) {
			return f, fmt.Errorf("%w: %s size %vx%v", ErrInvalidScene, fs.Shape, fs.Width, fs.Height)
		}
		x, y := fs.X, fs.Y
		if strings.EqualFold(fs.Shape, "box") {
			x -= fs.Width / 2
			y -= fs.Height / 2
		}
		f = physics.Rect(x, y, fs.Width, fs.Height)
	case "circle":
		if !(fs.Radius > 0) {
			return f, fmt.Errorf("%w: circle radius %v", ErrInvalidScene, fs.Radius)
		}
		f = physics.Circle(geom.Vec(fs.X, fs.Y), fs.Radius)
	case "polygon":
		if len(fs.Points) < 3 {
			return f, fmt.Errorf("%w: polygon needs 3 points, got %d", ErrInvalidScene, len(fs.Points))
		}
		pts := make([]geom.Vector, len(fs.Points))
		for i, p := range fs.Points {
			pts[i] = p.Vector()
		}
		f = physics.Polygon(pts...)
	case "segment":
		f = physics.Segment(fs.A.Vector(), fs.B.Vector())
		f.Radius = fs.Radius
	default:
		return f, fmt.Errorf("%w: unknown shape %q", ErrInvalidScene, fs.Shape)
	}
	f.Sensor = fs.Sensor
	return f, nil
}

func setupCamera(c *stage.Camera, cs CameraSpec, actors map[string]*stage.Actor) error {
	if cs.Zoom != 0 {
		if err := c.SetZoom(cs.Zoom); err != nil {
			return fmt.Errorf("camera: %w", err)
		}
	}
	c.SetFocus(cs.Focus.Vector())
	c.RotateTo(cs.Rotation)
	c.SetOffset(cs.Offset.Vector())
	if cs.Bounds != nil {
		c.SetBounds(geom.NewBounds(cs.Bounds.X, cs.Bounds.Y, cs.Bounds.Width, cs.Bounds.Height))
	}
	if cs.Follow != "" {
		a, ok := actors[cs.Follow]
		if !ok {
			return fmt.Errorf("%w: camera follows unknown actor %q", ErrInvalidScene, cs.Follow)
		}
		c.Follow(a)
	}
	return nil
}
