package stage

import (
	"math"
	"testing"

	"github.com/milk9111/pistage/geom"
	"github.com/milk9111/pistage/physics"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func approxVec(a, b geom.Vector, eps float64) bool {
	return approxEqual(a.X, b.X, eps) && approxEqual(a.Y, b.Y, eps)
}

func newTestLayer(t *testing.T, name string) *Layer {
	t.Helper()
	cfg := DefaultLayerConfig()
	cfg.Name = name
	l, err := NewLayer(cfg)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	return l
}

func newTestActor(name string, pos geom.Vector) *Actor {
	cfg := DefaultActorConfig()
	cfg.Name = name
	cfg.Physics.Position = pos
	cfg.Physics.Fixtures = physics.Fixtures(physics.Circle(geom.Zero, 0.5))
	return NewActor(cfg)
}

func mustFlush(t *testing.T, l *Layer) {
	t.Helper()
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

// recorder logs draw calls and the screen position of the body origin.
type recorder struct {
	name   string
	calls  *[]string
	origin geom.Vector
	ppm    float64
}

func (r *recorder) Draw(c *Canvas, ppm float64) {
	*r.calls = append(*r.calls, r.name)
	x, y := c.Apply(0, 0)
	r.origin = geom.Vec(x, y)
	r.ppm = ppm
}
