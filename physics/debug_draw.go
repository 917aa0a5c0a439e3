package physics

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"golang.org/x/image/colornames"
)

var bodyTypeColors = map[BodyType]color.RGBA{
	Static:    colornames.Steelblue,
	Kinematic: colornames.Limegreen,
	Dynamic:   colornames.Orchid,
	Sensor:    colornames.Gold,
	Particle:  colornames.Coral,
}

// BodyTypeColor is the outline DebugDraw uses for bodies of type t.
func BodyTypeColor(t BodyType) color.RGBA {
	if c, ok := bodyTypeColors[t]; ok {
		return c
	}
	return colornames.White
}

// DebugDraw outlines every shape of the world. toScreen maps world pixels
// (meters × ppm, y flipped) to the screen.
func (w *World) DebugDraw(screen *ebiten.Image, toScreen ebiten.GeoM, ppm float64) {
	if w == nil || screen == nil || ppm <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	cp.DrawSpace(w.space, &spaceDrawer{world: w, screen: screen, geoM: toScreen, ppm: ppm})
}

type spaceDrawer struct {
	world  *World
	screen *ebiten.Image
	geoM   ebiten.GeoM
	ppm    float64
}

func (d *spaceDrawer) project(v cp.Vector) (float32, float32) {
	x, y := d.geoM.Apply(v.X*d.ppm, -v.Y*d.ppm)
	return float32(x), float32(y)
}

func (d *spaceDrawer) stroke(c cp.FColor, pts ...cp.Vector) {
	clr := toRGBA(c)
	for i := 1; i < len(pts); i++ {
		ax, ay := d.project(pts[i-1])
		bx, by := d.project(pts[i])
		vector.StrokeLine(d.screen, ax, ay, bx, by, 1, clr, true)
	}
}

// Shapes are stroked in the fill colour, which cp takes from ShapeColor.

// DrawCircle outlines the circle and marks its angle with a spoke.
func (d *spaceDrawer) DrawCircle(pos cp.Vector, angle, radius float64, _, fill cp.FColor, _ interface{}) {
	const steps = 24
	ring := make([]cp.Vector, 0, steps+1)
	for i := 0; i <= steps; i++ {
		th := angle + float64(i)*2*math.Pi/steps
		ring = append(ring, pos.Add(cp.ForAngle(th).Mult(radius)))
	}
	d.stroke(fill, ring...)
	d.stroke(fill, pos, ring[0])
}

func (d *spaceDrawer) DrawSegment(a, b cp.Vector, fill cp.FColor, _ interface{}) {
	d.stroke(fill, a, b)
}

func (d *spaceDrawer) DrawFatSegment(a, b cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	if radius <= 0 {
		d.stroke(fill, a, b)
		return
	}
	n := b.Sub(a).Perp().Normalize().Mult(radius)
	d.stroke(fill, a.Add(n), b.Add(n))
	d.stroke(fill, a.Sub(n), b.Sub(n))
	d.DrawCircle(a, 0, radius, outline, fill, data)
	d.DrawCircle(b, 0, radius, outline, fill, data)
}

func (d *spaceDrawer) DrawPolygon(count int, verts []cp.Vector, _ float64, _, fill cp.FColor, _ interface{}) {
	if count < 2 {
		return
	}
	loop := append(append([]cp.Vector(nil), verts[:count]...), verts[0])
	d.stroke(fill, loop...)
}

// DrawDot marks a contact point with a small filled disc.
func (d *spaceDrawer) DrawDot(size float64, pos cp.Vector, fill cp.FColor, _ interface{}) {
	x, y := d.project(pos)
	vector.FillCircle(d.screen, x, y, float32(size/2), toRGBA(fill), true)
}

func (d *spaceDrawer) Flags() uint {
	return cp.DRAW_SHAPES | cp.DRAW_COLLISION_POINTS
}

func (d *spaceDrawer) OutlineColor() cp.FColor {
	return toFColor(colornames.White)
}

// ShapeColor picks the body type colour. Sensor fixtures on other body
// types are drawn like sensors. The world lock is held by DebugDraw.
func (d *spaceDrawer) ShapeColor(shape *cp.Shape, _ interface{}) cp.FColor {
	id, ok := shapeID(shape)
	if !ok {
		return toFColor(colornames.White)
	}
	if shape.Sensor() {
		return toFColor(BodyTypeColor(Sensor))
	}
	h, ok := d.world.handlers[id]
	if !ok {
		return toFColor(colornames.White)
	}
	return toFColor(BodyTypeColor(h.bodyType))
}

func (d *spaceDrawer) ConstraintColor() cp.FColor {
	return toFColor(colornames.Silver)
}

func (d *spaceDrawer) CollisionPointColor() cp.FColor {
	return toFColor(colornames.Red)
}

func (d *spaceDrawer) Data() interface{} {
	return nil
}

func toFColor(c color.RGBA) cp.FColor {
	return cp.FColor{R: float32(c.R) / 255, G: float32(c.G) / 255, B: float32(c.B) / 255, A: float32(c.A) / 255}
}

func toRGBA(c cp.FColor) color.RGBA {
	channel := func(v float32) uint8 {
		return uint8(math.Round(float64(min(max(v, 0), 1)) * 255))
	}
	return color.RGBA{R: channel(c.R), G: channel(c.G), B: channel(c.B), A: channel(c.A)}
}
