package prefabs

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/pistage/geom"
	"github.com/milk9111/pistage/physics"
	"github.com/milk9111/pistage/stage"
)

var (
	whiteOnce     sync.Once
	whiteSubImage *ebiten.Image
)

func white() *ebiten.Image {
	whiteOnce.Do(func() {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteSubImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	})
	return whiteSubImage
}

// ShapeDrawer fills and outlines an actor's fixtures.
type ShapeDrawer struct {
	Shapes  func() []physics.Fixture
	Fill    color.Color
	Outline color.Color
}

func (d *ShapeDrawer) Draw(c *stage.Canvas, ppm float64) {
	if c == nil || c.Target == nil || d.Shapes == nil {
		return
	}
	fill := tint(d.Fill, c.ColorScale)
	outline := tint(d.Outline, c.ColorScale)

	for _, f := range d.Shapes() {
		switch f.Kind {
		case physics.ShapeCircle:
			x, y := project(c, f.Center, ppm)
			r := float32(f.Radius * ppm)
			if fill != nil {
				vector.FillCircle(c.Target, x, y, r, fill, true)
			}
			if outline != nil {
				vector.StrokeCircle(c.Target, x, y, r, 1, outline, true)
			}
		case physics.ShapePolygon:
			if len(f.Points) < 3 {
				continue
			}
			pts := make([][2]float32, len(f.Points))
			var path vector.Path
			for i, p := range f.Points {
				x, y := project(c, p, ppm)
				pts[i] = [2]float32{x, y}
				if i == 0 {
					path.MoveTo(x, y)
				} else {
					path.LineTo(x, y)
				}
			}
			path.Close()
			if fill != nil {
				fillPath(c.Target, &path, fill)
			}
			if outline != nil {
				for i := range pts {
					a, b := pts[i], pts[(i+1)%len(pts)]
					vector.StrokeLine(c.Target, a[0], a[1], b[0], b[1], 1, outline, true)
				}
			}
		case physics.ShapeSegment:
			clr := outline
			if clr == nil {
				clr = fill
			}
			if clr == nil {
				continue
			}
			ax, ay := project(c, f.A, ppm)
			bx, by := project(c, f.B, ppm)
			w := float32(math.Max(1, 2*f.Radius*ppm))
			vector.StrokeLine(c.Target, ax, ay, bx, by, w, clr, true)
		}
	}
}

// project maps a body-local point in meters to screen pixels.
func project(c *stage.Canvas, p geom.Vector, ppm float64) (float32, float32) {
	x, y := c.Apply(p.X*ppm, -p.Y*ppm)
	return float32(x), float32(y)
}

func fillPath(dst *ebiten.Image, path *vector.Path, clr color.Color) {
	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	r, g, b, a := clr.RGBA()
	for i := range vs {
		vs[i].SrcX = 1
		vs[i].SrcY = 1
		vs[i].ColorR = float32(r) / 0xffff
		vs[i].ColorG = float32(g) / 0xffff
		vs[i].ColorB = float32(b) / 0xffff
		vs[i].ColorA = float32(a) / 0xffff
	}
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true, ColorScaleMode: ebiten.ColorScaleModePremultipliedAlpha}
	dst.DrawTriangles(vs, is, white(), op)
}

// tint applies a canvas colour scale to clr. nil stays nil.
func tint(clr color.Color, cs ebiten.ColorScale) color.Color {
	if clr == nil {
		return nil
	}
	r, g, b, a := clr.RGBA()
	scale := func(v uint32, f float32) uint16 {
		return uint16(math.Min(0xffff, float64(v)*float64(f)))
	}
	return color.RGBA64{R: scale(r, cs.R()), G: scale(g, cs.G()), B: scale(b, cs.B()), A: scale(a, cs.A())}
}
