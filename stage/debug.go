package stage

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/pistage/physics"
	"golang.org/x/image/colornames"
)

var jointColors = map[physics.JointKind]color.Color{
	physics.JointRevolute:  colornames.Blue,
	physics.JointRope:      colornames.Cyan,
	physics.JointDistance:  colornames.Orange,
	physics.JointPrismatic: colornames.Green,
}

// RenderDebug outlines every body, draws joints coloured by kind and
// prints body counts.
func (s *Scene) RenderDebug(c *Canvas, w, h float64) {
	if c == nil || c.Target == nil {
		return
	}
	v := s.camera.View()
	bodies := 0
	for i, l := range s.Layers() {
		if !l.Visible() {
			continue
		}
		g, ppm := l.Transform(v, w, h)
		g.Concat(c.GeoM)
		l.world.DebugDraw(c.Target, g, ppm)

		for _, j := range l.world.Joints() {
			clr, ok := jointColors[j.Kind]
			if !ok {
				clr = colornames.White
			}
			ax, ay := g.Apply(j.A.X*ppm, -j.A.Y*ppm)
			bx, by := g.Apply(j.B.X*ppm, -j.B.Y*ppm)
			vector.StrokeLine(c.Target, float32(ax), float32(ay), float32(bx), float32(by), 2, clr, true)
			vector.FillCircle(c.Target, float32(ax), float32(ay), 3, clr, true)
			vector.FillCircle(c.Target, float32(bx), float32(by), 3, clr, true)
		}

		n := l.world.BodyCount()
		bodies += n
		ebitenutil.DebugPrintAt(c.Target, fmt.Sprintf("layer %d %q order=%d bodies=%d", i, l.name, l.Order(), n), 4, 20+14*i)
	}
	focus := v.Focus
	ebitenutil.DebugPrintAt(c.Target, fmt.Sprintf("bodies=%d focus=(%.2f, %.2f) zoom=%.1f", bodies, focus.X, focus.Y, v.Zoom), 4, 4)
}
