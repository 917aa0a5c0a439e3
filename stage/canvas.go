package stage

import "github.com/hajimehoshi/ebiten/v2"

// Canvas is a render target with the transform and colour scale already
// set up for whatever is being drawn. For an actor, GeoM maps body-local
// pixels (x right, y down, origin at the body origin) to the screen.
type Canvas struct {
	Target     *ebiten.Image
	GeoM       ebiten.GeoM
	ColorScale ebiten.ColorScale
}

// DrawImageOptions returns options carrying the canvas transform and
// colour scale.
func (c *Canvas) DrawImageOptions() *ebiten.DrawImageOptions {
	op := &ebiten.DrawImageOptions{}
	op.GeoM = c.GeoM
	op.ColorScale = c.ColorScale
	return op
}

// Apply maps a local pixel coordinate to screen space.
func (c *Canvas) Apply(x, y float64) (float64, float64) {
	return c.GeoM.Apply(x, y)
}

// Drawer draws an actor. pixelsPerMeter converts body meters to local pixels.
type Drawer interface {
	Draw(c *Canvas, pixelsPerMeter float64)
}

type DrawFunc func(c *Canvas, pixelsPerMeter float64)

func (f DrawFunc) Draw(c *Canvas, pixelsPerMeter float64) {
	f(c, pixelsPerMeter)
}
