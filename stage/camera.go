package stage

import (
	"fmt"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/pistage/common"
	"github.com/milk9111/pistage/geom"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// View is the camera state used to render one frame.
type View struct {
	Focus    geom.Vector
	Zoom     float64
	Rotation float64
}

// Camera decides which part of the world is shown. Zoom is in pixels per
// meter, rotation in degrees.
type Camera struct {
	mu        sync.RWMutex
	focus     geom.Vector
	offset    geom.Vector
	zoom      float64
	rotation  float64
	bounds    geom.Bounds
	hasBounds bool
	follow    *Actor
	scroll    *scrollAnim
}

type scrollAnim struct {
	x, y *gween.Tween
}

func NewCamera() *Camera {
	return &Camera{zoom: common.DefaultZoom}
}

// Focus returns the manually set focus point.
func (c *Camera) Focus() geom.Vector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.focus
}

// SetFocus moves the camera to p and stops following and scrolling.
func (c *Camera) SetFocus(p geom.Vector) {
	if !p.IsValid() {
		return
	}
	c.mu.Lock()
	c.focus = p
	c.follow = nil
	c.scroll = nil
	c.mu.Unlock()
}

func (c *Camera) MoveBy(d geom.Vector) {
	if !d.IsValid() {
		return
	}
	c.mu.Lock()
	c.focus = c.focus.Add(d)
	c.mu.Unlock()
}

// Follow keeps the camera centred on a's centre until Unfollow or SetFocus.
func (c *Camera) Follow(a *Actor) {
	c.mu.Lock()
	c.follow = a
	c.scroll = nil
	c.mu.Unlock()
}

func (c *Camera) Unfollow() {
	c.mu.Lock()
	c.follow = nil
	c.mu.Unlock()
}

func (c *Camera) Following() *Actor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.follow
}

func (c *Camera) Offset() geom.Vector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// SetOffset shifts the focus by o before bounds are applied.
func (c *Camera) SetOffset(o geom.Vector) {
	if !o.IsValid() {
		return
	}
	c.mu.Lock()
	c.offset = o
	c.mu.Unlock()
}

// SetBounds keeps the effective focus inside b.
func (c *Camera) SetBounds(b geom.Bounds) {
	c.mu.Lock()
	c.bounds = b
	c.hasBounds = true
	c.mu.Unlock()
}

func (c *Camera) ClearBounds() {
	c.mu.Lock()
	c.hasBounds = false
	c.mu.Unlock()
}

func (c *Camera) Bounds() (geom.Bounds, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bounds, c.hasBounds
}

func (c *Camera) Zoom() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zoom
}

// SetZoom sets pixels per meter. z must be positive.
func (c *Camera) SetZoom(z float64) error {
	if !(z > 0) || math.IsInf(z, 0) {
		return fmt.Errorf("%w: zoom %v", ErrIllegalArgument, z)
	}
	c.mu.Lock()
	c.zoom = z
	c.mu.Unlock()
	return nil
}

// ZoomIn multiplies the zoom by 1+f.
func (c *Camera) ZoomIn(f float64) error {
	return c.scaleZoom(1 + f)
}

// ZoomOut multiplies the zoom by 1-f.
func (c *Camera) ZoomOut(f float64) error {
	return c.scaleZoom(1 - f)
}

func (c *Camera) scaleZoom(factor float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	z := c.zoom * factor
	if !(z > 0) || math.IsInf(z, 0) {
		return fmt.Errorf("%w: zoom %v", ErrIllegalArgument, z)
	}
	c.zoom = z
	return nil
}

func (c *Camera) Rotation() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rotation
}

func (c *Camera) RotateBy(deg float64) {
	if !common.Finite(deg) {
		return
	}
	c.mu.Lock()
	c.rotation = common.WrapDegrees(c.rotation + deg)
	c.mu.Unlock()
}

func (c *Camera) RotateTo(deg float64) {
	if !common.Finite(deg) {
		return
	}
	c.mu.Lock()
	c.rotation = common.WrapDegrees(deg)
	c.mu.Unlock()
}

// ScrollTo animates the focus to target over duration seconds. It stops
// following any actor.
func (c *Camera) ScrollTo(target geom.Vector, duration float32, easeFn ease.TweenFunc) {
	if !target.IsValid() {
		return
	}
	if easeFn == nil {
		easeFn = ease.Linear
	}
	c.mu.Lock()
	c.follow = nil
	c.scroll = &scrollAnim{
		x: gween.New(float32(c.focus.X), float32(target.X), duration, easeFn),
		y: gween.New(float32(c.focus.Y), float32(target.Y), duration, easeFn),
	}
	c.mu.Unlock()
}

// Scrolling reports whether a ScrollTo animation is running.
func (c *Camera) Scrolling() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scroll != nil
}

// Update advances a running scroll animation.
func (c *Camera) Update(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scroll == nil {
		return
	}
	x, doneX := c.scroll.x.Update(float32(dt))
	y, doneY := c.scroll.y.Update(float32(dt))
	c.focus = geom.Vec(float64(x), float64(y))
	if doneX && doneY {
		c.scroll = nil
	}
}

// EffectiveFocus is the followed actor's centre (or the manual focus)
// plus the offset, clamped per axis into the bounds.
func (c *Camera) EffectiveFocus() geom.Vector {
	c.mu.RLock()
	focus, offset, follow := c.focus, c.offset, c.follow
	bounds, hasBounds := c.bounds, c.hasBounds
	c.mu.RUnlock()

	if follow != nil {
		focus = follow.Center()
	}
	focus = focus.Add(offset)
	if hasBounds {
		focus = bounds.ClampPoint(focus)
	}
	return focus
}

// View snapshots the camera for one frame.
func (c *Camera) View() View {
	f := c.EffectiveFocus()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return View{Focus: f, Zoom: c.zoom, Rotation: c.rotation}
}

// WorldToScreen maps p to screen pixels on a w×h frame without any
// parallax.
func (c *Camera) WorldToScreen(p geom.Vector, w, h float64) geom.Vector {
	v := c.View()
	d := p.Sub(v.Focus).Scale(v.Zoom)
	var g ebiten.GeoM
	g.Rotate(-common.DegToRad(v.Rotation))
	x, y := g.Apply(d.X, -d.Y)
	return geom.Vec(w/2+x, h/2+y)
}
