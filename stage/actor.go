package stage

import (
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/pistage/common"
	"github.com/milk9111/pistage/geom"
	"github.com/milk9111/pistage/physics"
)

var nextActorID atomic.Uint64

// ActorConfig configures NewActor. Start from DefaultActorConfig.
type ActorConfig struct {
	Name string
	// Kind tags the actor for kind-filtered collision listeners.
	Kind          string
	LayerPosition int
	Hidden        bool
	Opacity       float64
	Drawer        Drawer
	Physics       physics.Data
}

func DefaultActorConfig() ActorConfig {
	return ActorConfig{
		LayerPosition: 1,
		Opacity:       1,
		Physics:       physics.DefaultData(),
	}
}

// Actor is a drawable object with a physics body. It is inert until a
// Layer mounts it; mounting moves its state into the layer's world.
type Actor struct {
	inputListeners

	id   uint64
	name string
	kind string

	mu            sync.RWMutex
	handler       physics.Handler
	layer         *Layer
	layerPosition int
	visible       bool
	opacity       float64
	drawer        Drawer

	mounts     listenerSet[MountListener]
	unmounts   listenerSet[MountListener]
	collisions listenerSet[collisionEntry]
}

type collisionEntry struct {
	other uint64
	kind  string
	fn    CollisionListener
}

func NewActor(cfg ActorConfig) *Actor {
	return &Actor{
		id:            nextActorID.Add(1),
		name:          cfg.Name,
		kind:          cfg.Kind,
		handler:       physics.NewInertHandler(cfg.Physics),
		layerPosition: cfg.LayerPosition,
		visible:       !cfg.Hidden,
		opacity:       common.Clamp(cfg.Opacity, 0, 1),
		drawer:        cfg.Drawer,
	}
}

func (a *Actor) ID() uint64   { return a.id }
func (a *Actor) Name() string { return a.name }
func (a *Actor) Kind() string { return a.kind }

// Handler returns the current physics handler. It changes on mount and
// unmount, so callers should not keep it across frames.
func (a *Actor) Handler() physics.Handler {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.handler
}

// IsMounted reports whether the actor is committed to a layer.
func (a *Actor) IsMounted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.handler.(*physics.SimulationHandler)
	return ok
}

// Layer returns the layer the actor is mounted to, or nil.
func (a *Actor) Layer() *Layer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.layer
}

func (a *Actor) LayerPosition() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.layerPosition
}

// SetLayerPosition changes the draw order within the layer. A mounted
// actor is resorted when the layer applies its deferred actions.
func (a *Actor) SetLayerPosition(pos int) {
	a.mu.Lock()
	if a.layerPosition == pos {
		a.mu.Unlock()
		return
	}
	a.layerPosition = pos
	l := a.layer
	a.mu.Unlock()
	if l != nil {
		l.enqueue(command{kind: cmdReorder, actor: a})
	}
}

func (a *Actor) Visible() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.visible
}

func (a *Actor) SetVisible(v bool) {
	a.mu.Lock()
	a.visible = v
	a.mu.Unlock()
}

func (a *Actor) Opacity() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.opacity
}

// SetOpacity clamps o into [0, 1].
func (a *Actor) SetOpacity(o float64) {
	if !common.Finite(o) {
		return
	}
	a.mu.Lock()
	a.opacity = common.Clamp(o, 0, 1)
	a.mu.Unlock()
}

func (a *Actor) Drawer() Drawer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.drawer
}

func (a *Actor) SetDrawer(d Drawer) {
	a.mu.Lock()
	a.drawer = d
	a.mu.Unlock()
}

func (a *Actor) Position() geom.Vector       { return a.Handler().Position() }
func (a *Actor) SetPosition(p geom.Vector)   { a.Handler().SetPosition(p) }
func (a *Actor) MoveBy(d geom.Vector)        { a.Handler().MoveBy(d) }
func (a *Actor) Center() geom.Vector         { return a.Handler().Center() }
func (a *Actor) Bounds() geom.Bounds         { return a.Handler().Bounds() }
func (a *Actor) Contains(p geom.Vector) bool { return a.Handler().Contains(p) }
func (a *Actor) Rotation() float64           { return a.Handler().Rotation() }
func (a *Actor) SetRotation(deg float64)     { a.Handler().SetRotation(deg) }
func (a *Actor) RotateBy(deg float64)        { a.Handler().RotateBy(deg) }
func (a *Actor) Velocity() geom.Vector       { return a.Handler().Velocity() }
func (a *Actor) SetVelocity(v geom.Vector)   { a.Handler().SetVelocity(v) }
func (a *Actor) ApplyForce(f geom.Vector)    { a.Handler().ApplyForce(f) }
func (a *Actor) ApplyImpulse(j geom.Vector)  { a.Handler().ApplyImpulse(j) }
func (a *Actor) BodyType() physics.BodyType  { return a.Handler().BodyType() }

func (a *Actor) SetBodyType(t physics.BodyType) {
	a.Handler().SetBodyType(t)
}

func (a *Actor) Mass() float64 {
	return a.Handler().Mass()
}

// ResetMovement stops all linear and angular motion.
func (a *Actor) ResetMovement() {
	a.Handler().ResetMovement()
}

func (a *Actor) SetRotationLocked(locked bool) {
	a.Handler().SetRotationLocked(locked)
}

func (a *Actor) SetGravityScale(scale float64) {
	a.Handler().SetGravityScale(scale)
}

// SetCenter moves the actor so that its fixture centre is c.
func (a *Actor) SetCenter(c geom.Vector) {
	h := a.Handler()
	h.MoveBy(c.Sub(h.Center()))
}

// Collisions returns the actors currently touching a. It is empty while a
// is not mounted.
func (a *Actor) Collisions() []*Actor {
	a.mu.RLock()
	l := a.layer
	a.mu.RUnlock()
	if l == nil {
		return nil
	}
	return l.contactsOf(a.id)
}

// OnMount registers fn to run whenever the actor is mounted. If it is
// mounted already fn also runs immediately.
func (a *Actor) OnMount(fn MountListener) ListenerID {
	id := a.mounts.add(fn)
	if l := a.Layer(); l != nil {
		fn(l)
	}
	return id
}

func (a *Actor) OnUnmount(fn MountListener) ListenerID {
	return a.unmounts.add(fn)
}

// OnCollision registers fn for contacts with any actor.
func (a *Actor) OnCollision(fn CollisionListener) ListenerID {
	return a.collisions.add(collisionEntry{fn: fn})
}

// OnCollisionWith registers fn for contacts with other only.
func (a *Actor) OnCollisionWith(other *Actor, fn CollisionListener) ListenerID {
	if other == nil {
		return 0
	}
	return a.collisions.add(collisionEntry{other: other.id, fn: fn})
}

// OnCollisionWithKind registers fn for contacts with actors of the given kind.
func (a *Actor) OnCollisionWithKind(kind string, fn CollisionListener) ListenerID {
	return a.collisions.add(collisionEntry{kind: kind, fn: fn})
}

// RemoveListener removes any listener registered on the actor.
func (a *Actor) RemoveListener(id ListenerID) bool {
	return a.inputListeners.RemoveListener(id) ||
		a.mounts.remove(id) ||
		a.unmounts.remove(id) ||
		a.collisions.remove(id)
}

func (a *Actor) fireCollision(c Collision) {
	for _, e := range a.collisions.snapshot() {
		if e.other != 0 && e.other != c.Other.id {
			continue
		}
		if e.kind != "" && e.kind != c.Other.kind {
			continue
		}
		e.fn(c)
	}
}

func (a *Actor) fireMount(l *Layer) {
	for _, fn := range a.mounts.snapshot() {
		fn(l)
	}
}

func (a *Actor) fireUnmount(l *Layer) {
	for _, fn := range a.unmounts.snapshot() {
		fn(l)
	}
}

// render draws the actor onto c. base maps world pixels to the screen.
func (a *Actor) render(c *Canvas, base ebiten.GeoM, ppm float64) {
	a.mu.RLock()
	visible, opacity, drawer, h := a.visible, a.opacity, a.drawer, a.handler
	a.mu.RUnlock()
	if !visible || drawer == nil || opacity <= 0 {
		return
	}

	pos := h.Position()
	var g ebiten.GeoM
	g.Rotate(-common.DegToRad(h.Rotation()))
	g.Translate(pos.X*ppm, -pos.Y*ppm)
	g.Concat(base)

	local := Canvas{Target: c.Target, GeoM: g, ColorScale: c.ColorScale}
	local.ColorScale.ScaleAlpha(float32(opacity))
	drawer.Draw(&local, ppm)
}
