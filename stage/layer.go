package stage

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/pistage/common"
	"github.com/milk9111/pistage/geom"
	"github.com/milk9111/pistage/physics"
)

// Parallax scales how strongly the camera affects a layer. 1 on every
// axis moves the layer exactly with the camera; 0 pins it to the screen.
type Parallax struct {
	X, Y     float64
	Zoom     float64
	Rotation float64
}

func DefaultParallax() Parallax {
	return Parallax{X: 1, Y: 1, Zoom: 1, Rotation: 1}
}

type LayerConfig struct {
	Name           string
	Order          int
	Parallax       Parallax
	TimeDistortion float64
	Gravity        geom.Vector
	Hidden         bool
}

func DefaultLayerConfig() LayerConfig {
	return LayerConfig{
		Parallax:       DefaultParallax(),
		TimeDistortion: 1,
	}
}

// Layer is an ordered set of actors sharing one physics world and one
// parallax setting. Adding and removing actors is deferred until the next
// Step or Flush.
type Layer struct {
	inputListeners

	name  string
	world *physics.World

	propMu         sync.RWMutex
	order          int
	parallax       Parallax
	timeDistortion float64
	visible        bool
	scene          *Scene

	// mu serialises Step, Flush and Render.
	mu        sync.Mutex
	destroyed bool

	actorsMu  sync.RWMutex
	committed []*Actor
	byID      map[uint64]*Actor

	queueMu    sync.Mutex
	closed     bool
	pending    []*Actor
	tickets    map[uint64]uint64
	nextTicket uint64
	commands   []command
}

func NewLayer(cfg LayerConfig) (*Layer, error) {
	if !(cfg.TimeDistortion > 0) || math.IsInf(cfg.TimeDistortion, 0) {
		return nil, fmt.Errorf("%w: time distortion %v", ErrIllegalArgument, cfg.TimeDistortion)
	}
	if !common.Finite(cfg.Parallax.X, cfg.Parallax.Y, cfg.Parallax.Zoom, cfg.Parallax.Rotation) {
		return nil, fmt.Errorf("%w: parallax %+v", ErrIllegalArgument, cfg.Parallax)
	}
	l := &Layer{
		name:           cfg.Name,
		world:          physics.NewWorld(),
		order:          cfg.Order,
		parallax:       cfg.Parallax,
		timeDistortion: cfg.TimeDistortion,
		visible:        !cfg.Hidden,
		byID:           make(map[uint64]*Actor),
		tickets:        make(map[uint64]uint64),
	}
	l.world.SetGravity(cfg.Gravity)
	return l, nil
}

func (l *Layer) Name() string {
	return l.name
}

// World exposes the layer's physics world.
func (l *Layer) World() *physics.World {
	return l.world
}

func (l *Layer) Order() int {
	l.propMu.RLock()
	defer l.propMu.RUnlock()
	return l.order
}

// SetOrder changes the layer's position in its scene.
func (l *Layer) SetOrder(order int) {
	l.propMu.Lock()
	l.order = order
	s := l.scene
	l.propMu.Unlock()
	if s != nil {
		s.sortLayers()
	}
}

func (l *Layer) Parallax() Parallax {
	l.propMu.RLock()
	defer l.propMu.RUnlock()
	return l.parallax
}

func (l *Layer) SetParallax(p Parallax) error {
	if !common.Finite(p.X, p.Y, p.Zoom, p.Rotation) {
		return fmt.Errorf("%w: parallax %+v", ErrIllegalArgument, p)
	}
	l.propMu.Lock()
	l.parallax = p
	l.propMu.Unlock()
	return nil
}

func (l *Layer) TimeDistortion() float64 {
	l.propMu.RLock()
	defer l.propMu.RUnlock()
	return l.timeDistortion
}

// SetTimeDistortion scales the dt of physics steps and frame listeners.
func (l *Layer) SetTimeDistortion(f float64) error {
	if !(f > 0) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: time distortion %v", ErrIllegalArgument, f)
	}
	l.propMu.Lock()
	l.timeDistortion = f
	l.propMu.Unlock()
	return nil
}

func (l *Layer) Visible() bool {
	l.propMu.RLock()
	defer l.propMu.RUnlock()
	return l.visible
}

func (l *Layer) SetVisible(v bool) {
	l.propMu.Lock()
	l.visible = v
	l.propMu.Unlock()
}

// Scene returns the scene the layer belongs to, or nil.
func (l *Layer) Scene() *Scene {
	l.propMu.RLock()
	defer l.propMu.RUnlock()
	return l.scene
}

func (l *Layer) Gravity() geom.Vector {
	return l.world.Gravity()
}

func (l *Layer) SetGravity(g geom.Vector) {
	l.world.SetGravity(g)
}

// SetGravityOfEarth pulls the layer's bodies down at 9.81 m/s².
func (l *Layer) SetGravityOfEarth() {
	l.world.SetGravity(geom.Vec(0, common.EarthGravity))
}

func (l *Layer) PhysicsPaused() bool {
	return l.world.Paused()
}

// SetPhysicsPaused stops the world from advancing. Deferred actions are
// still applied on Step.
func (l *Layer) SetPhysicsPaused(paused bool) {
	l.world.SetPaused(paused)
}

// Add schedules actors to be mounted. Adding an actor that is already
// pending here has no further effect.
func (l *Layer) Add(actors ...*Actor) {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	if l.closed {
		return
	}
	for _, a := range actors {
		if a == nil {
			continue
		}
		if _, ok := l.tickets[a.id]; ok {
			continue
		}
		l.nextTicket++
		l.tickets[a.id] = l.nextTicket
		l.pending = append(l.pending, a)
		l.commands = append(l.commands, command{kind: cmdAdd, actor: a, ticket: l.nextTicket})
	}
}

// Remove schedules actors to be unmounted. A pending add of the same
// actor is cancelled immediately.
func (l *Layer) Remove(actors ...*Actor) {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	if l.closed {
		return
	}
	for _, a := range actors {
		if a == nil {
			continue
		}
		if _, ok := l.tickets[a.id]; ok {
			delete(l.tickets, a.id)
			l.pending = removeActor(l.pending, a)
		}
		l.commands = append(l.commands, command{kind: cmdRemove, actor: a})
	}
}

// Join schedules a joint between a and b. Both must be mounted to this
// layer when the joint is applied, otherwise Joint.Err reports why.
func (l *Layer) Join(a, b *Actor, spec physics.JointSpec) *Joint {
	j := &Joint{layer: l, a: a, b: b, spec: spec}
	if !l.enqueue(command{kind: cmdJoin, joint: j}) {
		j.err = fmt.Errorf("%w: layer %q destroyed", ErrIllegalState, l.name)
	}
	return j
}

// Pending returns the actors waiting to be mounted, by layer position.
func (l *Layer) Pending() []*Actor {
	l.queueMu.Lock()
	out := make([]*Actor, len(l.pending))
	copy(out, l.pending)
	l.queueMu.Unlock()
	sortActors(out)
	return out
}

// Actors returns the mounted actors in draw order.
func (l *Layer) Actors() []*Actor {
	l.actorsMu.RLock()
	defer l.actorsMu.RUnlock()
	out := make([]*Actor, len(l.committed))
	copy(out, l.committed)
	return out
}

// Contains reports whether a is mounted to l.
func (l *Layer) Contains(a *Actor) bool {
	if a == nil {
		return false
	}
	l.actorsMu.RLock()
	defer l.actorsMu.RUnlock()
	return l.byID[a.id] == a
}

func (l *Layer) contactsOf(id uint64) []*Actor {
	ids := l.world.ContactsOf(id)
	l.actorsMu.RLock()
	defer l.actorsMu.RUnlock()
	out := make([]*Actor, 0, len(ids))
	for _, other := range ids {
		if a, ok := l.byID[other]; ok {
			out = append(out, a)
		}
	}
	return out
}

// flushResult carries listener work that must run after the layer lock
// is released.
type flushResult struct {
	layer    *Layer
	mounted  []*Actor
	removed  []*Actor
	departed map[uint64]*Actor
	err      error
}

func (r *flushResult) notify() {
	for _, a := range r.removed {
		a.fireUnmount(r.layer)
	}
	for _, a := range r.mounted {
		a.fireMount(r.layer)
	}
}

// Flush applies the deferred actions now.
func (l *Layer) Flush() error {
	l.mu.Lock()
	res := l.flushLocked()
	cols := l.collisionsLocked(res.departed)
	l.mu.Unlock()
	res.notify()
	fireCollisions(cols)
	return res.err
}

// Step advances the layer's world by dt scaled with the time distortion,
// applies the deferred actions and then reports contacts.
func (l *Layer) Step(dt float64) error {
	if !common.Finite(dt) || dt < 0 {
		return fmt.Errorf("%w: step dt %v", ErrIllegalArgument, dt)
	}
	l.mu.Lock()
	if l.destroyed {
		l.mu.Unlock()
		return fmt.Errorf("%w: layer %q destroyed", ErrIllegalState, l.name)
	}
	l.world.Step(dt * l.TimeDistortion())
	res := l.flushLocked()
	cols := l.collisionsLocked(res.departed)
	l.mu.Unlock()

	res.notify()
	fireCollisions(cols)
	return res.err
}

func (l *Layer) flushLocked() *flushResult {
	res := &flushResult{layer: l, departed: make(map[uint64]*Actor)}
	cmds := l.drainCommands()
	if l.destroyed {
		return res
	}

	var errs []error
	resort := false
	for _, c := range cmds {
		switch c.kind {
		case cmdAdd:
			if !l.claim(c) {
				continue
			}
			if err := l.mountLocked(c.actor, res); err != nil {
				log.Printf("Layer: mount actor=%d layer=%q failed: %v", c.actor.id, l.name, err)
				errs = append(errs, err)
			}
		case cmdRemove:
			l.unmountLocked(c.actor, res)
		case cmdReorder:
			resort = true
		case cmdJoin:
			if err := l.joinLocked(c.joint); err != nil {
				errs = append(errs, err)
			}
		case cmdUnjoin:
			c.joint.detach()
		}
	}
	if resort {
		l.actorsMu.Lock()
		sortActors(l.committed)
		l.actorsMu.Unlock()
	}
	res.err = errors.Join(errs...)
	return res
}

func (l *Layer) mountLocked(a *Actor, res *flushResult) error {
	a.mu.Lock()
	switch {
	case a.layer == l:
		a.mu.Unlock()
		return nil
	case a.layer != nil:
		other := a.layer.name
		a.mu.Unlock()
		return fmt.Errorf("%w: actor %d is mounted to layer %q", ErrIllegalState, a.id, other)
	}
	sim, err := l.world.Attach(a.id, a.handler.Data())
	if err != nil {
		a.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrIllegalState, err)
	}
	a.handler = sim
	a.layer = l
	a.mu.Unlock()

	l.actorsMu.Lock()
	l.committed = append(l.committed, a)
	sortActors(l.committed)
	l.byID[a.id] = a
	l.actorsMu.Unlock()

	res.mounted = append(res.mounted, a)
	return nil
}

func (l *Layer) unmountLocked(a *Actor, res *flushResult) {
	if !l.Contains(a) {
		return
	}
	l.actorsMu.Lock()
	l.committed = removeActor(l.committed, a)
	delete(l.byID, a.id)
	l.actorsMu.Unlock()

	a.mu.Lock()
	data := a.handler.Data()
	if sim, ok := a.handler.(*physics.SimulationHandler); ok {
		if d, err := sim.Detach(); err == nil {
			data = d
		}
	}
	a.handler = physics.NewInertHandler(data)
	a.layer = nil
	a.mu.Unlock()

	res.departed[a.id] = a
	res.removed = append(res.removed, a)
}

func (l *Layer) joinLocked(j *Joint) error {
	simA, okA := l.simulationOf(j.a)
	simB, okB := l.simulationOf(j.b)
	var err error
	if !okA || !okB {
		err = fmt.Errorf("%w: joint actors must both be mounted to layer %q", ErrIllegalState, l.name)
	} else {
		var pj *physics.Joint
		pj, err = l.world.Connect(simA, simB, j.spec)
		if err == nil {
			j.mu.Lock()
			j.joint = pj
			j.mu.Unlock()
			return nil
		}
		err = fmt.Errorf("%w: %v", ErrIllegalArgument, err)
	}
	j.mu.Lock()
	j.err = err
	j.mu.Unlock()
	return err
}

func (l *Layer) simulationOf(a *Actor) (*physics.SimulationHandler, bool) {
	if a == nil {
		return nil, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.layer != l {
		return nil, false
	}
	sim, ok := a.handler.(*physics.SimulationHandler)
	return sim, ok
}

func (l *Layer) collisionsLocked(departed map[uint64]*Actor) []Collision {
	contacts := l.world.DrainContacts()
	if len(contacts) == 0 {
		return nil
	}
	lookup := func(id uint64) *Actor {
		if a, ok := l.byID[id]; ok {
			return a
		}
		return departed[id]
	}

	l.actorsMu.RLock()
	defer l.actorsMu.RUnlock()
	out := make([]Collision, 0, 2*len(contacts))
	for _, c := range contacts {
		a, b := lookup(c.A), lookup(c.B)
		if a == nil || b == nil {
			continue
		}
		out = append(out,
			Collision{Phase: c.Phase, Self: a, Other: b},
			Collision{Phase: c.Phase, Self: b, Other: a},
		)
	}
	return out
}

func fireCollisions(cols []Collision) {
	for _, c := range cols {
		c.Self.fireCollision(c)
	}
}

// Update runs the frame listeners of the layer and of its mounted actors
// with dt scaled by the time distortion.
func (l *Layer) Update(dt float64) {
	dt *= l.TimeDistortion()
	l.fireFrame(dt)
	for _, a := range l.Actors() {
		a.fireFrame(dt)
	}
}

// Destroy unmounts every actor, drops queued actions and frees the world.
func (l *Layer) Destroy() {
	l.queueMu.Lock()
	l.closed = true
	l.commands = nil
	l.pending = nil
	l.tickets = make(map[uint64]uint64)
	l.queueMu.Unlock()

	l.mu.Lock()
	if l.destroyed {
		l.mu.Unlock()
		return
	}
	res := &flushResult{layer: l, departed: make(map[uint64]*Actor)}
	for _, a := range l.Actors() {
		l.unmountLocked(a, res)
	}
	l.world.Destroy()
	l.destroyed = true
	l.mu.Unlock()

	res.notify()
	if s := l.Scene(); s != nil {
		s.RemoveLayer(l)
	}
}

// PixelsPerMeter returns the scale the layer renders with at camera zoom.
func (l *Layer) PixelsPerMeter(zoom float64) float64 {
	return 1 + (zoom-1)*l.Parallax().Zoom
}

// Transform returns the matrix mapping world pixels (meters × ppm, y
// flipped) to screen pixels for view v on a w×h frame, and the ppm used.
func (l *Layer) Transform(v View, w, h float64) (ebiten.GeoM, float64) {
	p := l.Parallax()
	ppm := 1 + (v.Zoom-1)*p.Zoom
	var g ebiten.GeoM
	g.Translate(-v.Focus.X*p.X*ppm, v.Focus.Y*p.Y*ppm)
	g.Rotate(-common.DegToRad(v.Rotation * p.Rotation))
	g.Translate(w/2, h/2)
	return g, ppm
}

// WorldToScreen maps a world point to screen pixels.
func (l *Layer) WorldToScreen(v View, p geom.Vector, w, h float64) geom.Vector {
	g, ppm := l.Transform(v, w, h)
	x, y := g.Apply(p.X*ppm, -p.Y*ppm)
	return geom.Vec(x, y)
}

// ScreenToWorld maps screen pixels back to world meters.
func (l *Layer) ScreenToWorld(v View, s geom.Vector, w, h float64) geom.Vector {
	g, ppm := l.Transform(v, w, h)
	if ppm == 0 || !g.IsInvertible() {
		return geom.Zero
	}
	g.Invert()
	x, y := g.Apply(s.X, s.Y)
	return geom.Vec(x/ppm, -y/ppm)
}

// VisibleArea returns the world rectangle covered by a w×h frame,
// ignoring rotation.
func (l *Layer) VisibleArea(v View, w, h float64) geom.Bounds {
	p := l.Parallax()
	ppm := l.PixelsPerMeter(v.Zoom)
	if ppm <= 0 {
		return geom.Bounds{}
	}
	c := v.Focus.Mul(geom.Vec(p.X, p.Y))
	return geom.BoundsAround(c, w/ppm, h/ppm)
}

// SetVisibleWidth zooms cam so that width meters of this layer span
// pixels screen pixels.
func (l *Layer) SetVisibleWidth(cam *Camera, width, pixels float64) error {
	return l.fitZoom(cam, width, pixels)
}

// SetVisibleHeight is SetVisibleWidth for the vertical axis.
func (l *Layer) SetVisibleHeight(cam *Camera, height, pixels float64) error {
	return l.fitZoom(cam, height, pixels)
}

func (l *Layer) fitZoom(cam *Camera, meters, pixels float64) error {
	if !(meters > 0) || !(pixels > 0) {
		return fmt.Errorf("%w: visible size %v over %v px", ErrIllegalArgument, meters, pixels)
	}
	pz := l.Parallax().Zoom
	if pz == 0 {
		return fmt.Errorf("%w: layer %q ignores zoom", ErrIllegalState, l.name)
	}
	return cam.SetZoom(1 + (pixels/meters-1)/pz)
}

// Render draws the visible mounted actors in ascending layer position.
func (l *Layer) Render(c *Canvas, v View, w, h float64) {
	if !l.Visible() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.destroyed {
		return
	}

	base, ppm := l.Transform(v, w, h)
	base.Concat(c.GeoM)
	actors := l.Actors()
	outOfOrder := false
	prev := math.MinInt
	for _, a := range actors {
		pos := a.LayerPosition()
		if pos < prev {
			outOfOrder = true
		}
		prev = pos
		a.render(c, base, ppm)
	}
	if outOfOrder {
		l.actorsMu.Lock()
		sortActors(l.committed)
		l.actorsMu.Unlock()
	}
}

func (l *Layer) dispatch(evt InputEvent, v View, w, h float64) {
	actors := l.Actors()
	switch e := evt.(type) {
	case KeyEvent:
		l.fireKey(e)
		for _, a := range actors {
			a.fireKey(e)
		}
	case MouseButtonEvent:
		s := geom.Vec(e.X, e.Y)
		click := MouseClick{Button: e.Button, Pressed: e.Pressed, Screen: s, World: l.ScreenToWorld(v, s, w, h)}
		l.fireClick(click)
		for _, a := range actors {
			a.fireClick(click)
		}
	case MouseMoveEvent:
		s := geom.Vec(e.X, e.Y)
		move := MouseMove{Screen: s, World: l.ScreenToWorld(v, s, w, h)}
		l.fireMove(move)
		for _, a := range actors {
			a.fireMove(move)
		}
	case ScrollEvent:
		s := geom.Vec(e.X, e.Y)
		scroll := MouseScroll{DX: e.DX, DY: e.DY, Screen: s, World: l.ScreenToWorld(v, s, w, h)}
		l.fireScroll(scroll)
		for _, a := range actors {
			a.fireScroll(scroll)
		}
	}
}

func sortActors(actors []*Actor) {
	sort.SliceStable(actors, func(i, j int) bool {
		return actors[i].LayerPosition() < actors[j].LayerPosition()
	})
}

func removeActor(actors []*Actor, a *Actor) []*Actor {
	for i, other := range actors {
		if other == a {
			return append(actors[:i], actors[i+1:]...)
		}
	}
	return actors
}
