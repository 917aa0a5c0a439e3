package physics

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/pistage/geom"
)

const collisionTypeBody cp.CollisionType = 1

var (
	ErrDetached      = errors.New("physics: handler detached")
	ErrForeignWorld  = errors.New("physics: handler belongs to another world")
	ErrAlreadyExists = errors.New("physics: body already attached")
)

// World owns one Chipmunk space. Bodies are identified by the caller's
// IDs; the world never holds references to the caller's objects.
type World struct {
	mu     sync.Mutex
	space  *cp.Space
	paused bool

	handlers map[uint64]*SimulationHandler
	contacts map[pair]int
	events   []Contact
	joints   []*Joint
}

func NewWorld() *World {
	space := cp.NewSpace()
	space.Iterations = 20

	w := &World{
		space:    space,
		handlers: make(map[uint64]*SimulationHandler),
		contacts: make(map[pair]int),
	}
	w.setupHandlers()
	return w
}

func (w *World) Gravity() geom.Vector {
	if w == nil {
		return geom.Zero
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	g := w.space.Gravity()
	return geom.Vec(g.X, g.Y)
}

func (w *World) SetGravity(g geom.Vector) {
	if w == nil || !g.IsValid() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.space.SetGravity(cp.Vector{X: g.X, Y: g.Y})
}

func (w *World) Paused() bool {
	if w == nil {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paused
}

func (w *World) SetPaused(paused bool) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.paused = paused
	w.mu.Unlock()
}

// Step advances the simulation by dt seconds. Contacts that began or ended
// during the step are queued for DrainContacts.
func (w *World) Step(dt float64) {
	if w == nil || dt <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.paused {
		return
	}
	w.space.Step(dt)
}

// DrainContacts returns and clears the queued contact events.
func (w *World) DrainContacts() []Contact {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.events
	w.events = nil
	return out
}

// ContactsOf lists the IDs of bodies currently touching id, in ascending order.
func (w *World) ContactsOf(id uint64) []uint64 {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []uint64
	for p := range w.contacts {
		if p.has(id) {
			out = append(out, p.other(id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *World) BodyCount() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.handlers)
}

// Query returns the IDs of bodies whose fixtures contain p.
func (w *World) Query(p geom.Vector) []uint64 {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []uint64
	for id, h := range w.handlers {
		if fixturesContain(h.fixtures, h.position(), h.rotationDeg(), p) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Attach creates a body for id seeded from d.
func (w *World) Attach(id uint64, d Data) (*SimulationHandler, error) {
	if w == nil {
		return nil, ErrDetached
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.handlers[id]; ok {
		return nil, fmt.Errorf("%w: id=%d", ErrAlreadyExists, id)
	}
	h := newSimulationHandler(w, id, d)
	w.handlers[id] = h
	return h, nil
}

// Destroy removes every body and joint. Handlers still held by callers
// report ErrDetached afterwards.
func (w *World) Destroy() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if n := len(w.handlers); n > 0 {
		log.Printf("PhysicsWorld: Destroy removing bodies=%d joints=%d", n, len(w.joints))
	}
	for _, h := range w.handlers {
		h.destroyLocked()
	}
	w.contacts = make(map[pair]int)
	w.events = nil
}

func (w *World) setupHandlers() {
	handler := w.space.NewCollisionHandler(collisionTypeBody, collisionTypeBody)
	handler.UserData = w
	handler.BeginFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		world, ok := userData.(*World)
		if !ok || world == nil {
			return true
		}
		if p, ok := arbiterPair(arb); ok {
			world.contacts[p]++
			if world.contacts[p] == 1 {
				world.events = append(world.events, Contact{Phase: ContactBegin, A: p.a, B: p.b})
			}
		}
		return true
	}
	handler.SeparateFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) {
		world, ok := userData.(*World)
		if !ok || world == nil {
			return
		}
		p, ok := arbiterPair(arb)
		if !ok {
			return
		}
		n, ok := world.contacts[p]
		if !ok {
			return
		}
		if n <= 1 {
			delete(world.contacts, p)
			world.events = append(world.events, Contact{Phase: ContactEnd, A: p.a, B: p.b})
			return
		}
		world.contacts[p] = n - 1
	}
}

func arbiterPair(arb *cp.Arbiter) (pair, bool) {
	shapeA, shapeB := arb.Shapes()
	idA, okA := shapeID(shapeA)
	idB, okB := shapeID(shapeB)
	if !okA || !okB || idA == idB {
		return pair{}, false
	}
	return makePair(idA, idB), true
}

func shapeID(s *cp.Shape) (uint64, bool) {
	if s == nil || s.Body() == nil {
		return 0, false
	}
	id, ok := s.Body().UserData.(uint64)
	return id, ok
}

// forget drops every trace of id. Caller holds w.mu.
func (w *World) forget(id uint64) {
	delete(w.handlers, id)
	for p := range w.contacts {
		if p.has(id) {
			delete(w.contacts, p)
		}
	}
	kept := w.joints[:0]
	for _, j := range w.joints {
		if j.a == id || j.b == id {
			j.removeLocked()
			continue
		}
		kept = append(kept, j)
	}
	for i := len(kept); i < len(w.joints); i++ {
		w.joints[i] = nil
	}
	w.joints = kept
}
