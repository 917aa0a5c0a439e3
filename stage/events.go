package stage

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/pistage/geom"
	"github.com/milk9111/pistage/physics"
)

// InputEvent is a raw platform event in screen pixels.
type InputEvent interface {
	isInputEvent()
}

type KeyEvent struct {
	Key     ebiten.Key
	Pressed bool
}

type MouseButtonEvent struct {
	Button  ebiten.MouseButton
	Pressed bool
	X, Y    float64
}

type MouseMoveEvent struct {
	X, Y float64
}

type ScrollEvent struct {
	DX, DY float64
	X, Y   float64
}

func (KeyEvent) isInputEvent()         {}
func (MouseButtonEvent) isInputEvent() {}
func (MouseMoveEvent) isInputEvent()   {}
func (ScrollEvent) isInputEvent()      {}

// MouseClick is a button event with the cursor converted to world meters.
type MouseClick struct {
	Button  ebiten.MouseButton
	Pressed bool
	Screen  geom.Vector
	World   geom.Vector
}

type MouseMove struct {
	Screen geom.Vector
	World  geom.Vector
}

type MouseScroll struct {
	DX, DY float64
	Screen geom.Vector
	World  geom.Vector
}

// Collision is delivered to the listeners of Self when it starts or stops
// touching Other.
type Collision struct {
	Phase physics.ContactPhase
	Self  *Actor
	Other *Actor
}

func (c Collision) Begin() bool {
	return c.Phase == physics.ContactBegin
}

// EventQueue is a FIFO of input events, safe for one producer and one
// consumer on different goroutines.
type EventQueue struct {
	mu    sync.Mutex
	items []InputEvent
}

// Push adds an event.
func (q *EventQueue) Push(evt InputEvent) {
	if q == nil || evt == nil {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, evt)
	q.mu.Unlock()
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []InputEvent {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
