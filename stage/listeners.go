package stage

import (
	"sync"
	"sync/atomic"
)

type (
	KeyListener         func(KeyEvent)
	MouseClickListener  func(MouseClick)
	MouseMoveListener   func(MouseMove)
	MouseScrollListener func(MouseScroll)
	// FrameUpdateListener receives the frame time in seconds, scaled by the
	// time distortion of the layer it runs on.
	FrameUpdateListener func(dt float64)
	CollisionListener   func(Collision)
	// MountListener receives the layer the actor was mounted to or
	// unmounted from.
	MountListener func(*Layer)
)

// ListenerID identifies a registration so it can be removed again.
type ListenerID uint64

var nextListenerID atomic.Uint64

type listenerEntry[F any] struct {
	id ListenerID
	fn F
}

type listenerSet[F any] struct {
	mu      sync.RWMutex
	entries []listenerEntry[F]
}

func (s *listenerSet[F]) add(fn F) ListenerID {
	id := ListenerID(nextListenerID.Add(1))
	s.mu.Lock()
	s.entries = append(s.entries, listenerEntry[F]{id: id, fn: fn})
	s.mu.Unlock()
	return id
}

func (s *listenerSet[F]) remove(id ListenerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot copies the listeners so callbacks may register or remove
// listeners without deadlocking.
func (s *listenerSet[F]) snapshot() []F {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return nil
	}
	out := make([]F, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.fn
	}
	return out
}

func (s *listenerSet[F]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// inputListeners is the set of input and frame listeners shared by
// actors, layers and scenes.
type inputListeners struct {
	keys    listenerSet[KeyListener]
	clicks  listenerSet[MouseClickListener]
	moves   listenerSet[MouseMoveListener]
	scrolls listenerSet[MouseScrollListener]
	frames  listenerSet[FrameUpdateListener]
}

func (l *inputListeners) OnKey(fn KeyListener) ListenerID {
	return l.keys.add(fn)
}

func (l *inputListeners) OnMouseClick(fn MouseClickListener) ListenerID {
	return l.clicks.add(fn)
}

func (l *inputListeners) OnMouseMove(fn MouseMoveListener) ListenerID {
	return l.moves.add(fn)
}

func (l *inputListeners) OnMouseScroll(fn MouseScrollListener) ListenerID {
	return l.scrolls.add(fn)
}

func (l *inputListeners) OnFrameUpdate(fn FrameUpdateListener) ListenerID {
	return l.frames.add(fn)
}

// RemoveListener removes an input or frame listener. It reports whether
// the ID was found.
func (l *inputListeners) RemoveListener(id ListenerID) bool {
	return l.keys.remove(id) ||
		l.clicks.remove(id) ||
		l.moves.remove(id) ||
		l.scrolls.remove(id) ||
		l.frames.remove(id)
}

func (l *inputListeners) fireKey(e KeyEvent) {
	for _, fn := range l.keys.snapshot() {
		fn(e)
	}
}

func (l *inputListeners) fireClick(e MouseClick) {
	for _, fn := range l.clicks.snapshot() {
		fn(e)
	}
}

func (l *inputListeners) fireMove(e MouseMove) {
	for _, fn := range l.moves.snapshot() {
		fn(e)
	}
}

func (l *inputListeners) fireScroll(e MouseScroll) {
	for _, fn := range l.scrolls.snapshot() {
		fn(e)
	}
}

func (l *inputListeners) fireFrame(dt float64) {
	for _, fn := range l.frames.snapshot() {
		fn(dt)
	}
}
