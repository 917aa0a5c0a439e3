package stage

import (
	"sync"

	"github.com/milk9111/pistage/physics"
)

type commandKind int

const (
	cmdAdd commandKind = iota
	cmdRemove
	cmdReorder
	cmdJoin
	cmdUnjoin
)

func (k commandKind) String() string {
	switch k {
	case cmdAdd:
		return "add"
	case cmdRemove:
		return "remove"
	case cmdReorder:
		return "reorder"
	case cmdJoin:
		return "join"
	case cmdUnjoin:
		return "unjoin"
	}
	return "unknown"
}

// command is one deferred mutation of a layer. Commands are applied in
// FIFO order between physics steps.
type command struct {
	kind   commandKind
	actor  *Actor
	ticket uint64
	joint  *Joint
}

// enqueue reports false once the layer is destroyed.
func (l *Layer) enqueue(c command) bool {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	if l.closed {
		return false
	}
	l.commands = append(l.commands, c)
	return true
}

func (l *Layer) drainCommands() []command {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	out := l.commands
	l.commands = nil
	return out
}

// claim reports whether an add command is still wanted and, if so, takes
// the actor out of pending.
func (l *Layer) claim(c command) bool {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	t, ok := l.tickets[c.actor.id]
	if !ok || t != c.ticket {
		return false
	}
	delete(l.tickets, c.actor.id)
	l.pending = removeActor(l.pending, c.actor)
	return true
}

// Joint connects two actors of the same layer. It becomes active when
// the layer applies its deferred actions and is destroyed together with
// either actor's body.
type Joint struct {
	layer *Layer
	a, b  *Actor
	spec  physics.JointSpec

	mu    sync.Mutex
	joint *physics.Joint
	err   error
}

func (j *Joint) Spec() physics.JointSpec {
	return j.spec
}

// Actors returns the two connected actors.
func (j *Joint) Actors() (*Actor, *Actor) {
	return j.a, j.b
}

func (j *Joint) Active() bool {
	j.mu.Lock()
	pj := j.joint
	j.mu.Unlock()
	return pj != nil && pj.Active()
}

// Err returns why the joint could not be created, if it failed.
func (j *Joint) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Remove schedules the joint for removal.
func (j *Joint) Remove() {
	j.layer.enqueue(command{kind: cmdUnjoin, joint: j})
}

func (j *Joint) detach() {
	j.mu.Lock()
	pj := j.joint
	j.joint = nil
	j.mu.Unlock()
	pj.Remove()
}
