package script

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/pistage/stage"
)

// ErrNoUpdate is returned by Compile when the source has no update function.
var ErrNoUpdate = errors.New("script: update function not defined")

// Scripts define `update := func(actor, dt) { ... }`. The dispatch below is
// appended to every source so one compiled program can be re-run per frame.
const dispatchScript = `
if __phase == "update" {
	update(__actor, __dt)
}
`

// Behavior is a compiled script that can be bound to any number of actors.
type Behavior struct {
	name     string
	compiled *tengo.Compiled
}

// Compile builds a behavior from tengo source. name is used in log lines.
func Compile(name string, src []byte) (*Behavior, error) {
	full := string(src) + "\n" + dispatchScript
	s := tengo.NewScript([]byte(full))
	_ = s.Add("__phase", "")
	_ = s.Add("__actor", map[string]any{})
	_ = s.Add("__dt", 0.0)
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script %q: %w", name, err)
	}

	// Run once with no phase so top level definitions are evaluated.
	if err := compiled.Run(); err != nil {
		return nil, fmt.Errorf("script %q: %w", name, err)
	}
	if !compiled.IsDefined("update") {
		return nil, fmt.Errorf("script %q: %w", name, ErrNoUpdate)
	}
	return &Behavior{name: name, compiled: compiled}, nil
}

func (b *Behavior) Name() string {
	return b.name
}

// Binding runs a behavior for one actor. Each binding has its own copy of
// the program and its own state map.
type Binding struct {
	behavior *Behavior
	actor    *stage.Actor

	mu       sync.Mutex
	compiled *tengo.Compiled
	self     *tengo.ImmutableMap
	state    *tengo.Map
	listener stage.ListenerID
}

// Bind prepares b for actor a without registering any listener.
func (b *Behavior) Bind(a *stage.Actor) *Binding {
	bd := &Binding{
		behavior: b,
		actor:    a,
		compiled: b.compiled.Clone(),
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}
	bd.self = actorObject(a, bd.state, b.name)
	return bd
}

// Attach binds b to a and runs it on every frame update a receives.
// Errors are logged and do not detach the script.
func (b *Behavior) Attach(a *stage.Actor) *Binding {
	bd := b.Bind(a)
	bd.listener = a.OnFrameUpdate(func(dt float64) {
		if err := bd.Update(dt); err != nil {
			log.Printf("Script: actor=%d script=%q update error: %v", a.ID(), b.name, err)
		}
	})
	return bd
}

// Update runs the script's update function once.
func (bd *Binding) Update(dt float64) error {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	if err := bd.compiled.Set("__phase", "update"); err != nil {
		return err
	}
	if err := bd.compiled.Set("__actor", bd.self); err != nil {
		return err
	}
	if err := bd.compiled.Set("__dt", dt); err != nil {
		return err
	}
	return bd.compiled.Run()
}

// State returns a value the script stored with actor.state[key].
func (bd *Binding) State(key string) any {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	obj, ok := bd.state.Value[key]
	if !ok {
		return nil
	}
	return tengo.ToInterface(obj)
}

// Detach stops running the script on frame updates.
func (bd *Binding) Detach() {
	if bd.listener != 0 {
		bd.actor.RemoveListener(bd.listener)
		bd.listener = 0
	}
}
