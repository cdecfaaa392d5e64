package script

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/scenegraph/ecs"
)

// DefaultTimeout bounds a single handler invocation.
const DefaultTimeout = 50 * time.Millisecond

var ErrEmptySource = errors.New("script: empty source")

// dispatchSource is appended to every script. Scripts declare a handlers map
// keyed by event name; each handler receives the engine, the persistent
// state map and the event arguments.
const dispatchSource = `
__handler := handlers[__event]
if is_callable(__handler) {
	__handler(__engine, __state, __args)
}
`

var handlerNames = map[ecs.EventKind]string{
	ecs.EventAwake:           "awake",
	ecs.EventStart:           "start",
	ecs.EventUpdate:          "update",
	ecs.EventEnable:          "enable",
	ecs.EventDisable:         "disable",
	ecs.EventDestroy:         "destroy",
	ecs.EventCollisionEnter:  "collision_enter",
	ecs.EventCollisionActive: "collision_active",
	ecs.EventCollisionExit:   "collision_exit",
	ecs.EventTriggerEnter:    "trigger_enter",
	ecs.EventTriggerActive:   "trigger_active",
	ecs.EventTriggerExit:     "trigger_exit",
}

// Program is a compiled script. Every behaviour running it gets its own
// clone and state.
type Program struct {
	name     string
	compiled *tengo.Compiled
}

// Compile compiles src once. name identifies the script in logs and errors.
func Compile(name string, src []byte) (*Program, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, name)
	}
	full := make([]byte, 0, len(src)+len(dispatchSource)+1)
	full = append(full, src...)
	full = append(full, '\n')
	full = append(full, dispatchSource...)

	s := tengo.NewScript(full)
	if err := declare(s, dispatchGlobals); err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	return &Program{name: name, compiled: compiled}, nil
}

type global struct {
	name  string
	value any
}

// dispatchGlobals are placeholders the dispatcher rebinds before every run.
var dispatchGlobals = []global{
	{"__event", ""},
	{"__engine", map[string]any{}},
	{"__state", map[string]any{}},
	{"__args", map[string]any{}},
}

// declare adds globals to s and stops at the first value tengo rejects.
func declare(s *tengo.Script, globals []global) error {
	for _, g := range globals {
		if err := s.Add(g.name, g.value); err != nil {
			return fmt.Errorf("declare %s: %w", g.name, err)
		}
	}
	return nil
}

func (p *Program) Name() string { return p.name }

// NewRuntime returns an independent runtime for one behaviour.
func (p *Program) NewRuntime(timeout time.Duration) *Runtime {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runtime{
		name:     p.name,
		compiled: p.compiled.Clone(),
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
		timeout:  timeout,
	}
}

// Behaviour wraps a fresh runtime in a behaviour named after the program.
func (p *Program) Behaviour() *ecs.Behaviour {
	return ecs.NewBehaviour(p.name, p.NewRuntime(DefaultTimeout))
}

// Runtime runs a script's handlers for one behaviour. It implements
// ecs.Script.
type Runtime struct {
	name     string
	compiled *tengo.Compiled
	state    *tengo.Map
	timeout  time.Duration
}

func (rt *Runtime) HandleEvent(b *ecs.Behaviour, ev ecs.Event) error {
	event, ok := handlerNames[ev.Kind]
	if !ok {
		return nil
	}
	if err := rt.compiled.Set("__event", event); err != nil {
		return err
	}
	if err := rt.compiled.Set("__engine", buildEngine(b)); err != nil {
		return err
	}
	if err := rt.compiled.Set("__state", rt.state); err != nil {
		return err
	}
	if err := rt.compiled.Set("__args", eventArgs(b, ev)); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rt.timeout)
	defer cancel()
	if err := rt.compiled.RunContext(ctx); err != nil {
		return fmt.Errorf("script: %s %s: %w", rt.name, event, err)
	}
	return nil
}

// State returns a snapshot of the script's persistent state.
func (rt *Runtime) State() map[string]any {
	out, _ := objectToAny(rt.state).(map[string]any)
	return out
}

func eventArgs(b *ecs.Behaviour, ev ecs.Event) *tengo.ImmutableMap {
	values := map[string]tengo.Object{
		"event": &tengo.String{Value: handlerNames[ev.Kind]},
		"dt":    &tengo.Float{Value: ev.DT},
	}
	if c := ev.Contact; c != nil {
		values["normal"] = vec2Object(c.Normal[0], c.Normal[1])
		points := make([]tengo.Object, 0, len(c.Points))
		for _, p := range c.Points {
			points = append(points, vec2Object(p[0], p[1]))
		}
		values["points"] = &tengo.Array{Value: points}
		values["sensor"] = boolObject(c.Sensor)
		other := ""
		if s := b.Scene(); s != nil {
			if e := s.Entity(c.OtherEntity); e != nil {
				other = e.Name()
			}
		}
		values["other"] = &tengo.String{Value: other}
	}
	return &tengo.ImmutableMap{Value: values}
}
