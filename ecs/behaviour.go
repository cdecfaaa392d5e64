package ecs

import (
	"fmt"

	"go.uber.org/zap"
)

// Script receives lifecycle and contact events for a Behaviour.
type Script interface {
	HandleEvent(b *Behaviour, ev Event) error
}

type ScriptFunc func(b *Behaviour, ev Event) error

func (f ScriptFunc) HandleEvent(b *Behaviour, ev Event) error {
	return f(b, ev)
}

// Behaviour attaches a Script to an entity. It is initialized once both
// awake and start have been dispatched; only then does it see update and
// contact events.
type Behaviour struct {
	Base
	name    string
	script  Script
	awake   bool
	started bool
}

func NewBehaviour(name string, script Script) *Behaviour {
	return &Behaviour{name: name, script: script}
}

func (b *Behaviour) Kind() Kind { return KindBehaviour }

func (b *Behaviour) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

func (b *Behaviour) Script() Script {
	if b == nil {
		return nil
	}
	return b.script
}

func (b *Behaviour) Initialized() bool {
	return b != nil && b.awake && b.started
}

func (b *Behaviour) OnEnable() {
	if !b.awake {
		return
	}
	b.dispatch(Event{Kind: EventEnable})
	if s := b.scene; s != nil && (s.state == SceneStarting || s.state == SceneRunning) {
		b.start()
	}
}

func (b *Behaviour) OnDisable() {
	if b.awake {
		b.dispatch(Event{Kind: EventDisable})
	}
}

func (b *Behaviour) OnDestroy() {
	if b.awake {
		b.dispatch(Event{Kind: EventDestroy})
	}
}

func (b *Behaviour) awaken() {
	if b.awake {
		return
	}
	b.awake = true
	b.dispatch(Event{Kind: EventAwake})
	if !b.Active() {
		return
	}
	b.dispatch(Event{Kind: EventEnable})
	if s := b.scene; s != nil && (s.state == SceneStarting || s.state == SceneRunning) {
		b.start()
	}
}

// start runs once, and only for an active behaviour.
func (b *Behaviour) start() {
	if !b.awake || b.started || !b.Active() {
		return
	}
	b.started = true
	b.dispatch(Event{Kind: EventStart})
}

// dispatch delivers ev to the script. Failures are logged and never
// propagate to the caller.
func (b *Behaviour) dispatch(ev Event) {
	if b == nil || b.script == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.logger().Error("behaviour panicked",
				zap.String("behaviour", b.name),
				zap.Stringer("event", ev.Kind),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	if err := b.script.HandleEvent(b, ev); err != nil {
		b.logger().Warn("behaviour event failed",
			zap.String("behaviour", b.name),
			zap.Stringer("event", ev.Kind),
			zap.Error(err))
	}
}

func (b *Behaviour) logger() *zap.Logger {
	l := b.scene.Logger()
	if e := b.Entity(); e != nil {
		l = l.With(zap.Stringer("entity", e))
	}
	return l
}
