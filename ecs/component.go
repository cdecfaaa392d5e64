package ecs

import "context"

type ComponentID uint64

// Component is implemented by embedding Base and declaring a Kind.
type Component interface {
	Kind() Kind
	base() *Base
}

// Base carries the bookkeeping every component shares. The owning entity is
// held by id and resolved through the scene registry.
type Base struct {
	id        ComponentID
	entity    EntityID
	scene     *Scene
	self      Component
	disabled  bool
	removed   bool
	destroyed bool
}

func (b *Base) base() *Base { return b }

func (b *Base) ID() ComponentID {
	if b == nil {
		return 0
	}
	return b.id
}

func (b *Base) Scene() *Scene {
	if b == nil {
		return nil
	}
	return b.scene
}

// Entity returns the owner, or nil once the component is torn down.
func (b *Base) Entity() *Entity {
	if b == nil || b.scene == nil {
		return nil
	}
	return b.scene.Entity(b.entity)
}

func (b *Base) EntityID() EntityID {
	if b == nil {
		return 0
	}
	return b.entity
}

// Enabled is the component's own flag.
func (b *Base) Enabled() bool {
	return b != nil && !b.disabled
}

// Active reports the flag combined with the owning entity's activity. A
// component removed from its entity is never active again.
func (b *Base) Active() bool {
	if !b.Enabled() || b.removed {
		return false
	}
	e := b.Entity()
	return e != nil && e.Active()
}

// Attached reports whether the component is registered with a scene.
func (b *Base) Attached() bool {
	return b != nil && b.scene != nil && !b.destroyed
}

// PendingDestroy reports whether the component waits for the destroy drain.
func (b *Base) PendingDestroy() bool {
	if b == nil || b.scene == nil {
		return false
	}
	return b.scene.componentPending(b.id)
}

// SetEnabled toggles the own flag and fires enable/disable hooks when the
// effective state flips.
func (b *Base) SetEnabled(enabled bool) error {
	if b == nil || b.self == nil {
		return nil
	}
	if !b.self.Kind().deactivatable() {
		return ErrNotDeactivatable
	}
	was := b.Active()
	b.disabled = !enabled
	now := b.Active()
	if was != now {
		fireActiveChange(b.self, now)
	}
	return nil
}

func (b *Base) reset() {
	b.scene = nil
	b.entity = 0
	b.self = nil
	b.destroyed = true
}

// Initializer configures a component before it is attached. Initializers
// run one after another and may block.
type Initializer func(ctx context.Context, c Component) error

// Attacher runs once the component is part of its entity.
type Attacher interface {
	OnAttach() error
}

type Enabler interface {
	OnEnable()
}

type Disabler interface {
	OnDisable()
}

// Destroyer runs during the destroy drain, before the component's fields are
// cleared.
type Destroyer interface {
	OnDestroy()
}

// HierarchyListener is notified when the entity or one of its ancestors is
// reparented, or when a rigid body joins or leaves the ancestor chain.
type HierarchyListener interface {
	OnHierarchyChanged()
}

// TransformListener is notified when the global transform of the owning
// entity changes.
type TransformListener interface {
	OnTransformChanged(change TransformChange)
}

func fireActiveChange(c Component, active bool) {
	if active {
		if h, ok := c.(Enabler); ok {
			h.OnEnable()
		}
		return
	}
	if h, ok := c.(Disabler); ok {
		h.OnDisable()
	}
}
