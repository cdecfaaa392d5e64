package ecs

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

type EntityID uint64

// Entity owns a transform, an insertion-ordered component list and its
// place in the hierarchy. Parent and children are held by id.
type Entity struct {
	id         EntityID
	name       string
	scene      *Scene
	slot       int
	transform  *Transform
	components []Component
	parent     EntityID
	children   []EntityID
	activeSelf bool
}

func (e *Entity) ID() EntityID {
	if e == nil {
		return 0
	}
	return e.id
}

func (e *Entity) Name() string {
	if e == nil {
		return ""
	}
	return e.name
}

func (e *Entity) SetName(name string) {
	if e == nil {
		return
	}
	e.name = name
}

func (e *Entity) String() string {
	if e == nil {
		return "<nil entity>"
	}
	return fmt.Sprintf("%s#%d", e.name, e.id)
}

func (e *Entity) Scene() *Scene {
	if e == nil {
		return nil
	}
	return e.scene
}

// Alive reports whether the entity is still registered with its scene.
func (e *Entity) Alive() bool {
	return e != nil && e.scene != nil
}

func (e *Entity) Transform() *Transform {
	if e == nil {
		return nil
	}
	return e.transform
}

func (e *Entity) Parent() *Entity {
	if e == nil || e.scene == nil || e.parent == 0 {
		return nil
	}
	return e.scene.Entity(e.parent)
}

func (e *Entity) Children() []*Entity {
	if e == nil || e.scene == nil {
		return nil
	}
	out := make([]*Entity, 0, len(e.children))
	for _, id := range e.children {
		if c := e.scene.Entity(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (e *Entity) ChildCount() int {
	if e == nil {
		return 0
	}
	return len(e.children)
}

// ActiveSelf is the entity's own flag.
func (e *Entity) ActiveSelf() bool {
	return e != nil && e.activeSelf
}

// Active is the own flag combined with every ancestor's flag.
func (e *Entity) Active() bool {
	for cur := e; cur != nil; cur = cur.Parent() {
		if !cur.activeSelf {
			return false
		}
	}
	return e != nil
}

// SetActive changes the own flag. Components whose effective activity flips
// receive enable or disable hooks; the transform is exempt.
func (e *Entity) SetActive(active bool) {
	if e == nil || e.scene == nil || e.activeSelf == active {
		return
	}
	snap := e.activitySnapshot()
	e.activeSelf = active
	e.fireActivityDiff(snap)
}

func (e *Entity) PendingDestroy() bool {
	return e != nil && e.scene != nil && e.scene.entityPending(e)
}

// Destroy queues the entity for the scene's next destroy drain.
func (e *Entity) Destroy() {
	if e == nil || e.scene == nil {
		return
	}
	e.scene.Destroy(e)
}

// Components returns a copy of the component list in insertion order.
func (e *Entity) Components() []Component {
	if e == nil {
		return nil
	}
	return slices.Clone(e.components)
}

// GetComponent returns the first component matching kind. Aggregate kinds
// are searched member by member.
func (e *Entity) GetComponent(kind Kind) Component {
	if e == nil {
		return nil
	}
	for _, m := range kind.Members() {
		for _, c := range e.components {
			if c.Kind() == m {
				return c
			}
		}
	}
	return nil
}

// GetComponents returns every component matching kind, grouped by aggregate
// member order and in insertion order within a member.
func (e *Entity) GetComponents(kind Kind) []Component {
	if e == nil {
		return nil
	}
	var out []Component
	for _, m := range kind.Members() {
		for _, c := range e.components {
			if c.Kind() == m {
				out = append(out, c)
			}
		}
	}
	return out
}

// ComponentInParent searches e and then its ancestors for an enabled
// component of kind that is not queued for destruction.
func (e *Entity) ComponentInParent(kind Kind) Component {
	for cur := e; cur != nil; cur = cur.Parent() {
		for _, m := range kind.Members() {
			for _, c := range cur.components {
				if c.Kind() != m {
					continue
				}
				b := c.base()
				if b.disabled || b.PendingDestroy() {
					continue
				}
				return c
			}
		}
	}
	return nil
}

func (e *Entity) AddComponent(c Component, inits ...Initializer) error {
	return e.AddComponentContext(context.Background(), c, inits...)
}

// AddComponentContext attaches c. Singleton violations destroy c and fail
// with ErrDuplicateSingletonComponent. Initializers run in order before the
// component becomes visible on the entity. Behaviours are awakened at once
// and started when the scene is starting or running.
func (e *Entity) AddComponentContext(ctx context.Context, c Component, inits ...Initializer) error {
	if e == nil || e.scene == nil || e.scene.state == SceneUnloaded {
		return ErrMissingScene
	}
	if c == nil {
		return ErrInvalidKind
	}
	b := c.base()
	if b.scene != nil || b.destroyed {
		return fmt.Errorf("%w: %s", ErrComponentAttached, c.Kind())
	}
	kind := c.Kind()
	if !kind.Valid() || kind.IsAggregate() {
		return fmt.Errorf("%w: %s", ErrInvalidKind, kind)
	}
	s := e.scene
	if kind.singletonPerEntity() && e.GetComponent(kind) != nil {
		b.reset()
		return fmt.Errorf("%w: second %s on entity %s", ErrDuplicateSingletonComponent, kind, e)
	}
	if kind.singletonPerScene() && s.hasSceneSingleton(kind) {
		b.reset()
		return fmt.Errorf("%w: second %s in scene %s", ErrDuplicateSingletonComponent, kind, s.name)
	}

	s.registerComponent(e, c)
	for _, init := range inits {
		if init == nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = init(ctx, c)
		}
		if err != nil {
			s.unregisterComponent(c)
			b.reset()
			return fmt.Errorf("ecs: initialize %s on entity %s: %w", kind, e, err)
		}
	}

	e.components = append(e.components, c)
	if a, ok := c.(Attacher); ok {
		if err := a.OnAttach(); err != nil {
			e.removeFromList(c)
			s.unregisterComponent(c)
			b.reset()
			return fmt.Errorf("ecs: attach %s to entity %s: %w", kind, e, err)
		}
	}
	if kind == KindRigidBody {
		e.NotifyHierarchyChanged()
	}
	if bh, ok := c.(*Behaviour); ok {
		bh.awaken()
	}
	// Joins a destroy already queued for the entity.
	if s.entityPending(e) {
		s.markComponentPending(c)
	}
	return nil
}

// RemoveComponent detaches c and queues it for destruction. A component
// owned by another entity is reported and left alone.
func (e *Entity) RemoveComponent(c Component) error {
	if e == nil || e.scene == nil {
		return ErrMissingScene
	}
	if c == nil || c.base().scene != e.scene || c.base().entity != e.id || !slices.Contains(e.components, c) {
		kind := Kind(0)
		if c != nil {
			kind = c.Kind()
		}
		e.scene.logger.Warn("remove component not owned by entity",
			zap.Uint64("entity", uint64(e.id)), zap.Stringer("kind", kind))
		return fmt.Errorf("%w: %s on entity %s", ErrComponentNotOwned, kind, e)
	}
	if c.Kind() == KindTransform {
		return ErrTransformRequired
	}
	wasActive := c.base().Active()
	e.removeFromList(c)
	c.base().removed = true
	e.scene.markComponentPending(c)
	if wasActive {
		fireActiveChange(c, false)
	}
	if c.Kind() == KindRigidBody {
		e.NotifyHierarchyChanged()
	}
	return nil
}

// NotifyHierarchyChanged tells every hierarchy listener in the subtree that
// its ancestry may resolve differently.
func (e *Entity) NotifyHierarchyChanged() {
	e.walk(func(cur *Entity) bool {
		for _, c := range slices.Clone(cur.components) {
			if h, ok := c.(HierarchyListener); ok {
				h.OnHierarchyChanged()
			}
		}
		return true
	})
}

// walk visits e and its descendants depth first, parents before children.
func (e *Entity) walk(fn func(*Entity) bool) bool {
	if e == nil || e.scene == nil {
		return true
	}
	if !fn(e) {
		return false
	}
	for _, child := range e.Children() {
		if !child.walk(fn) {
			return false
		}
	}
	return true
}

func (e *Entity) removeFromList(c Component) {
	if i := slices.Index(e.components, c); i >= 0 {
		e.components = slices.Delete(e.components, i, i+1)
	}
}

type activity struct {
	component Component
	active    bool
}

func (e *Entity) activitySnapshot() []activity {
	var snap []activity
	e.walk(func(cur *Entity) bool {
		for _, c := range cur.components {
			if !c.Kind().deactivatable() {
				continue
			}
			snap = append(snap, activity{component: c, active: c.base().Active()})
		}
		return true
	})
	return snap
}

func (e *Entity) fireActivityDiff(snap []activity) {
	for _, a := range snap {
		b := a.component.base()
		if !b.Attached() {
			continue
		}
		if now := b.Active(); now != a.active {
			fireActiveChange(a.component, now)
		}
	}
}

func (e *Entity) reset() {
	e.scene = nil
	e.transform = nil
	e.components = nil
	e.children = nil
	e.parent = 0
}
