package ecs

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/milk9111/scenegraph/space"
	"go.uber.org/zap"
)

type SceneState uint8

const (
	SceneUnloaded SceneState = iota
	SceneLoaded
	SceneStarting
	SceneRunning
)

func (s SceneState) String() string {
	switch s {
	case SceneUnloaded:
		return "unloaded"
	case SceneLoaded:
		return "loaded"
	case SceneStarting:
		return "starting"
	case SceneRunning:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

type Option func(*Scene)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithName(name string) Option {
	return func(s *Scene) {
		s.name = name
	}
}

// Scene owns the entity registry, the destroy queue and the frame order:
// behaviour updates, systems, queued events, then the destroy drain.
type Scene struct {
	id     uuid.UUID
	name   string
	state  SceneState
	logger *zap.Logger

	transformIDs  space.IDAllocator
	nextEntity    EntityID
	nextComponent ComponentID

	entities       arena[*Entity]
	entitySlots    map[EntityID]int
	components     arena[Component]
	componentSlots map[ComponentID]int
	byKind         [kindCount]SparseSet[Component]
	roots          []EntityID
	singletons     map[Kind]ComponentID

	pendingEntities   bitset
	pendingComponents bitset

	events    EventQueue
	scheduler Scheduler
	resources map[reflect.Type]any

	frame     uint64
	destroyed uint64
	updating  bool
}

func NewScene(opts ...Option) *Scene {
	s := &Scene{
		id:             uuid.New(),
		name:           "scene",
		logger:         zap.NewNop(),
		entitySlots:    make(map[EntityID]int),
		componentSlots: make(map[ComponentID]int),
		singletons:     make(map[Kind]ComponentID),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("scene", s.name), zap.Stringer("scene_id", s.id))
	return s
}

func (s *Scene) ID() uuid.UUID {
	if s == nil {
		return uuid.Nil
	}
	return s.id
}

func (s *Scene) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

func (s *Scene) State() SceneState {
	if s == nil {
		return SceneUnloaded
	}
	return s.state
}

func (s *Scene) Logger() *zap.Logger {
	if s == nil || s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}

// Destroyed counts entities torn down since the scene was created.
func (s *Scene) Destroyed() uint64 {
	if s == nil {
		return 0
	}
	return s.destroyed
}

// Frame counts completed calls to Update.
func (s *Scene) Frame() uint64 {
	if s == nil {
		return 0
	}
	return s.frame
}

// Updating reports whether the scene is inside Update.
func (s *Scene) Updating() bool {
	return s != nil && s.updating
}

func (s *Scene) AddSystem(system System) {
	if s == nil {
		return
	}
	s.scheduler.Add(system)
}

func (s *Scene) Systems() []System {
	if s == nil {
		return nil
	}
	return s.scheduler.Systems()
}

// Load makes the scene accept entities.
func (s *Scene) Load() error {
	if s == nil {
		return ErrMissingScene
	}
	if s.state != SceneUnloaded {
		return nil
	}
	s.state = SceneLoaded
	s.logger.Info("scene loaded")
	return nil
}

// Start dispatches start to every awake behaviour and moves the scene to
// running. Behaviours added while starting are started immediately.
func (s *Scene) Start() error {
	if s == nil || s.state == SceneUnloaded {
		return ErrMissingScene
	}
	if s.state != SceneLoaded {
		return nil
	}
	s.state = SceneStarting
	for _, b := range s.behaviours() {
		b.start()
	}
	s.state = SceneRunning
	s.logger.Info("scene started", zap.Int("entities", s.entities.len()))
	return nil
}

// Unload destroys every entity immediately and rejects new ones.
func (s *Scene) Unload() {
	if s == nil || s.state == SceneUnloaded {
		return
	}
	for _, e := range s.Roots() {
		s.Destroy(e)
	}
	s.drain()
	s.events.drain()
	s.state = SceneUnloaded
	s.logger.Info("scene unloaded")
}

// Update runs one frame.
func (s *Scene) Update(dt float64) error {
	if s == nil || s.state == SceneUnloaded {
		return ErrMissingScene
	}
	if s.state != SceneRunning {
		return ErrSceneNotRunning
	}
	s.updating = true
	for _, b := range s.behaviours() {
		if b.Initialized() && b.Active() {
			b.dispatch(Event{Kind: EventUpdate, DT: dt})
		}
	}
	err := s.scheduler.Update(s, dt)
	s.dispatchQueued()
	s.updating = false
	s.drain()
	s.frame++
	return err
}

// Flush drains the destroy queue outside of Update.
func (s *Scene) Flush() {
	if s == nil || s.updating {
		return
	}
	s.drain()
}

// NewEntity creates a root entity with its transform.
func (s *Scene) NewEntity(name string) (*Entity, error) {
	if s == nil || s.state == SceneUnloaded {
		return nil, ErrMissingScene
	}
	s.nextEntity++
	e := &Entity{
		id:         s.nextEntity,
		name:       name,
		scene:      s,
		activeSelf: true,
	}
	e.slot = s.entities.insert(e)
	s.entitySlots[e.id] = e.slot

	t := &Transform{node: space.NewTransformable(&s.transformIDs)}
	s.registerComponent(e, t)
	e.transform = t
	e.components = append(e.components, t)

	s.roots = append(s.roots, e.id)
	return e, nil
}

func (s *Scene) Entity(id EntityID) *Entity {
	if s == nil {
		return nil
	}
	slot, ok := s.entitySlots[id]
	if !ok {
		return nil
	}
	e, _ := s.entities.get(slot)
	return e
}

// Entities returns live entities in creation order.
func (s *Scene) Entities() []*Entity {
	if s == nil {
		return nil
	}
	out := make([]*Entity, 0, s.entities.len())
	s.entities.each(func(_ int, e *Entity) bool {
		out = append(out, e)
		return true
	})
	slices.SortFunc(out, func(a, b *Entity) int {
		return compareIDs(uint64(a.id), uint64(b.id))
	})
	return out
}

func (s *Scene) EntityCount() int {
	if s == nil {
		return 0
	}
	return s.entities.len()
}

// Roots returns parentless entities in attach order.
func (s *Scene) Roots() []*Entity {
	if s == nil {
		return nil
	}
	out := make([]*Entity, 0, len(s.roots))
	for _, id := range s.roots {
		if e := s.Entity(id); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first entity with name in creation order.
func (s *Scene) Find(name string) *Entity {
	for _, e := range s.Entities() {
		if e.name == name {
			return e
		}
	}
	return nil
}

func (s *Scene) Component(id ComponentID) Component {
	if s == nil {
		return nil
	}
	slot, ok := s.componentSlots[id]
	if !ok {
		return nil
	}
	c, _ := s.components.get(slot)
	return c
}

// ComponentsOfKind returns registered components matching kind, ordered by
// aggregate member order then creation order.
func (s *Scene) ComponentsOfKind(kind Kind) []Component {
	if s == nil {
		return nil
	}
	var out []Component
	for _, m := range kind.Members() {
		values := s.byKind[m].Values()
		start := len(out)
		out = append(out, values...)
		slices.SortFunc(out[start:], func(a, b Component) int {
			return compareIDs(uint64(a.base().id), uint64(b.base().id))
		})
	}
	return out
}

// Converter returns a space converter bounded by the live entity count.
func (s *Scene) Converter() *space.Converter {
	if s == nil {
		return space.NewConverter(nil, 0)
	}
	return space.NewConverter(&s.transformIDs, s.entities.len())
}

// Destroy queues e, its components and its children for the next drain.
// Queuing twice has no further effect.
func (s *Scene) Destroy(e *Entity) {
	if s == nil || e == nil || e.scene != s {
		return
	}
	if s.pendingEntities.has(e.slot) {
		return
	}
	s.pendingEntities.set(e.slot)
	for _, c := range e.components {
		s.markComponentPending(c)
	}
	for _, child := range e.Children() {
		s.Destroy(child)
	}
}

// PendingDestroyCount returns queued entities plus queued components.
func (s *Scene) PendingDestroyCount() int {
	if s == nil {
		return 0
	}
	return s.pendingEntities.count() + s.pendingComponents.count()
}

// QueueEvent schedules ev for behaviour b after the systems have run.
func (s *Scene) QueueEvent(b *Behaviour, ev Event) {
	if s == nil || b == nil || b.scene != s {
		return
	}
	s.events.push(b.id, ev)
}

// QueueContact schedules a contact event for every behaviour on the
// entities owning a and b.
func (s *Scene) QueueContact(phase ContactPhase, sensor bool, a, b Component, points []mgl64.Vec2, normal mgl64.Vec2) {
	if s == nil || a == nil || b == nil {
		return
	}
	kind := ContactEvent(phase, sensor)
	s.queueContactSide(kind, sensor, a, b, points, normal)
	s.queueContactSide(kind, sensor, b, a, points, normal.Mul(-1))
}

func (s *Scene) queueContactSide(kind EventKind, sensor bool, self, other Component, points []mgl64.Vec2, normal mgl64.Vec2) {
	e := self.base().Entity()
	if e == nil {
		return
	}
	contact := &Contact{
		Self:        self,
		Other:       other,
		SelfEntity:  self.base().entity,
		OtherEntity: other.base().entity,
		Points:      points,
		Normal:      normal,
		Sensor:      sensor,
	}
	for _, c := range e.components {
		if b, ok := c.(*Behaviour); ok {
			s.events.push(b.id, Event{Kind: kind, Contact: contact})
		}
	}
}

func (s *Scene) PendingEvents() int {
	if s == nil {
		return 0
	}
	return s.events.Len()
}

const maxEventPasses = 8

func (s *Scene) dispatchQueued() {
	for pass := 0; pass < maxEventPasses; pass++ {
		items := s.events.drain()
		if len(items) == 0 {
			return
		}
		for _, item := range items {
			b, ok := s.Component(item.target).(*Behaviour)
			if !ok || !b.Initialized() || !b.Active() {
				continue
			}
			b.dispatch(item.event)
		}
	}
	if n := s.events.Len(); n > 0 {
		s.logger.Warn("dropping events queued by event handlers", zap.Int("count", n))
		s.events.drain()
	}
}

func (s *Scene) behaviours() []*Behaviour {
	values := s.byKind[KindBehaviour].Values()
	out := make([]*Behaviour, 0, len(values))
	for _, c := range values {
		if b, ok := c.(*Behaviour); ok {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b *Behaviour) int {
		return compareIDs(uint64(a.id), uint64(b.id))
	})
	return out
}

func (s *Scene) registerComponent(e *Entity, c Component) {
	s.nextComponent++
	b := c.base()
	b.id = s.nextComponent
	b.entity = e.id
	b.scene = s
	b.self = c
	b.destroyed = false
	slot := s.components.insert(c)
	s.componentSlots[b.id] = slot
	s.byKind[c.Kind()].Set(slot, c)
	if c.Kind().singletonPerScene() {
		s.singletons[c.Kind()] = b.id
	}
}

func (s *Scene) unregisterComponent(c Component) {
	b := c.base()
	slot, ok := s.componentSlots[b.id]
	if !ok {
		return
	}
	s.byKind[c.Kind()].Remove(slot)
	s.components.remove(slot)
	s.pendingComponents.clear(slot)
	delete(s.componentSlots, b.id)
	if s.singletons[c.Kind()] == b.id {
		delete(s.singletons, c.Kind())
	}
}

func (s *Scene) hasSceneSingleton(kind Kind) bool {
	id, ok := s.singletons[kind]
	return ok && s.Component(id) != nil
}

func (s *Scene) markComponentPending(c Component) {
	if slot, ok := s.componentSlots[c.base().id]; ok {
		s.pendingComponents.set(slot)
	}
}

func (s *Scene) componentPending(id ComponentID) bool {
	slot, ok := s.componentSlots[id]
	return ok && s.pendingComponents.has(slot)
}

func (s *Scene) entityPending(e *Entity) bool {
	return s.pendingEntities.has(e.slot)
}

const maxDrainPasses = 64

// drain tears down everything queued for destruction. Hooks may queue more
// work; it is handled in further passes.
func (s *Scene) drain() {
	for pass := 0; pass < maxDrainPasses; pass++ {
		if !s.pendingComponents.any() && !s.pendingEntities.any() {
			return
		}
		comps := s.collectPendingComponents()
		ents := s.collectPendingEntities()

		for _, c := range comps {
			if h, ok := c.(Destroyer); ok {
				h.OnDestroy()
			}
		}
		for _, c := range comps {
			s.unregisterComponent(c)
			if e := c.base().Entity(); e != nil {
				e.removeFromList(c)
			}
			c.base().reset()
		}
		for _, e := range ents {
			for _, child := range e.Children() {
				if !s.entityPending(child) {
					s.Destroy(child)
				}
			}
		}
		for _, e := range ents {
			if s.entityPending(e) {
				continue
			}
			s.removeEntity(e)
			s.destroyed++
		}
		if len(comps) > 0 || len(ents) > 0 {
			s.logger.Debug("destroy queue drained", zap.Int("components", len(comps)), zap.Int("entities", len(ents)))
		}
	}
	s.logger.Error("destroy queue did not settle", zap.Int("pending", s.PendingDestroyCount()))
}

func (s *Scene) collectPendingComponents() []Component {
	var out []Component
	s.pendingComponents.each(func(slot int) bool {
		if c, ok := s.components.get(slot); ok {
			out = append(out, c)
		}
		return true
	})
	s.pendingComponents.reset()
	slices.SortFunc(out, func(a, b Component) int {
		return compareIDs(uint64(a.base().id), uint64(b.base().id))
	})
	return out
}

func (s *Scene) collectPendingEntities() []*Entity {
	var out []*Entity
	s.pendingEntities.each(func(slot int) bool {
		if e, ok := s.entities.get(slot); ok {
			out = append(out, e)
		}
		return true
	})
	s.pendingEntities.reset()
	slices.SortFunc(out, func(a, b *Entity) int {
		return compareIDs(uint64(b.id), uint64(a.id))
	})
	return out
}

// removeEntity tears down components that reached the entity after its
// destroy was collected, then forgets the entity.
func (s *Scene) removeEntity(e *Entity) {
	for _, c := range e.components {
		if h, ok := c.(Destroyer); ok && !c.base().destroyed {
			h.OnDestroy()
		}
	}
	for _, c := range e.components {
		s.unregisterComponent(c)
		c.base().reset()
	}
	e.detach()
	s.entities.remove(e.slot)
	delete(s.entitySlots, e.id)
	e.reset()
}

func compareIDs(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
