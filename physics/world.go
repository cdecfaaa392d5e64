package physics

import (
	"errors"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/scenegraph/ecs"
	"go.uber.org/zap"
)

const colliderType cp.CollisionType = 1

var (
	ErrNoWorld      = errors.New("physics: scene has no physics world")
	ErrInvalidShape = errors.New("physics: invalid collider shape")
)

// Config tunes the simulation. FixedStep of zero steps once per frame with
// the frame's dt.
type Config struct {
	Gravity     mgl64.Vec2 `yaml:"gravity"`
	Iterations  int        `yaml:"iterations"`
	FixedStep   float64    `yaml:"fixed_step"`
	MaxSubSteps int        `yaml:"max_substeps"`
	Damping     float64    `yaml:"damping"`
	Material    Material   `yaml:"material"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:     mgl64.Vec2{0, 980},
		Iterations:  20,
		FixedStep:   1.0 / 60.0,
		MaxSubSteps: 8,
		Damping:     1,
		Material:    Material{Friction: 0.8, Density: 1},
	}
}

// Stats is a snapshot of the physics world after a frame.
type Stats struct {
	Bodies       int
	StaticBodies int
	Shapes       int
	Contacts     int
	Steps        int
}

// World owns the Chipmunk space. It is a scene resource and runs as a scene
// system: sync colliders, apply forces, step, write back, queue contacts.
type World struct {
	cfg         Config
	space       *cp.Space
	logger      *zap.Logger
	accumulator float64
	steps       int

	touching map[pairKey]*contact
	previous map[pairKey]*contact
}

// NewWorld creates a physics world with its own space.
func NewWorld(cfg Config, logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultConfig().Iterations
	}
	if cfg.MaxSubSteps <= 0 {
		cfg.MaxSubSteps = DefaultConfig().MaxSubSteps
	}
	if cfg.Damping <= 0 {
		cfg.Damping = 1
	}

	space := cp.NewSpace()
	space.Iterations = uint(cfg.Iterations)
	space.SetGravity(toVector(cfg.Gravity))
	space.SetDamping(cfg.Damping)

	w := &World{
		cfg:      cfg,
		space:    space,
		logger:   logger.Named("physics"),
		touching: make(map[pairKey]*contact),
		previous: make(map[pairKey]*contact),
	}
	w.setupHandlers()
	return w
}

// Attach registers w as the scene's physics resource and system. Colliders
// and rigid bodies added afterwards bind to it.
func (w *World) Attach(s *ecs.Scene) {
	if w == nil || s == nil {
		return
	}
	ecs.SetResource(s, w)
	s.AddSystem(w)
}

// Space returns the underlying Chipmunk space.
func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

func (w *World) Config() Config {
	if w == nil {
		return DefaultConfig()
	}
	return w.cfg
}

// Update implements ecs.System.
func (w *World) Update(s *ecs.Scene, dt float64) error {
	if w == nil || w.space == nil {
		return nil
	}
	var errs []error

	colliders := ecs.ComponentsOf[Collider](s, ecs.KindCollider)
	for _, c := range colliders {
		if c.State() == Standalone {
			errs = append(errs, c.ApplyTransformToBody())
		}
	}

	bodies := ecs.ComponentsOf[*RigidBody](s, ecs.KindRigidBody)
	for _, rb := range bodies {
		if !rb.simulated() {
			continue
		}
		errs = append(errs, rb.syncBody(), rb.syncColliders())
		rb.applyForces()
	}

	steps := w.advance(dt)
	if steps > 0 {
		for _, rb := range bodies {
			if rb.simulated() {
				errs = append(errs, rb.writeBack())
			}
		}
		w.dispatchContacts(s)
	}
	return errors.Join(errs...)
}

// advance runs the fixed steps covered by dt and returns how many ran.
func (w *World) advance(dt float64) int {
	if dt <= 0 {
		return 0
	}
	step := w.cfg.FixedStep
	n := 1
	if step > 0 {
		w.accumulator += dt
		n = int(math.Floor(w.accumulator / step))
		if n > w.cfg.MaxSubSteps {
			w.logger.Debug("dropping physics time", zap.Float64("seconds", float64(n-w.cfg.MaxSubSteps)*step))
			n = w.cfg.MaxSubSteps
			w.accumulator = float64(n) * step
		}
		w.accumulator -= float64(n) * step
	} else {
		step = dt
	}
	if n == 0 {
		return 0
	}

	clear(w.touching)
	for i := 0; i < n; i++ {
		w.space.Step(step)
	}
	w.steps += n
	return n
}

// Step advances the simulation by dt without syncing the scene.
func (w *World) Step(dt float64) {
	if w == nil || w.space == nil {
		return
	}
	w.space.Step(dt)
}

func (w *World) Stats() Stats {
	if w == nil || w.space == nil {
		return Stats{}
	}
	st := Stats{Contacts: len(w.previous), Steps: w.steps}
	w.space.EachBody(func(body *cp.Body) {
		if body.GetType() == cp.BODY_STATIC {
			st.StaticBodies++
			return
		}
		st.Bodies++
	})
	w.space.EachShape(func(*cp.Shape) {
		st.Shapes++
	})
	return st
}

func (w *World) addShape(shape *cp.Shape) {
	if shape != nil && !w.space.ContainsShape(shape) {
		w.space.AddShape(shape)
	}
}

func (w *World) removeShape(shape *cp.Shape) {
	if shape != nil && w.space.ContainsShape(shape) {
		w.space.RemoveShape(shape)
	}
}

func (w *World) addBody(body *cp.Body) {
	if body != nil && !w.space.ContainsBody(body) {
		w.space.AddBody(body)
	}
}

func (w *World) removeBody(body *cp.Body) {
	if body != nil && w.space.ContainsBody(body) {
		w.space.RemoveBody(body)
	}
}

func (w *World) setupHandlers() {
	handler := w.space.NewCollisionHandler(colliderType, colliderType)
	handler.UserData = w
	handler.PreSolveFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		world, ok := userData.(*World)
		if !ok || world == nil {
			return true
		}
		shapeA, shapeB := arb.Shapes()
		a, okA := shapeA.UserData.(Collider)
		b, okB := shapeB.UserData.(Collider)
		if !okA || !okB {
			return true
		}
		world.record(a, b, arb.ContactPointSet(), shapeA.Sensor() || shapeB.Sensor())
		return true
	}
}

func toVector(v mgl64.Vec2) cp.Vector {
	return cp.Vector{X: v[0], Y: v[1]}
}

func fromVector(v cp.Vector) mgl64.Vec2 {
	return mgl64.Vec2{v.X, v.Y}
}

func sortedKeys(m map[pairKey]*contact) []pairKey {
	keys := make([]pairKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y pairKey) int {
		if x.a != y.a {
			return compare(uint64(x.a), uint64(y.a))
		}
		return compare(uint64(x.b), uint64(y.b))
	})
	return keys
}

func compare(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
