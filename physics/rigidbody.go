package physics

import (
	"errors"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/scenegraph/ecs"
)

type rigidBodyOptions struct {
	mass           float64
	moment         float64
	kinematic      bool
	freezePosition bool
	freezeRotation bool
	gravityScale   float64
}

type RigidBodyOption func(*rigidBodyOptions)

// WithMass overrides the mass accumulated from collider densities.
func WithMass(mass float64) RigidBodyOption {
	return func(o *rigidBodyOptions) { o.mass = mass }
}

// WithMoment overrides the moment of inertia.
func WithMoment(moment float64) RigidBodyOption {
	return func(o *rigidBodyOptions) { o.moment = moment }
}

// WithKinematic makes the body move only by its velocity.
func WithKinematic() RigidBodyOption {
	return func(o *rigidBodyOptions) { o.kinematic = true }
}

func WithFreezePosition() RigidBodyOption {
	return func(o *rigidBodyOptions) { o.freezePosition = true }
}

func WithFreezeRotation() RigidBodyOption {
	return func(o *rigidBodyOptions) { o.freezeRotation = true }
}

func WithGravityScale(scale float64) RigidBodyOption {
	return func(o *rigidBodyOptions) { o.gravityScale = scale }
}

// RigidBody owns a dynamic or kinematic body. Colliders on its entity and on
// descendants without a nearer rigid body become shapes of this body.
type RigidBody struct {
	ecs.Base
	opts      rigidBodyOptions
	world     *World
	body      *cp.Body
	owned     []ecs.ComponentID
	poseDirty bool
	force     mgl64.Vec2
	torque    float64
}

func NewRigidBody(opts ...RigidBodyOption) *RigidBody {
	o := rigidBodyOptions{gravityScale: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return &RigidBody{opts: o}
}

func (rb *RigidBody) Kind() ecs.Kind { return ecs.KindRigidBody }

func (rb *RigidBody) Body() *cp.Body {
	if rb == nil {
		return nil
	}
	return rb.body
}

func (rb *RigidBody) Kinematic() bool {
	return rb != nil && rb.opts.kinematic
}

// Colliders returns the owned colliders in the order they connected.
func (rb *RigidBody) Colliders() []Collider {
	if rb == nil || rb.Scene() == nil {
		return nil
	}
	out := make([]Collider, 0, len(rb.owned))
	for _, id := range rb.owned {
		if c, ok := rb.Scene().Component(id).(Collider); ok {
			out = append(out, c)
		}
	}
	return out
}

func (rb *RigidBody) Mass() float64 {
	if rb.body == nil {
		return 0
	}
	return rb.body.Mass()
}

func (rb *RigidBody) Velocity() mgl64.Vec2 {
	if rb.body == nil {
		return mgl64.Vec2{}
	}
	return fromVector(rb.body.Velocity())
}

func (rb *RigidBody) SetVelocity(v mgl64.Vec2) {
	if rb.body != nil {
		rb.body.SetVelocityVector(toVector(v))
	}
}

func (rb *RigidBody) AngularVelocity() float64 {
	if rb.body == nil {
		return 0
	}
	return rb.body.AngularVelocity()
}

func (rb *RigidBody) SetAngularVelocity(w float64) {
	if rb.body != nil {
		rb.body.SetAngularVelocity(w)
	}
}

// AddForce accumulates a force applied at the center of gravity during the
// next physics update.
func (rb *RigidBody) AddForce(f mgl64.Vec2) {
	rb.force = rb.force.Add(f)
}

func (rb *RigidBody) AddTorque(t float64) {
	rb.torque += t
}

// ApplyImpulse changes velocity immediately.
func (rb *RigidBody) ApplyImpulse(impulse mgl64.Vec2) {
	if rb.body == nil {
		return
	}
	rb.body.ApplyImpulseAtWorldPoint(toVector(impulse), rb.body.Position())
}

func (rb *RigidBody) OnAttach() error {
	w, ok := ecs.Resource[*World](rb.Scene())
	if !ok || w == nil {
		return ErrNoWorld
	}
	rb.world = w
	if rb.opts.kinematic {
		rb.body = cp.NewKinematicBody()
	} else {
		rb.body = cp.NewBody(1, 1)
		rb.body.SetVelocityUpdateFunc(rb.updateVelocity)
	}
	rb.body.UserData = rb
	rb.refreshMass()
	if err := rb.syncPose(); err != nil {
		return err
	}
	if rb.Active() {
		w.addBody(rb.body)
	}
	return nil
}

func (rb *RigidBody) OnEnable() {
	if rb.world == nil {
		return
	}
	rb.poseDirty = true
	rb.world.addBody(rb.body)
	rb.Entity().NotifyHierarchyChanged()
}

// OnDisable hands owned colliders to the next rigid body up, or to
// standalone, before the body leaves the space.
func (rb *RigidBody) OnDisable() {
	if rb.world == nil {
		return
	}
	rb.Entity().NotifyHierarchyChanged()
	rb.release()
	rb.world.removeBody(rb.body)
}

func (rb *RigidBody) OnDestroy() {
	if rb.world == nil {
		return
	}
	rb.release()
	rb.world.removeBody(rb.body)
	rb.world = nil
	rb.body = nil
}

// OnTransformChanged marks the body for teleport unless the change is the
// body's own write-back.
func (rb *RigidBody) OnTransformChanged(ch ecs.TransformChange) {
	if ch.Source == ecs.Component(rb) {
		return
	}
	if ch.Mask.Has(ecs.DirtyPosition) || ch.Mask.Has(ecs.DirtyRotation) {
		rb.poseDirty = true
	}
}

// release disconnects colliders still bound to the body.
func (rb *RigidBody) release() {
	for _, c := range rb.Colliders() {
		if c.core().owner == rb.ID() {
			c.core().disconnect()
		}
	}
	rb.owned = nil
}

func (rb *RigidBody) own(c Collider) {
	if !slices.Contains(rb.owned, c.ID()) {
		rb.owned = append(rb.owned, c.ID())
	}
	rb.refreshMass()
}

func (rb *RigidBody) disown(c Collider) {
	if i := slices.Index(rb.owned, c.ID()); i >= 0 {
		rb.owned = slices.Delete(rb.owned, i, i+1)
	}
	rb.refreshMass()
}

// simulated reports whether the body is part of the space.
func (rb *RigidBody) simulated() bool {
	return rb != nil && rb.world != nil && rb.body != nil && rb.world.space.ContainsBody(rb.body)
}

// refreshMass recomputes mass and moment from the option overrides and the
// attached shapes. Bodies without density fall back to unit values.
func (rb *RigidBody) refreshMass() {
	if rb.body == nil || rb.opts.kinematic {
		return
	}
	rb.body.AccumulateMassFromShapes()
	accMass, accMoment := rb.body.Mass(), rb.body.Moment()
	if !usable(accMass) {
		accMass = 0
	}
	if !usable(accMoment) {
		accMoment = 0
	}

	mass := rb.opts.mass
	if mass <= 0 {
		mass = accMass
	}
	if !usable(mass) {
		mass = 1
	}
	moment := rb.opts.moment
	if moment <= 0 && accMass > 0 && accMoment > 0 {
		moment = accMoment * mass / accMass
	}
	if !usable(moment) {
		moment = mass
	}
	if rb.opts.freezeRotation {
		moment = math.Inf(1)
	}
	rb.body.SetMass(mass)
	rb.body.SetMoment(moment)
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func (rb *RigidBody) updateVelocity(body *cp.Body, gravity cp.Vector, damping, dt float64) {
	cp.BodyUpdateVelocity(body, gravity.Mult(rb.opts.gravityScale), damping, dt)
	if rb.opts.freezePosition {
		body.SetVelocity(0, 0)
	}
	if rb.opts.freezeRotation {
		body.SetAngularVelocity(0)
	}
}

// syncPose teleports the body to the entity's global transform.
func (rb *RigidBody) syncPose() error {
	g, err := rb.Entity().Transform().Global()
	if err != nil {
		return err
	}
	rb.body.SetAngle(g.Rotation)
	rb.body.SetPosition(toVector(g.Position))
	rb.poseDirty = false
	return nil
}

func (rb *RigidBody) syncBody() error {
	if !rb.poseDirty {
		return nil
	}
	return rb.syncPose()
}

// syncColliders applies owned colliders depth first from the body's entity
// so parents are resolved before nested children.
func (rb *RigidBody) syncColliders() error {
	var errs []error
	var visit func(e *ecs.Entity)
	visit = func(e *ecs.Entity) {
		for _, comp := range e.GetComponents(ecs.KindCollider) {
			c, ok := comp.(Collider)
			if !ok || c.State() != Owned || c.core().owner != rb.ID() {
				continue
			}
			if err := c.ApplyTransformToBody(); err != nil {
				errs = append(errs, err)
			}
		}
		for _, child := range e.Children() {
			visit(child)
		}
	}
	visit(rb.Entity())
	return errors.Join(errs...)
}

func (rb *RigidBody) applyForces() {
	if rb.opts.kinematic {
		rb.force, rb.torque = mgl64.Vec2{}, 0
		return
	}
	if rb.force != (mgl64.Vec2{}) {
		rb.body.SetForce(rb.body.Force().Add(toVector(rb.force)))
	}
	if rb.torque != 0 {
		rb.body.SetTorque(rb.body.Torque() + rb.torque)
	}
	rb.force, rb.torque = mgl64.Vec2{}, 0
}

// writeBack copies the simulated pose into the entity's local transform.
func (rb *RigidBody) writeBack() error {
	t := rb.Entity().Transform()
	return t.SetGlobalPose(rb, fromVector(rb.body.Position()), rb.body.Angle())
}
