package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/scenegraph/ecs"
	"github.com/milk9111/scenegraph/space"
	"go.uber.org/zap"
)

// ColliderState tracks how a collider is registered with the physics world.
type ColliderState uint8

const (
	Disconnected ColliderState = iota
	// Standalone colliders sit on their own static body driven by their
	// entity's transform.
	Standalone
	// Owned colliders are shapes of the nearest ancestor rigid body.
	Owned
)

func (s ColliderState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Standalone:
		return "standalone"
	case Owned:
		return "owned"
	default:
		return fmt.Sprintf("ColliderState(%d)", uint8(s))
	}
}

// Material holds the surface properties copied onto every shape a collider
// builds.
type Material struct {
	Friction   float64 `yaml:"friction"`
	Elasticity float64 `yaml:"elasticity"`
	Density    float64 `yaml:"density"`
}

// Collider is implemented by BoxCollider, CircleCollider and
// PolygonCollider.
type Collider interface {
	ecs.Component
	ID() ecs.ComponentID
	Scene() *ecs.Scene
	Entity() *ecs.Entity
	Active() bool
	State() ColliderState
	Owner() *RigidBody
	Shape() *cp.Shape
	Sensor() bool
	SetSensor(sensor bool)
	ApplyTransformToBody() error
	Outline() []mgl64.Vec2

	core() *colliderCore
	buildShape(body *cp.Body, p placement) *cp.Shape
}

// placement maps collider-local points into the frame of the body the
// shape is attached to.
type placement struct {
	offset   mgl64.Vec2
	rotation float64
	scale    mgl64.Vec2
	// outer is the owning rigid body's global scale; the body frame itself
	// is unscaled.
	outer mgl64.Vec2
}

func standalonePlacement(global *space.Transformable) placement {
	return placement{scale: global.Scale, outer: mgl64.Vec2{1, 1}}
}

func (p placement) point(v mgl64.Vec2) cp.Vector {
	local := mgl64.Vec2{v[0] * p.scale[0], v[1] * p.scale[1]}
	local = p.offset.Add(mgl64.Rotate2D(p.rotation).Mul2x1(local))
	return cp.Vector{X: local[0] * p.outer[0], Y: local[1] * p.outer[1]}
}

// radius scales r by the largest absolute axis scale.
func (p placement) radius(r float64) float64 {
	sx := math.Abs(p.scale[0] * p.outer[0])
	sy := math.Abs(p.scale[1] * p.outer[1])
	return r * math.Max(sx, sy)
}

// colliderCore is the binding state machine shared by every collider kind.
type colliderCore struct {
	self     Collider
	world    *World
	state    ColliderState
	owner    ecs.ComponentID
	shape    *cp.Shape
	static   *cp.Body
	dirty    ecs.DirtyMask
	sensor   bool
	material *Material
	filter   cp.ShapeFilter
}

func newColliderCore(self Collider) colliderCore {
	return colliderCore{self: self, filter: cp.SHAPE_FILTER_ALL}
}

func (c *colliderCore) core() *colliderCore { return c }

func (c *colliderCore) State() ColliderState {
	if c == nil {
		return Disconnected
	}
	return c.state
}

// Owner resolves the owning rigid body through the scene registry.
func (c *colliderCore) Owner() *RigidBody {
	if c == nil || c.state != Owned {
		return nil
	}
	s := c.self.Scene()
	if s == nil {
		return nil
	}
	rb, _ := s.Component(c.owner).(*RigidBody)
	return rb
}

func (c *colliderCore) Shape() *cp.Shape {
	if c == nil {
		return nil
	}
	return c.shape
}

func (c *colliderCore) Sensor() bool {
	return c != nil && c.sensor
}

func (c *colliderCore) SetSensor(sensor bool) {
	c.sensor = sensor
	if c.shape != nil {
		c.shape.SetSensor(sensor)
	}
}

// Material returns the explicit material, or the world default.
func (c *colliderCore) Material() Material {
	if c.material != nil {
		return *c.material
	}
	if c.world != nil {
		return c.world.cfg.Material
	}
	return DefaultConfig().Material
}

// SetMaterial applies to the current shape and every rebuilt one.
func (c *colliderCore) SetMaterial(m Material) {
	c.material = &m
	if c.shape != nil {
		c.applyProperties(c.shape)
		if rb := c.Owner(); rb != nil {
			rb.refreshMass()
		}
	}
}

// SetFilter restricts which colliders this one may touch.
func (c *colliderCore) SetFilter(group, categories, mask uint) {
	c.filter = cp.NewShapeFilter(group, categories, mask)
	if c.shape != nil {
		c.shape.SetFilter(c.filter)
	}
}

func (c *colliderCore) OnAttach() error {
	w, ok := ecs.Resource[*World](c.self.Scene())
	if !ok || w == nil {
		return ErrNoWorld
	}
	c.world = w
	return c.bind()
}

func (c *colliderCore) OnEnable() {
	c.rebind()
}

func (c *colliderCore) OnDisable() {
	c.disconnect()
}

func (c *colliderCore) OnHierarchyChanged() {
	c.rebind()
}

func (c *colliderCore) OnDestroy() {
	c.disconnect()
	c.world = nil
}

// OnTransformChanged accumulates dirty flags. For owned colliders only the
// part of the change that moves the shape relative to its body counts.
func (c *colliderCore) OnTransformChanged(ch ecs.TransformChange) {
	mask := ch.Mask
	if c.state == Owned {
		if rb := c.Owner(); rb != nil {
			rbEntity := rb.Entity()
			if ch.Origin == rbEntity || ch.Origin.IsAncestorOf(rbEntity) {
				mask &= ecs.DirtyScale
			}
		}
	}
	c.dirty |= mask
}

func (c *colliderCore) rebind() {
	if err := c.bind(); err != nil {
		c.logger().Warn("collider rebind failed", zap.Error(err))
	}
}

// bind resolves the nearest enabled rigid body on the entity or its
// ancestors and connects to it, or to a standalone static body when there
// is none. Binding to the same target again is a no-op.
func (c *colliderCore) bind() error {
	if c.world == nil {
		return nil
	}
	if !c.self.Active() {
		c.disconnect()
		return nil
	}
	e := c.self.Entity()
	var rb *RigidBody
	if found, ok := e.ComponentInParent(ecs.KindRigidBody).(*RigidBody); ok && found.simulated() {
		rb = found
	}
	switch {
	case rb == nil && c.state == Standalone:
		return nil
	case rb != nil && c.state == Owned && c.owner == rb.ID():
		return nil
	}

	c.disconnect()
	c.dirty = ecs.DirtyAll
	if rb != nil {
		return c.connectOwned(rb)
	}
	return c.connectStandalone()
}

func (c *colliderCore) connectStandalone() error {
	g, err := c.global()
	if err != nil {
		return err
	}
	body := cp.NewStaticBody()
	body.SetAngle(g.Rotation)
	body.SetPosition(toVector(g.Position))
	shape := c.self.buildShape(body, standalonePlacement(g))
	if shape == nil {
		return ErrInvalidShape
	}
	c.applyProperties(shape)

	c.world.addBody(body)
	c.world.addShape(shape)
	c.static = body
	c.shape = shape
	c.state = Standalone
	c.dirty = 0
	c.logger().Debug("collider connected", zap.Stringer("state", c.state))
	return nil
}

func (c *colliderCore) connectOwned(rb *RigidBody) error {
	p, err := c.ownedPlacement(rb)
	if err != nil {
		return err
	}
	shape := c.self.buildShape(rb.body, p)
	if shape == nil {
		return ErrInvalidShape
	}
	c.applyProperties(shape)

	c.world.addShape(shape)
	c.shape = shape
	c.state = Owned
	c.owner = rb.ID()
	c.dirty = 0
	rb.own(c.self)
	c.logger().Debug("collider connected",
		zap.Stringer("state", c.state),
		zap.Uint64("rigidbody", uint64(rb.ID())))
	return nil
}

// disconnect unregisters the shape and, for standalone colliders, the static
// body. The collider ends up Disconnected.
func (c *colliderCore) disconnect() {
	if c.state == Disconnected {
		return
	}
	prev := c.state
	rb := c.Owner()
	if c.world != nil {
		c.world.removeShape(c.shape)
		c.world.removeBody(c.static)
	}
	if rb != nil {
		rb.disown(c.self)
	}
	c.shape = nil
	c.static = nil
	c.owner = 0
	c.state = Disconnected
	c.logger().Debug("collider disconnected", zap.Stringer("from", prev))
}

// ApplyTransformToBody pushes the dirty parts of the entity's transform into
// the physics shape and clears the dirty flags.
func (c *colliderCore) ApplyTransformToBody() error {
	if c == nil || c.state == Disconnected || c.dirty == 0 {
		return nil
	}
	var err error
	switch c.state {
	case Standalone:
		err = c.applyStandalone()
	case Owned:
		err = c.applyOwned()
	}
	if err == nil {
		c.dirty = 0
	}
	return err
}

func (c *colliderCore) applyStandalone() error {
	g, err := c.global()
	if err != nil {
		return err
	}
	// Out of the broad phase while the body and shape are mutated.
	c.world.removeShape(c.shape)
	if c.dirty.Has(ecs.DirtyScale) {
		c.static.SetAngle(0)
		shape := c.self.buildShape(c.static, standalonePlacement(g))
		if shape == nil {
			c.world.addShape(c.shape)
			return ErrInvalidShape
		}
		c.replaceShape(shape)
	}
	if c.dirty.Has(ecs.DirtyRotation) || c.dirty.Has(ecs.DirtyScale) {
		c.static.SetAngle(g.Rotation)
	}
	if c.dirty.Has(ecs.DirtyPosition) || c.dirty.Has(ecs.DirtyRotation) {
		c.static.SetPosition(toVector(g.Position))
	}
	c.world.addShape(c.shape)
	return nil
}

func (c *colliderCore) applyOwned() error {
	rb := c.Owner()
	if rb == nil {
		return nil
	}
	p, err := c.ownedPlacement(rb)
	if err != nil {
		return err
	}
	shape := c.self.buildShape(rb.body, p)
	if shape == nil {
		return ErrInvalidShape
	}
	c.world.removeShape(c.shape)
	c.replaceShape(shape)
	c.world.addShape(c.shape)
	rb.refreshMass()
	return nil
}

func (c *colliderCore) replaceShape(shape *cp.Shape) {
	c.applyProperties(shape)
	c.shape = shape
}

func (c *colliderCore) applyProperties(shape *cp.Shape) {
	m := c.Material()
	shape.UserData = c.self
	shape.SetCollisionType(colliderType)
	shape.SetSensor(c.sensor)
	shape.SetFriction(m.Friction)
	shape.SetElasticity(m.Elasticity)
	shape.SetFilter(c.filter)
	if m.Density > 0 {
		shape.SetDensity(m.Density)
	}
}

func (c *colliderCore) global() (*space.Transformable, error) {
	e := c.self.Entity()
	if e == nil {
		return nil, ecs.ErrMissingScene
	}
	return e.Transform().Global()
}

// ownedPlacement expresses the collider's entity in the rigid body's frame.
func (c *colliderCore) ownedPlacement(rb *RigidBody) (placement, error) {
	e := c.self.Entity()
	rbEntity := rb.Entity()
	if e == nil || rbEntity == nil {
		return placement{}, ecs.ErrMissingScene
	}
	rel, err := e.Transform().ToLocal(rbEntity.Transform())
	if err != nil {
		return placement{}, err
	}
	g, err := rbEntity.Transform().Global()
	if err != nil {
		return placement{}, err
	}
	return placement{
		offset:   rel.Position,
		rotation: rel.Rotation,
		scale:    rel.Scale,
		outer:    g.Scale,
	}, nil
}

// Outline returns the shape in world coordinates: polygon vertices, or a
// sampled circle.
func (c *colliderCore) Outline() []mgl64.Vec2 {
	if c == nil || c.shape == nil {
		return nil
	}
	switch class := c.shape.Class.(type) {
	case *cp.PolyShape:
		out := make([]mgl64.Vec2, class.Count())
		for i := range out {
			out[i] = fromVector(class.TransformVert(i))
		}
		return out
	case *cp.Circle:
		const segments = 24
		center := fromVector(class.TransformC())
		out := make([]mgl64.Vec2, segments)
		for i := range out {
			a := 2 * math.Pi * float64(i) / segments
			out[i] = center.Add(mgl64.Vec2{math.Cos(a), math.Sin(a)}.Mul(class.Radius()))
		}
		return out
	}
	return nil
}

func (c *colliderCore) logger() *zap.Logger {
	l := c.self.Scene().Logger()
	if e := c.self.Entity(); e != nil {
		l = l.With(zap.Stringer("entity", e))
	}
	return l.With(zap.Stringer("collider", c.self.Kind()))
}
