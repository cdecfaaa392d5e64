package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/scenegraph/ecs"
)

// BoxCollider is an axis-aligned box in its entity's local frame.
type BoxCollider struct {
	ecs.Base
	colliderCore
	size   mgl64.Vec2
	offset mgl64.Vec2
}

func NewBoxCollider(width, height float64) *BoxCollider {
	c := &BoxCollider{size: mgl64.Vec2{width, height}}
	c.colliderCore = newColliderCore(c)
	return c
}

func (c *BoxCollider) Kind() ecs.Kind { return ecs.KindBoxCollider }

func (c *BoxCollider) Size() mgl64.Vec2   { return c.size }
func (c *BoxCollider) Offset() mgl64.Vec2 { return c.offset }

// SetSize takes effect on the next sync.
func (c *BoxCollider) SetSize(width, height float64) {
	c.size = mgl64.Vec2{width, height}
	c.dirty |= ecs.DirtyScale
}

func (c *BoxCollider) SetOffset(offset mgl64.Vec2) {
	c.offset = offset
	c.dirty |= ecs.DirtyScale
}

func (c *BoxCollider) buildShape(body *cp.Body, p placement) *cp.Shape {
	if c.size[0] <= 0 || c.size[1] <= 0 {
		return nil
	}
	hw, hh := c.size[0]/2, c.size[1]/2
	corners := []mgl64.Vec2{
		c.offset.Add(mgl64.Vec2{hw, -hh}),
		c.offset.Add(mgl64.Vec2{hw, hh}),
		c.offset.Add(mgl64.Vec2{-hw, hh}),
		c.offset.Add(mgl64.Vec2{-hw, -hh}),
	}
	return polyShape(body, corners, p)
}

// CircleCollider is a circle around an offset from its entity's origin.
// Under non-uniform scale the radius follows the larger axis.
type CircleCollider struct {
	ecs.Base
	colliderCore
	radius float64
	offset mgl64.Vec2
}

func NewCircleCollider(radius float64) *CircleCollider {
	c := &CircleCollider{radius: radius}
	c.colliderCore = newColliderCore(c)
	return c
}

func (c *CircleCollider) Kind() ecs.Kind { return ecs.KindCircleCollider }

func (c *CircleCollider) Radius() float64    { return c.radius }
func (c *CircleCollider) Offset() mgl64.Vec2 { return c.offset }

func (c *CircleCollider) SetRadius(radius float64) {
	c.radius = radius
	c.dirty |= ecs.DirtyScale
}

func (c *CircleCollider) SetOffset(offset mgl64.Vec2) {
	c.offset = offset
	c.dirty |= ecs.DirtyScale
}

func (c *CircleCollider) buildShape(body *cp.Body, p placement) *cp.Shape {
	r := p.radius(c.radius)
	if r <= 0 {
		return nil
	}
	return cp.NewCircle(body, r, p.point(c.offset))
}

// PolygonCollider is the convex hull of its points.
type PolygonCollider struct {
	ecs.Base
	colliderCore
	points []mgl64.Vec2
}

// NewPolygonCollider fails with ErrInvalidShape for fewer than three points.
func NewPolygonCollider(points []mgl64.Vec2) (*PolygonCollider, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("%w: polygon needs 3 points, got %d", ErrInvalidShape, len(points))
	}
	c := &PolygonCollider{points: append([]mgl64.Vec2(nil), points...)}
	c.colliderCore = newColliderCore(c)
	return c, nil
}

func (c *PolygonCollider) Kind() ecs.Kind { return ecs.KindPolygonCollider }

func (c *PolygonCollider) Points() []mgl64.Vec2 {
	return append([]mgl64.Vec2(nil), c.points...)
}

func (c *PolygonCollider) buildShape(body *cp.Body, p placement) *cp.Shape {
	return polyShape(body, c.points, p)
}

func polyShape(body *cp.Body, points []mgl64.Vec2, p placement) *cp.Shape {
	verts := make([]cp.Vector, len(points))
	for i, v := range points {
		verts[i] = p.point(v)
	}
	return cp.NewPolyShape(body, len(verts), verts, cp.NewTransformIdentity(), 0)
}
