package render

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/scenegraph/ecs"
)

// Camera views the scene from its entity's global position. Rotation of the
// camera entity is ignored.
type Camera struct {
	ecs.Base
	Zoom float64
}

func NewCamera(zoom float64) *Camera {
	return &Camera{Zoom: zoom}
}

func (c *Camera) Kind() ecs.Kind { return ecs.KindCamera }

// View returns the camera position and an effective zoom. A nil camera, or
// one not attached to an entity, looks at the origin at zoom 1.
func (c *Camera) View() (mgl64.Vec2, float64) {
	zoom := 1.0
	if c == nil {
		return mgl64.Vec2{}, zoom
	}
	if c.Zoom > 0 {
		zoom = c.Zoom
	}
	e := c.Entity()
	if e == nil {
		return mgl64.Vec2{}, zoom
	}
	g, err := e.Transform().Global()
	if err != nil {
		return mgl64.Vec2{}, zoom
	}
	return g.Position, zoom
}

// WorldToScreen projects a world point into screen pixels.
func (c *Camera) WorldToScreen(p mgl64.Vec2) mgl64.Vec2 {
	pos, zoom := c.View()
	return p.Sub(pos).Mul(zoom)
}

// ScreenToWorld is the inverse of WorldToScreen.
func (c *Camera) ScreenToWorld(p mgl64.Vec2) mgl64.Vec2 {
	pos, zoom := c.View()
	return p.Mul(1 / zoom).Add(pos)
}

// ActiveCamera returns the first active camera in creation order.
func ActiveCamera(s *ecs.Scene) *Camera {
	for _, cam := range ecs.ComponentsOf[*Camera](s, ecs.KindCamera) {
		if cam.Active() {
			return cam
		}
	}
	return nil
}
