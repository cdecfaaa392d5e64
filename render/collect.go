package render

import (
	"cmp"
	"errors"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/scenegraph/ecs"
)

// Renderable is implemented by Sprite and Primitive.
type Renderable interface {
	ecs.Component
	ID() ecs.ComponentID
	Active() bool
	PendingDestroy() bool
	Entity() *ecs.Entity
	Layer() int
}

// Instance is one renderable resolved to a global pose.
type Instance struct {
	Entity    ecs.EntityID
	Component Renderable
	Position  mgl64.Vec2
	Rotation  float64
	Scale     mgl64.Vec2
	Z         int
}

// Collect resolves every active renderable in the scene, sorted by Z and
// then by creation order. Renderables whose transform cannot be resolved
// are skipped and reported in the returned error.
func Collect(s *ecs.Scene) ([]Instance, error) {
	var (
		out  []Instance
		errs []error
	)
	for _, r := range ecs.ComponentsOf[Renderable](s, ecs.KindRenderable) {
		if !r.Active() || r.PendingDestroy() {
			continue
		}
		e := r.Entity()
		if e == nil {
			continue
		}
		g, err := e.Transform().Global()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, Instance{
			Entity:    e.ID(),
			Component: r,
			Position:  g.Position,
			Rotation:  g.Rotation,
			Scale:     g.Scale,
			Z:         r.Layer(),
		})
	}
	slices.SortStableFunc(out, func(a, b Instance) int {
		if c := cmp.Compare(a.Z, b.Z); c != 0 {
			return c
		}
		return cmp.Compare(a.Component.ID(), b.Component.ID())
	})
	return out, errors.Join(errs...)
}
