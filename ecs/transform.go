package ecs

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/scenegraph/common"
	"github.com/milk9111/scenegraph/space"
)

// DirtyMask names the parts of a global transform that changed.
type DirtyMask uint8

const (
	DirtyPosition DirtyMask = 1 << iota
	DirtyRotation
	DirtyScale

	DirtyAll = DirtyPosition | DirtyRotation | DirtyScale
)

func (m DirtyMask) Has(flag DirtyMask) bool {
	return m&flag != 0
}

// inherited is the mask seen by descendants: any ancestor change moves
// them, and rotation or scale carry through.
func (m DirtyMask) inherited() DirtyMask {
	if m == 0 {
		return 0
	}
	return DirtyPosition | m&(DirtyRotation|DirtyScale)
}

// TransformChange is delivered to transform listeners. Origin is the entity
// whose local transform or parent changed; Source is the component that
// wrote it, nil for user code.
type TransformChange struct {
	Origin *Entity
	Source Component
	Mask   DirtyMask
}

// Transform is created with every entity and cannot be removed or disabled.
type Transform struct {
	Base
	node *space.Transformable
}

func (t *Transform) Kind() Kind { return KindTransform }

// Node exposes the underlying transformable for conversions. Mutate it only
// through the Transform setters.
func (t *Transform) Node() *space.Transformable {
	if t == nil {
		return nil
	}
	return t.node
}

func (t *Transform) Position() mgl64.Vec2 { return t.node.Position }
func (t *Transform) Rotation() float64    { return t.node.Rotation }
func (t *Transform) Scale() mgl64.Vec2    { return t.node.Scale }

func (t *Transform) SetPosition(p mgl64.Vec2) {
	t.SetPose(nil, p, t.node.Rotation)
}

func (t *Transform) SetRotation(rad float64) {
	t.SetPose(nil, t.node.Position, rad)
}

func (t *Transform) Translate(d mgl64.Vec2) {
	t.SetPosition(t.node.Position.Add(d))
}

func (t *Transform) Rotate(rad float64) {
	t.SetRotation(t.node.Rotation + rad)
}

// SetScale rejects zero components with space.ErrZeroScale.
func (t *Transform) SetScale(s mgl64.Vec2) error {
	if err := space.ValidateScale(s); err != nil {
		return err
	}
	if s == t.node.Scale {
		return nil
	}
	t.node.Scale = s
	t.changed(nil, DirtyScale)
	return nil
}

// SetPose writes local position and rotation on behalf of source.
func (t *Transform) SetPose(source Component, pos mgl64.Vec2, rad float64) {
	if t == nil || t.node == nil {
		return
	}
	rad = common.NormalizeAngle(rad)
	var mask DirtyMask
	if pos != t.node.Position {
		t.node.Position = pos
		mask |= DirtyPosition
	}
	if rad != t.node.Rotation {
		t.node.Rotation = rad
		mask |= DirtyRotation
	}
	t.changed(source, mask)
}

// SetGlobalPose converts a global position and rotation into the parent's
// space and writes them as the local pose.
func (t *Transform) SetGlobalPose(source Component, pos mgl64.Vec2, rad float64) error {
	e := t.Entity()
	if e == nil {
		return ErrMissingScene
	}
	parent := e.Parent()
	if parent == nil {
		t.SetPose(source, pos, rad)
		return nil
	}
	conv := t.scene.Converter()
	pg, err := conv.ToGlobal(parent.transform.node)
	if err != nil {
		return err
	}
	desired := &space.Transformable{Position: pos, Rotation: rad, Scale: mulScale(t.node.Scale, pg.Scale)}
	local := conv.ToChild(desired, pg)
	t.SetPose(source, local.Position, local.Rotation)
	return nil
}

// Global resolves the transform in global space.
func (t *Transform) Global() (*space.Transformable, error) {
	if t == nil || t.scene == nil {
		return nil, ErrMissingScene
	}
	return t.scene.Converter().ToGlobal(t.node)
}

// ToLocal expresses t inside target's space.
func (t *Transform) ToLocal(target *Transform) (*space.Transformable, error) {
	if t == nil || t.scene == nil || target == nil {
		return nil, ErrMissingScene
	}
	return t.scene.Converter().ToLocal(t.node, target.node)
}

func (t *Transform) relativeTo(parent *Entity) (*space.Transformable, error) {
	conv := t.scene.Converter()
	if parent == nil {
		return conv.ToGlobal(t.node)
	}
	return conv.ToLocal(t.node, parent.transform.node)
}

func (t *Transform) changed(source Component, mask DirtyMask) {
	if mask == 0 {
		return
	}
	e := t.Entity()
	if e == nil {
		return
	}
	e.notifyTransform(TransformChange{Origin: e, Source: source, Mask: mask})
}

func (e *Entity) notifyTransform(change TransformChange) {
	for _, c := range slices.Clone(e.components) {
		if l, ok := c.(TransformListener); ok {
			l.OnTransformChanged(change)
		}
	}
	inherited := change
	inherited.Mask = change.Mask.inherited()
	for _, child := range e.Children() {
		child.notifyTransform(inherited)
	}
}

func mulScale(a, b mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{a[0] * b[0], a[1] * b[1]}
}
