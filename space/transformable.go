package space

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/scenegraph/common"
)

var (
	ErrCyclicHierarchy = errors.New("space: cyclic hierarchy")
	ErrZeroScale       = errors.New("space: zero scale component")
)

// ID identifies a Transformable. Results of a conversion carry fresh ids.
type ID uint64

// IDAllocator hands out ids for one scene. It is not safe for concurrent use.
type IDAllocator struct {
	next ID
}

func (a *IDAllocator) Next() ID {
	if a == nil {
		return 0
	}
	a.next++
	return a.next
}

// Transformable is the position/rotation/scale triple the conversion algebra
// operates on. Parent is a non-owning link; nil means global space. The
// entity hierarchy, which owns the relation, rewrites it on every reparent.
type Transformable struct {
	ID       ID
	Position mgl64.Vec2
	Rotation float64
	Scale    mgl64.Vec2
	Parent   *Transformable
}

// NewTransformable returns an identity transform with a fresh id.
func NewTransformable(ids *IDAllocator) *Transformable {
	return &Transformable{
		ID:    ids.Next(),
		Scale: mgl64.Vec2{1, 1},
	}
}

func (t *Transformable) SetPosition(p mgl64.Vec2) {
	if t == nil {
		return
	}
	t.Position = p
}

// SetRotation stores rad normalized into [0, 2π).
func (t *Transformable) SetRotation(rad float64) {
	if t == nil {
		return
	}
	t.Rotation = common.NormalizeAngle(rad)
}

// SetScale rejects any zero component.
func (t *Transformable) SetScale(s mgl64.Vec2) error {
	if t == nil {
		return nil
	}
	if err := ValidateScale(s); err != nil {
		return err
	}
	t.Scale = s
	return nil
}

func ValidateScale(s mgl64.Vec2) error {
	if s[0] == 0 || s[1] == 0 {
		return fmt.Errorf("%w: (%g, %g)", ErrZeroScale, s[0], s[1])
	}
	return nil
}

// Clone copies t keeping its id so relation checks still match the original.
func (t *Transformable) Clone() *Transformable {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func (t *Transformable) String() string {
	if t == nil {
		return "<nil>"
	}
	parent := ID(0)
	if t.Parent != nil {
		parent = t.Parent.ID
	}
	return fmt.Sprintf("#%d{pos=(%.4g, %.4g) rot=%.4g scale=(%.4g, %.4g) parent=#%d}",
		t.ID, t.Position[0], t.Position[1], t.Rotation, t.Scale[0], t.Scale[1], parent)
}

func rotate(v mgl64.Vec2, rad float64) mgl64.Vec2 {
	if rad == 0 {
		return v
	}
	return mgl64.Rotate2D(rad).Mul2x1(v)
}

func mulElem(a, b mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{a[0] * b[0], a[1] * b[1]}
}

func divElem(a, b mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{a[0] / b[0], a[1] / b[1]}
}
