package space

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/scenegraph/common"
)

// Converter resolves transforms between coordinate spaces. It never mutates
// its inputs; every result is a new Transformable with a fresh id.
type Converter struct {
	IDs *IDAllocator
	// Bound caps ancestor walks, normally the live node count. Zero tracks
	// visited ids instead.
	Bound int
}

func NewConverter(ids *IDAllocator, bound int) *Converter {
	if ids == nil {
		ids = &IDAllocator{}
	}
	return &Converter{IDs: ids, Bound: bound}
}

// ToParent moves child, expressed in parent's space, one level up.
func (c *Converter) ToParent(child, parent *Transformable) *Transformable {
	return &Transformable{
		ID:       c.IDs.Next(),
		Position: parent.Position.Add(rotate(mulElem(child.Position, parent.Scale), parent.Rotation)),
		Rotation: common.NormalizeAngle(parent.Rotation + child.Rotation),
		Scale:    mulElem(child.Scale, parent.Scale),
		Parent:   parent.Parent,
	}
}

// ToChild moves t, expressed in the space child lives in, one level down
// into child's own space. It is the exact inverse of ToParent.
func (c *Converter) ToChild(t, child *Transformable) *Transformable {
	return &Transformable{
		ID:       c.IDs.Next(),
		Position: divElem(rotate(t.Position.Sub(child.Position), -child.Rotation), child.Scale),
		Rotation: common.NormalizeAngle(t.Rotation - child.Rotation),
		Scale:    divElem(t.Scale, child.Scale),
		Parent:   child,
	}
}

// ToSibling expresses a relative to b. Both must be given in the same space,
// so no separate common parent is taken: that space plays its role and the
// common parent's scale cancels out. b's own parent link is not consulted.
func (c *Converter) ToSibling(a, b *Transformable) *Transformable {
	return c.ToChild(a, b)
}

// ToGlobal composes node through every ancestor up to its root.
func (c *Converter) ToGlobal(node *Transformable) (*Transformable, error) {
	chain, err := c.ancestors(node)
	if err != nil {
		return nil, err
	}
	cur := c.copyOf(node)
	for _, p := range chain {
		cur = c.ToParent(cur, p)
	}
	cur.Parent = nil
	return cur, nil
}

// ToLocal expresses node inside target's coordinate space. The result's
// parent is target, so ToGlobal(result) reproduces ToGlobal(node).
func (c *Converter) ToLocal(node, target *Transformable) (*Transformable, error) {
	out, _, err := c.ToLocalCached(node, target, nil)
	return out, err
}

// ToLocalCached is ToLocal with an optional relation from an earlier call.
// A stale relation is detected and recomputed.
func (c *Converter) ToLocalCached(node, target *Transformable, cached *Relation) (*Transformable, Relation, error) {
	rel, err := c.Resolve(node, target, cached)
	if err != nil {
		return nil, Relation{}, err
	}
	out, ok, err := c.fold(node, target, rel)
	if err != nil {
		return nil, Relation{}, err
	}
	if ok {
		return out, rel, nil
	}
	rel, err = c.Resolve(node, target, nil)
	if err != nil {
		return nil, Relation{}, err
	}
	out, ok, err = c.fold(node, target, rel)
	if err != nil {
		return nil, Relation{}, err
	}
	if !ok {
		return nil, Relation{}, fmt.Errorf("space: relation #%d -> #%d changed during resolve", node.ID, target.ID)
	}
	return out, rel, nil
}

// fold applies the conversion chain for rel. ok is false when rel no longer
// describes the hierarchy.
func (c *Converter) fold(node, target *Transformable, rel Relation) (*Transformable, bool, error) {
	switch rel.Kind {
	case RelationSame:
		if node.ID != target.ID {
			return nil, false, nil
		}
		out := c.identity()
		out.Parent = target
		return out, true, nil

	case RelationTargetIsAncestor:
		chain, err := c.ancestors(node)
		if err != nil {
			return nil, false, err
		}
		if rel.Depth < 1 || len(chain) < rel.Depth || chain[rel.Depth-1].ID != target.ID {
			return nil, false, nil
		}
		cur := c.copyOf(node)
		for i := 0; i < rel.Depth-1; i++ {
			cur = c.ToParent(cur, chain[i])
		}
		cur.Parent = target
		return cur, true, nil

	case RelationTargetIsDescendant:
		chain, err := c.ancestors(target)
		if err != nil {
			return nil, false, err
		}
		if rel.Depth < 1 || len(chain) < rel.Depth || chain[rel.Depth-1].ID != node.ID {
			return nil, false, nil
		}
		cur := c.identity()
		cur.Parent = node
		for i := rel.Depth - 2; i >= 0; i-- {
			cur = c.ToChild(cur, chain[i])
		}
		return c.ToChild(cur, target), true, nil

	case RelationUnrelated:
		global, err := c.ToGlobal(node)
		if err != nil {
			return nil, false, err
		}
		chain, err := c.ancestors(target)
		if err != nil {
			return nil, false, err
		}
		cur := global
		for i := len(chain) - 1; i >= 0; i-- {
			cur = c.ToChild(cur, chain[i])
		}
		return c.ToChild(cur, target), true, nil
	}
	return nil, false, fmt.Errorf("space: unknown relation %s", rel.Kind)
}

// ancestors returns t's parents nearest first.
func (c *Converter) ancestors(t *Transformable) ([]*Transformable, error) {
	var chain []*Transformable
	var seen map[ID]struct{}
	if c.Bound <= 0 {
		seen = map[ID]struct{}{t.ID: {}}
	}
	for p := t.Parent; p != nil; p = p.Parent {
		if c.Bound > 0 && len(chain) >= c.Bound {
			return nil, fmt.Errorf("%w: walk from #%d exceeded %d nodes", ErrCyclicHierarchy, t.ID, c.Bound)
		}
		if seen != nil {
			if _, ok := seen[p.ID]; ok {
				return nil, fmt.Errorf("%w: #%d revisited from #%d", ErrCyclicHierarchy, p.ID, t.ID)
			}
			seen[p.ID] = struct{}{}
		}
		chain = append(chain, p)
	}
	return chain, nil
}

func (c *Converter) identity() *Transformable {
	return &Transformable{ID: c.IDs.Next(), Scale: mgl64.Vec2{1, 1}}
}

func (c *Converter) copyOf(t *Transformable) *Transformable {
	out := t.Clone()
	out.ID = c.IDs.Next()
	out.Rotation = common.NormalizeAngle(out.Rotation)
	return out
}
