package space

import "fmt"

type RelationKind uint8

const (
	RelationSame RelationKind = iota
	// RelationTargetIsAncestor: target is the Depth-th parent of node.
	RelationTargetIsAncestor
	// RelationTargetIsDescendant: node is the Depth-th parent of target.
	RelationTargetIsDescendant
	RelationUnrelated
)

func (k RelationKind) String() string {
	switch k {
	case RelationSame:
		return "same"
	case RelationTargetIsAncestor:
		return "ancestor"
	case RelationTargetIsDescendant:
		return "descendant"
	case RelationUnrelated:
		return "unrelated"
	default:
		return fmt.Sprintf("relation(%d)", uint8(k))
	}
}

// Relation describes where target sits relative to node. It can be handed
// back to Resolve or ToLocalCached to skip the search for the same pair.
type Relation struct {
	Node   ID
	Target ID
	Kind   RelationKind
	Depth  int
}

func (r Relation) matches(node, target *Transformable) bool {
	return r.Node == node.ID && r.Target == target.ID
}

// Resolve finds the structural relation between node and target. A cached
// relation is trusted only when it names the same two ids.
func (c *Converter) Resolve(node, target *Transformable, cached *Relation) (Relation, error) {
	if cached != nil && cached.matches(node, target) {
		return *cached, nil
	}
	rel := Relation{Node: node.ID, Target: target.ID}
	if node.ID == target.ID {
		rel.Kind = RelationSame
		return rel, nil
	}

	depth, err := c.depthOf(node, target.ID)
	if err != nil {
		return Relation{}, err
	}
	if depth > 0 {
		rel.Kind = RelationTargetIsAncestor
		rel.Depth = depth
		return rel, nil
	}

	depth, err = c.depthOf(target, node.ID)
	if err != nil {
		return Relation{}, err
	}
	if depth > 0 {
		rel.Kind = RelationTargetIsDescendant
		rel.Depth = depth
		return rel, nil
	}

	rel.Kind = RelationUnrelated
	return rel, nil
}

// depthOf returns how many parent links separate from and the ancestor
// carrying id, or 0 when id is not an ancestor of from.
func (c *Converter) depthOf(from *Transformable, id ID) (int, error) {
	chain, err := c.ancestors(from)
	if err != nil {
		return 0, err
	}
	for i, t := range chain {
		if t.ID == id {
			return i + 1, nil
		}
	}
	return 0, nil
}
