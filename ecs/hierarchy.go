package ecs

import (
	"errors"
	"fmt"
	"slices"

	"github.com/milk9111/scenegraph/space"
)

var ErrNotChild = errors.New("ecs: entity is not a child")

// AddChild reparents child under e.
func (e *Entity) AddChild(child *Entity) error {
	if child == nil {
		return ErrMissingScene
	}
	return child.SetParent(e)
}

// RemoveChild moves child to the scene root.
func (e *Entity) RemoveChild(child *Entity) error {
	if e == nil || child == nil || child.parent != e.id {
		return ErrNotChild
	}
	return child.SetParent(nil)
}

// SetParent reparents e keeping its local transform. A nil parent moves e to
// the scene root.
func (e *Entity) SetParent(parent *Entity) error {
	return e.setParent(parent, false)
}

// SetParentKeepGlobal reparents e and rewrites its local transform so its
// global placement is unchanged.
func (e *Entity) SetParentKeepGlobal(parent *Entity) error {
	return e.setParent(parent, true)
}

func (e *Entity) setParent(parent *Entity, keepGlobal bool) error {
	if e == nil || e.scene == nil {
		return ErrMissingScene
	}
	if parent != nil {
		if parent.scene != e.scene {
			return ErrForeignEntity
		}
		for cur := parent; cur != nil; cur = cur.Parent() {
			if cur == e {
				return fmt.Errorf("%w: %s cannot be parented under %s", ErrCyclicHierarchy, e, parent)
			}
		}
	}
	if (parent == nil && e.parent == 0) || (parent != nil && parent.id == e.parent) {
		return nil
	}

	var local *space.Transformable
	if keepGlobal {
		var err error
		local, err = e.transform.relativeTo(parent)
		if err != nil {
			return err
		}
	}

	snap := e.activitySnapshot()
	e.detach()
	e.attach(parent)
	if local != nil {
		e.transform.node.Position = local.Position
		e.transform.node.Rotation = local.Rotation
		e.transform.node.Scale = local.Scale
	}
	e.fireActivityDiff(snap)
	e.NotifyHierarchyChanged()
	e.notifyTransform(TransformChange{Origin: e, Mask: DirtyAll})
	return nil
}

// detach removes e from its parent's child list or from the scene roots.
func (e *Entity) detach() {
	s := e.scene
	if s == nil {
		return
	}
	if p := e.Parent(); p != nil {
		if i := slices.Index(p.children, e.id); i >= 0 {
			p.children = slices.Delete(p.children, i, i+1)
		}
	} else if i := slices.Index(s.roots, e.id); i >= 0 {
		s.roots = slices.Delete(s.roots, i, i+1)
	}
	e.parent = 0
	if e.transform != nil {
		e.transform.node.Parent = nil
	}
}

func (e *Entity) attach(parent *Entity) {
	if parent == nil {
		e.scene.roots = append(e.scene.roots, e.id)
		return
	}
	parent.children = append(parent.children, e.id)
	e.parent = parent.id
	e.transform.node.Parent = parent.transform.node
}

// IsAncestorOf reports whether e is a strict ancestor of other.
func (e *Entity) IsAncestorOf(other *Entity) bool {
	if e == nil || other == nil {
		return false
	}
	for cur := other.Parent(); cur != nil; cur = cur.Parent() {
		if cur == e {
			return true
		}
	}
	return false
}
