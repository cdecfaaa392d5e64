package ecs

import (
	"errors"

	"github.com/milk9111/scenegraph/space"
)

var (
	ErrDuplicateSingletonComponent = errors.New("ecs: duplicate singleton component")
	ErrComponentNotOwned           = errors.New("ecs: component not owned by entity")
	ErrMissingScene                = errors.New("ecs: no loaded scene")
	ErrSceneNotRunning             = errors.New("ecs: scene not running")
	ErrComponentAttached           = errors.New("ecs: component already attached")
	ErrInvalidKind                 = errors.New("ecs: invalid component kind")
	ErrTransformRequired           = errors.New("ecs: transform cannot be removed")
	ErrNotDeactivatable            = errors.New("ecs: component cannot be disabled")
	ErrForeignEntity               = errors.New("ecs: entity belongs to another scene")
	ErrCyclicHierarchy             = space.ErrCyclicHierarchy
)
