package ecs

import "reflect"

// Get returns the first component of type T on e.
func Get[T Component](e *Entity) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	for _, c := range e.components {
		if cast, ok := c.(T); ok {
			return cast, true
		}
	}
	return zero, false
}

// GetAll returns every component of type T on e in insertion order.
func GetAll[T Component](e *Entity) []T {
	if e == nil {
		return nil
	}
	var out []T
	for _, c := range e.components {
		if cast, ok := c.(T); ok {
			out = append(out, cast)
		}
	}
	return out
}

// ComponentsOf returns the scene's components of kind that are of type T.
func ComponentsOf[T Component](s *Scene, kind Kind) []T {
	var out []T
	for _, c := range s.ComponentsOfKind(kind) {
		if cast, ok := c.(T); ok {
			out = append(out, cast)
		}
	}
	return out
}

// SetResource stores a scene-wide value keyed by its static type.
func SetResource[T any](s *Scene, v T) {
	if s == nil {
		return
	}
	if s.resources == nil {
		s.resources = make(map[reflect.Type]any)
	}
	s.resources[reflect.TypeFor[T]()] = v
}

func Resource[T any](s *Scene) (T, bool) {
	var zero T
	if s == nil || s.resources == nil {
		return zero, false
	}
	v, ok := s.resources[reflect.TypeFor[T]()]
	if !ok {
		return zero, false
	}
	cast, ok := v.(T)
	return cast, ok
}
