package ecs

// SparseSet maps small integer keys to values with dense iteration.
// Removal swaps the last element into the hole.
type SparseSet[T any] struct {
	denseKeys   []int
	denseValues []T
	sparse      []int
}

// Has returns true if key exists in the set.
func (s *SparseSet[T]) Has(key int) bool {
	if s == nil || key < 0 || key >= len(s.sparse) {
		return false
	}
	idx := s.sparse[key]
	return idx >= 0 && idx < len(s.denseKeys) && s.denseKeys[idx] == key
}

// Get returns the value for key.
func (s *SparseSet[T]) Get(key int) (T, bool) {
	var zero T
	if !s.Has(key) {
		return zero, false
	}
	return s.denseValues[s.sparse[key]], true
}

// Set inserts or updates the value for key.
func (s *SparseSet[T]) Set(key int, v T) {
	if s == nil || key < 0 {
		return
	}
	for key >= len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if s.Has(key) {
		s.denseValues[s.sparse[key]] = v
		return
	}
	s.denseKeys = append(s.denseKeys, key)
	s.denseValues = append(s.denseValues, v)
	s.sparse[key] = len(s.denseKeys) - 1
}

// Remove deletes key if present.
func (s *SparseSet[T]) Remove(key int) {
	if s == nil || !s.Has(key) {
		return
	}
	idx := s.sparse[key]
	last := len(s.denseKeys) - 1
	lastKey := s.denseKeys[last]

	s.denseKeys[idx] = s.denseKeys[last]
	s.denseValues[idx] = s.denseValues[last]
	s.sparse[lastKey] = idx

	var zero T
	s.denseValues[last] = zero
	s.denseKeys = s.denseKeys[:last]
	s.denseValues = s.denseValues[:last]
	s.sparse[key] = -1
}

func (s *SparseSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.denseKeys)
}

// Values returns the dense value list. Callers must not keep it across
// mutations.
func (s *SparseSet[T]) Values() []T {
	if s == nil {
		return nil
	}
	return s.denseValues
}
