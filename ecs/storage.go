package ecs

import "math/bits"

// arena keeps values in reusable slots so ids can be mapped to dense
// indices and marked in bitsets.
type arena[T any] struct {
	slots []T
	used  bitset
	free  []int
	count int
}

func (a *arena[T]) insert(v T) int {
	var slot int
	if n := len(a.free); n > 0 {
		slot = a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[slot] = v
	} else {
		slot = len(a.slots)
		a.slots = append(a.slots, v)
	}
	a.used.set(slot)
	a.count++
	return slot
}

func (a *arena[T]) remove(slot int) {
	if !a.used.has(slot) {
		return
	}
	var zero T
	a.slots[slot] = zero
	a.used.clear(slot)
	a.free = append(a.free, slot)
	a.count--
}

func (a *arena[T]) get(slot int) (T, bool) {
	var zero T
	if slot < 0 || !a.used.has(slot) {
		return zero, false
	}
	return a.slots[slot], true
}

func (a *arena[T]) len() int {
	return a.count
}

// each visits live slots in index order until fn returns false.
func (a *arena[T]) each(fn func(slot int, v T) bool) {
	a.used.each(func(slot int) bool {
		return fn(slot, a.slots[slot])
	})
}

type bitset []uint64

func (b *bitset) set(i int) {
	w := i / 64
	for len(*b) <= w {
		*b = append(*b, 0)
	}
	(*b)[w] |= 1 << uint(i%64)
}

func (b *bitset) clear(i int) {
	w := i / 64
	if w < len(*b) {
		(*b)[w] &^= 1 << uint(i%64)
	}
}

func (b bitset) has(i int) bool {
	w := i / 64
	return i >= 0 && w < len(b) && b[w]&(1<<uint(i%64)) != 0
}

func (b bitset) any() bool {
	for _, w := range b {
		if w != 0 {
			return true
		}
	}
	return false
}

func (b bitset) count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

func (b bitset) each(fn func(i int) bool) {
	for wi, w := range b {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			if !fn(wi*64 + bit) {
				return
			}
			w &^= 1 << uint(bit)
		}
	}
}

func (b *bitset) reset() {
	for i := range *b {
		(*b)[i] = 0
	}
}
