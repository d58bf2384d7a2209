// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package slotmap defines a generation-checked arena
// useful for resource management (e.g., caches of backend
// objects that are referred to by handle).
package slotmap

import (
	"iter"
	"math/bits"
)

// Handle identifies a value stored in a Map.
// The zero Handle is never valid.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero returns whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.gen == 0 }

// Index returns the slot index of h.
func (h Handle) Index() int { return int(h.index) }

// Map is a growable arena of T values.
// Removing a value invalidates every copy of its Handle,
// even if the slot is later reused.
type Map[T any] struct {
	// Occupancy bits, one per slot.
	used []uint64
	// Number of unset bits in used.
	rem  int
	gen  []uint32
	vals []T
}

const nbit = 64

// Len returns the number of values in the map.
func (m *Map[_]) Len() int { return len(m.vals) - m.rem }

// Cap returns the number of slots in the map.
func (m *Map[_]) Cap() int { return len(m.vals) }

// grow appends nplus words worth of unused slots.
func (m *Map[T]) grow(nplus int) {
	m.used = append(m.used, make([]uint64, nplus)...)
	m.gen = append(m.gen, make([]uint32, nplus*nbit)...)
	m.vals = append(m.vals, make([]T, nplus*nbit)...)
	m.rem += nplus * nbit
}

// search locates an unused slot.
// It will fail only when m.rem == 0.
func (m *Map[_]) search() (index int, ok bool) {
	if m.rem == 0 {
		return
	}
	for i, x := range m.used {
		if x == ^uint64(0) {
			continue
		}
		return i*nbit + bits.TrailingZeros64(^x), true
	}
	return
}

func (m *Map[_]) isSet(index int) bool {
	return m.used[index/nbit]&(1<<(index%nbit)) != 0
}

// Insert stores v in an unused slot and returns its
// Handle.
func (m *Map[T]) Insert(v T) Handle {
	idx, ok := m.search()
	if !ok {
		// Grow geometrically, starting with a single word.
		idx = len(m.vals)
		m.grow(max(1, len(m.used)))
	}
	m.used[idx/nbit] |= 1 << (idx % nbit)
	m.rem--
	m.gen[idx]++
	if m.gen[idx] == 0 {
		// Skip the zero generation on wrap.
		m.gen[idx] = 1
	}
	m.vals[idx] = v
	return Handle{uint32(idx), m.gen[idx]}
}

// valid returns whether h refers to a live value.
func (m *Map[_]) valid(h Handle) bool {
	i := int(h.index)
	return h.gen != 0 && i < len(m.vals) && m.isSet(i) && m.gen[i] == h.gen
}

// Get returns the value identified by h.
// ok is false if h is stale or was not created by m.
func (m *Map[T]) Get(h Handle) (v T, ok bool) {
	if !m.valid(h) {
		return
	}
	return m.vals[h.index], true
}

// Ptr returns a pointer to the value identified by h,
// or nil if h is not valid.
// The pointer is invalidated by the next call to Insert.
func (m *Map[T]) Ptr(h Handle) *T {
	if !m.valid(h) {
		return nil
	}
	return &m.vals[h.index]
}

// Remove removes the value identified by h and returns it.
// ok is false if h is not valid, in which case the map is
// not modified.
func (m *Map[T]) Remove(h Handle) (v T, ok bool) {
	if !m.valid(h) {
		return
	}
	i := int(h.index)
	v = m.vals[i]
	var zero T
	m.vals[i] = zero
	m.used[i/nbit] &^= 1 << (i % nbit)
	m.rem++
	return v, true
}

// Clear removes every value.
// Generations are kept so that old handles stay invalid.
func (m *Map[T]) Clear() {
	clear(m.used)
	clear(m.vals)
	m.rem = len(m.vals)
}

// All returns an iterator over the live values of the map,
// in slot order.
func (m *Map[T]) All() iter.Seq2[Handle, T] {
	return func(yield func(Handle, T) bool) {
		for i, x := range m.used {
			for ; x != 0; x &= x - 1 {
				idx := i*nbit + bits.TrailingZeros64(x)
				if !yield(Handle{uint32(idx), m.gen[idx]}, m.vals[idx]) {
					return
				}
			}
		}
	}
}
