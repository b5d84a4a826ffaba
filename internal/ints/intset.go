// Package ints contains a set of non-negative integers used by grammar analysis.
package ints

import "math/bits"

const chunkBits = bits.UintSize

// Set is a bit set of non-negative integers, zero value is an empty set.
type Set struct {
	chunks []uint
}

// NewSet creates a set containing items.
func NewSet(items ...int) *Set {
	s := &Set{}
	return s.Add(items...)
}

func (s *Set) grow(item int) {
	need := item/chunkBits + 1
	if need > len(s.chunks) {
		chunks := make([]uint, need)
		copy(chunks, s.chunks)
		s.chunks = chunks
	}
}

// Add adds items to the set, negative items are ignored.
func (s *Set) Add(items ...int) *Set {
	for _, item := range items {
		if item < 0 {
			continue
		}
		s.grow(item)
		s.chunks[item/chunkBits] |= 1 << (uint(item) % chunkBits)
	}
	return s
}

// Remove removes items from the set.
func (s *Set) Remove(items ...int) *Set {
	for _, item := range items {
		if item >= 0 && item/chunkBits < len(s.chunks) {
			s.chunks[item/chunkBits] &^= 1 << (uint(item) % chunkBits)
		}
	}
	return s
}

// Contains returns true if the set contains item.
func (s *Set) Contains(item int) bool {
	if item < 0 || item/chunkBits >= len(s.chunks) {
		return false
	}
	return s.chunks[item/chunkBits]&(1<<(uint(item)%chunkBits)) != 0
}

// Len returns the number of items.
func (s *Set) Len() int {
	res := 0
	for _, c := range s.chunks {
		res += bits.OnesCount(c)
	}
	return res
}

// IsEmpty returns true if the set contains no items.
func (s *Set) IsEmpty() bool {
	for _, c := range s.chunks {
		if c != 0 {
			return false
		}
	}
	return true
}

// Copy returns an independent copy of the set.
func (s *Set) Copy() *Set {
	chunks := make([]uint, len(s.chunks))
	copy(chunks, s.chunks)
	return &Set{chunks}
}

// Union adds all items of t, returns true if the set has changed.
func (s *Set) Union(t *Set) bool {
	if len(t.chunks) > len(s.chunks) {
		s.grow(len(t.chunks)*chunkBits - 1)
	}
	changed := false
	for i, c := range t.chunks {
		if c&^s.chunks[i] != 0 {
			s.chunks[i] |= c
			changed = true
		}
	}
	return changed
}

// IsEqual returns true if both sets contain the same items.
func (s *Set) IsEqual(t *Set) bool {
	a, b := s.chunks, t.chunks
	if len(a) < len(b) {
		a, b = b, a
	}
	for i, c := range a {
		var d uint
		if i < len(b) {
			d = b[i]
		}
		if c != d {
			return false
		}
	}
	return true
}

// ToSlice returns set items in ascending order.
func (s *Set) ToSlice() []int {
	res := make([]int, 0, s.Len())
	for i, c := range s.chunks {
		for c != 0 {
			bit := bits.TrailingZeros(c)
			res = append(res, i*chunkBits+bit)
			c &= c - 1
		}
	}
	return res
}
