// package selection implements the toggle collections behind genre choices and song ratings.
//
// [Set] is an ordered, duplicate-free collection with an optional size cap. [Feedback] pairs two
// sets (liked and disliked) and keeps them disjoint.
package selection

import "slices"

// Unbounded is the cap value for a [Set] with no size limit.
const Unbounded = 0

// Set is an ordered collection of unique items.
//
// Insertion order is preserved. When a cap is set, a toggle that would grow the set past it
// does nothing.
type Set[T comparable] struct {
	items []T
	cap   int
}

// NewSet creates an empty set. A cap of [Unbounded] (or less) means no limit.
func NewSet[T comparable](cap int) *Set[T] {
	if cap < 0 {
		cap = Unbounded
	}
	return &Set[T]{cap: cap}
}

// Toggle removes item if present, otherwise appends it when there is room.
//
// It reports whether item is in the set afterwards.
func (s *Set[T]) Toggle(item T) bool {
	if i := slices.Index(s.items, item); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
		return false
	}
	if s.Full() {
		return false
	}
	s.items = append(s.items, item)
	return true
}

// Add appends item if absent and there is room. It reports whether item is in the set afterwards.
func (s *Set[T]) Add(item T) bool {
	if s.Contains(item) {
		return true
	}
	if s.Full() {
		return false
	}
	s.items = append(s.items, item)
	return true
}

// Remove drops item and reports whether it was present.
func (s *Set[T]) Remove(item T) bool {
	i := slices.Index(s.items, item)
	if i < 0 {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

func (s *Set[T]) Contains(item T) bool { return slices.Contains(s.items, item) }

// Items returns a copy of the members in insertion order.
func (s *Set[T]) Items() []T {
	if len(s.items) == 0 {
		return []T{}
	}
	return slices.Clone(s.items)
}

func (s *Set[T]) Len() int { return len(s.items) }

// Cap returns the size limit, or [Unbounded].
func (s *Set[T]) Cap() int { return s.cap }

// Full reports whether the set has reached its cap.
func (s *Set[T]) Full() bool { return s.cap != Unbounded && len(s.items) >= s.cap }

func (s *Set[T]) Clear() { s.items = nil }
