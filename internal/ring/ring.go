// Package ring is a specialized adaption of `container/ring`,
// used as the recency index of bounded caches.
package ring

import "iter"

type (
	// A Ring is an element of a circular list.
	// Rings do not have a beginning or end; a pointer to any ring element
	// serves as reference to the entire ring. The zero value for a Ring
	// is a one-element ring.
	Ring[Key comparable, Value any] struct {
		next, prev *Ring[Key, Value]
		Key        Key
		Value      Value
	}
	// List orders cache entries by recency of use.
	// It is a ring whose sentinel root separates the most recently
	// used element (root.Next) from the least recently used one (root.Prev).
	// The zero value is an empty list.
	List[Key comparable, Value any] struct {
		root   Ring[Key, Value]
		length int
	}
)

func (r *Ring[Key, Value]) init() *Ring[Key, Value] {
	r.next = r
	r.prev = r
	return r
}

// Next returns the next ring element.
func (r *Ring[Key, Value]) Next() *Ring[Key, Value] {
	if r.next == nil {
		return r.init()
	}
	return r.next
}

// Prev returns the previous ring element.
func (r *Ring[Key, Value]) Prev() *Ring[Key, Value] {
	if r.next == nil {
		return r.init()
	}
	return r.prev
}

// Link connects ring r with ring s such that r.Next()
// becomes s and returns the original value for r.Next().
//
// If r and s point to the same ring, linking
// them removes the elements between r and s from the ring.
// If they point to different rings, the elements of s
// are inserted after r.
func (r *Ring[Key, Value]) Link(s *Ring[Key, Value]) *Ring[Key, Value] {
	n := r.Next()
	if s != nil {
		p := s.Prev()
		// Note: Cannot use multiple assignment because
		// evaluation order of LHS is not specified.
		r.next = s
		s.prev = r
		n.prev = p
		p.next = n
	}
	return n
}

// Unlink removes the element after r and returns it
// as a one-element ring.
func (r *Ring[Key, Value]) Unlink() *Ring[Key, Value] {
	return r.Link(r.Next().Next())
}

// Len returns the number of elements in l, excluding the sentinel.
func (l *List[Key, Value]) Len() int { return l.length }

// Front returns the most recently used element, or nil.
func (l *List[Key, Value]) Front() *Ring[Key, Value] {
	if l.length == 0 {
		return nil
	}
	return l.root.next
}

// Back returns the least recently used element, or nil.
func (l *List[Key, Value]) Back() *Ring[Key, Value] {
	if l.length == 0 {
		return nil
	}
	return l.root.prev
}

// PushFront inserts a new element as the most recently used.
func (l *List[Key, Value]) PushFront(key Key, value Value) *Ring[Key, Value] {
	element := &Ring[Key, Value]{Key: key, Value: value}
	l.root.Link(element.init())
	l.length++
	return element
}

// MoveToFront marks element as the most recently used.
// element must belong to l.
func (l *List[Key, Value]) MoveToFront(element *Ring[Key, Value]) {
	if l.root.next == element {
		return
	}
	leaf := element.Prev().Unlink()
	l.root.Link(leaf)
}

// Remove unlinks element from l. element must belong to l.
func (l *List[Key, Value]) Remove(element *Ring[Key, Value]) {
	element.Prev().Unlink()
	l.length--
}

// All iterates from the most to the least recently used element,
// stopping early if yield returns false.
// The behavior of All is undefined if yield modifies l.
func (l *List[Key, Value]) All() iter.Seq2[Key, Value] {
	return func(yield func(Key, Value) bool) {
		if l.length == 0 {
			return
		}
		for p := l.root.next; p != &l.root; p = p.next {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Clear removes every element.
func (l *List[Key, Value]) Clear() {
	l.root.init()
	l.length = 0
}
