package linkedlist

import (
	"fmt"
	"sync/atomic"
)

// Handle is a generational reference to a node in an Arena.
// The zero Handle is the empty reference. A handle is only valid in the
// arena that issued it.
type Handle struct {
	arena uint64
	index uint32
	gen   uint32
}

// IsZero reports whether h is the empty reference.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

func (h Handle) String() string {
	if h.IsZero() {
		return "<nil>"
	}
	return fmt.Sprintf("#%d.%d", h.index, h.gen)
}

type slot[T any] struct {
	payload T
	prev    Handle
	next    Handle
	gen     uint32
	live    bool
}

// Arena owns the storage of list nodes.
//
// Released slots are reused; their generation is bumped so handles to the
// old node become stale instead of silently aliasing the new one.
type Arena[T any] struct {
	id    uint64
	slots []slot[T]
	free  []uint32
	live  int
}

// NewArena creates an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{id: arenaIDs.Add(1)}
}

var arenaIDs atomic.Uint64

// Alloc stores a new node holding payload, prev and next verbatim.
// No linkage is performed: callers patch the neighbors themselves.
func (a *Arena[T]) Alloc(payload T, prev, next Handle) Handle {
	if a.id == 0 {
		a.id = arenaIDs.Add(1)
	}

	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}

	s := &a.slots[idx]
	s.gen++
	if s.gen == 0 {
		// generation 0 is reserved for the empty handle
		s.gen = 1
	}
	s.payload = payload
	s.prev = prev
	s.next = next
	s.live = true
	a.live++

	return Handle{arena: a.id, index: idx, gen: s.gen}
}

// Release splices h out of its chain and frees its storage.
//
// A node with neither neighbor is only released when sole is set, meaning
// the caller knows it is the last node of its list. Otherwise Release
// returns ErrUnlinkedNode and leaves the node in place.
func (a *Arena[T]) Release(h Handle, sole bool) error {
	s, ok := a.lookup(h)
	if !ok {
		return newError("release", KindInvalidArgument, fmt.Errorf("%w: handle %s is empty, stale or foreign", ErrInvalidArgument, h))
	}

	prev, hasPrev := a.lookup(s.prev)
	next, hasNext := a.lookup(s.next)

	switch {
	case hasPrev && hasNext:
		prev.next = s.next
		next.prev = s.prev
	case hasPrev:
		prev.next = Handle{}
	case hasNext:
		next.prev = Handle{}
	case !sole:
		return newError("release", KindUnlinked, fmt.Errorf("%w: %s", ErrUnlinkedNode, h))
	}

	var zero T
	s.payload = zero
	s.prev = Handle{}
	s.next = Handle{}
	s.live = false
	a.free = append(a.free, h.index)
	a.live--
	return nil
}

// Owns reports whether h was issued by a, whether or not its node is still live.
func (a *Arena[T]) Owns(h Handle) bool {
	return !h.IsZero() && a.id != 0 && h.arena == a.id
}

// Live reports whether h refers to a node of a that has not been released.
func (a *Arena[T]) Live(h Handle) bool {
	_, ok := a.lookup(h)
	return ok
}

// Len returns the number of live nodes.
func (a *Arena[T]) Len() int {
	return a.live
}

// Payload returns the payload stored at h.
func (a *Arena[T]) Payload(h Handle) (T, bool) {
	s, ok := a.lookup(h)
	if !ok {
		var zero T
		return zero, false
	}
	return s.payload, true
}

// Prev returns the back-reference of h, or the empty handle.
func (a *Arena[T]) Prev(h Handle) Handle {
	if s, ok := a.lookup(h); ok {
		return s.prev
	}
	return Handle{}
}

// Next returns the forward reference of h, or the empty handle.
func (a *Arena[T]) Next(h Handle) Handle {
	if s, ok := a.lookup(h); ok {
		return s.next
	}
	return Handle{}
}

// SetPrev overwrites the back-reference of h. It reports false if h is not live.
func (a *Arena[T]) SetPrev(h, prev Handle) bool {
	s, ok := a.lookup(h)
	if ok {
		s.prev = prev
	}
	return ok
}

// SetNext overwrites the forward reference of h. It reports false if h is not live.
func (a *Arena[T]) SetNext(h, next Handle) bool {
	s, ok := a.lookup(h)
	if ok {
		s.next = next
	}
	return ok
}

func (a *Arena[T]) lookup(h Handle) (*slot[T], bool) {
	if !a.Owns(h) || int(h.index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil, false
	}
	return s, true
}
