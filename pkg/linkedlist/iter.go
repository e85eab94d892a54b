package linkedlist

import "iter"

// Chain allocates one node per payload and links them in order.
// It returns the head of the new chain and its length.
func Chain[T any](nodes *Arena[T], payloads ...T) (Handle, int) {
	var head, prev Handle
	for _, p := range payloads {
		h := nodes.Alloc(p, prev, Handle{})
		if prev.IsZero() {
			head = h
		} else {
			nodes.SetNext(prev, h)
		}
		prev = h
	}
	return head, len(payloads)
}

// All yields each position and node from head to tail.
// The walk stops early if the chain is shorter than Len.
func (l *List[T]) All() iter.Seq2[int, Handle] {
	return func(yield func(int, Handle) bool) {
		ticker := l.head
		for i := 0; i < l.length && !ticker.IsZero(); i++ {
			if !yield(i, ticker) {
				return
			}
			ticker = l.nodes.Next(ticker)
		}
	}
}

// Payloads returns the payloads in list order.
func (l *List[T]) Payloads() []T {
	out := make([]T, 0, l.length)
	for _, h := range l.All() {
		p, _ := l.nodes.Payload(h)
		out = append(out, p)
	}
	return out
}

// Tail returns the last node, or the empty handle for an empty list.
func (l *List[T]) Tail() Handle {
	var tail Handle
	for _, h := range l.All() {
		tail = h
	}
	return tail
}
