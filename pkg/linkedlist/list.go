package linkedlist

import (
	"fmt"
	"log/slog"
)

// List is an owning handle over a chain of arena nodes.
//
// The list tracks its head and length. Every node reachable from head within
// length steps belongs to the list and is released by Destroy.
type List[T any] struct {
	nodes  *Arena[T]
	head   Handle
	length int
	policy Policy
	logger *slog.Logger
}

// New wraps an existing chain starting at head and asserted to hold length
// nodes. The chain is verified immediately. Under PolicyAbort an inconsistent
// chain panics; under PolicyReport New returns nil and an *Error of kind
// KindInvariant.
func New[T any](nodes *Arena[T], length int, head Handle, opts ...Option) (*List[T], error) {
	o := buildOptions(opts)
	l := &List[T]{
		nodes:  nodes,
		head:   head,
		length: length,
		policy: o.policy,
		logger: o.logger,
	}

	if nodes == nil {
		return nil, l.violate("create", KindInvalidArgument, fmt.Errorf("%w: nil arena", ErrInvalidArgument))
	}
	if !l.Verify() {
		return nil, l.violate("create", KindInvariant,
			fmt.Errorf("%w: chain at %s does not hold %d linked nodes", ErrInvariant, head, length))
	}
	return l, nil
}

// Empty returns a list with no nodes.
// It panics if nodes is nil, whatever the policy.
func Empty[T any](nodes *Arena[T], opts ...Option) *List[T] {
	if nodes == nil {
		panic(newError("create", KindInvalidArgument, fmt.Errorf("%w: nil arena", ErrInvalidArgument)))
	}
	l, err := New(nodes, 0, Handle{}, opts...)
	if err != nil {
		// an empty chain always verifies
		panic(err)
	}
	return l
}

// Of allocates one node per payload in nodes and wraps them in a list.
func Of[T any](nodes *Arena[T], payloads []T, opts ...Option) (*List[T], error) {
	head, n := Chain(nodes, payloads...)
	return New(nodes, n, head, opts...)
}

// Len returns the number of nodes in the list.
func (l *List[T]) Len() int {
	return l.length
}

// Head returns the first node, or the empty handle.
func (l *List[T]) Head() Handle {
	return l.head
}

// Arena returns the arena that stores the list's nodes.
func (l *List[T]) Arena() *Arena[T] {
	return l.nodes
}

// Policy returns the failure policy the list was created with.
func (l *List[T]) Policy() Policy {
	return l.policy
}

// Verify checks the structural invariants of the list.
//
// An empty list must have no head. Otherwise the head must be live with no
// back-reference, each of the next length-1 nodes must exist and point back
// at its predecessor, and the last node must end the chain.
func (l *List[T]) Verify() bool {
	if l.length == 0 {
		return l.head.IsZero()
	}
	if l.length < 0 || !l.nodes.Live(l.head) || !l.nodes.Prev(l.head).IsZero() {
		return false
	}

	ticker := l.head
	for i := 0; i < l.length-1; i++ {
		next := l.nodes.Next(ticker)
		if !l.nodes.Live(next) || l.nodes.Prev(next) != ticker {
			return false
		}
		ticker = next
	}

	// an empty terminal reference means the chain is broken, never dereference it
	if !l.nodes.Live(ticker) {
		return false
	}
	return l.nodes.Next(ticker).IsZero()
}

// Insert splices node into the list directly after the node at position.
//
// When position equals Len the node is appended at the tail; on an empty list
// it becomes the head. Afterwards node sits at position+1 (or at the old
// length when appended) and every node that followed the target still
// follows node.
//
// The list must verify, node must be live and detached, and position must be
// within [0, Len]. Violations are handled according to the list's Policy.
func (l *List[T]) Insert(node Handle, position int) error {
	const op = "insert"

	if !l.Verify() {
		return l.violate(op, KindInvariant, fmt.Errorf("%w: list fails verification before insert", ErrInvariant))
	}
	if !l.nodes.Live(node) {
		return l.violate(op, KindInvalidArgument, fmt.Errorf("%w: node %s is empty, stale or from another arena", ErrInvalidArgument, node))
	}
	if !l.nodes.Prev(node).IsZero() || !l.nodes.Next(node).IsZero() {
		return l.violate(op, KindInvalidArgument, fmt.Errorf("%w: node %s is already linked", ErrInvalidArgument, node))
	}
	if _, found := l.find(node); found {
		return l.violate(op, KindInvalidArgument, fmt.Errorf("%w: node %s is already in the list", ErrInvalidArgument, node))
	}
	if position < 0 || position > l.length {
		return l.violate(op, KindOutOfRange, fmt.Errorf("%w: position %d, length %d", ErrOutOfRange, position, l.length))
	}

	if l.length == 0 {
		l.head = node
		l.length = 1
		return nil
	}

	at := position
	if at == l.length {
		at = l.length - 1
	}
	target, ok := l.walk(at)
	if !ok {
		return l.violate(op, KindInvariant, fmt.Errorf("%w: chain ends before position %d", ErrInvariant, at))
	}

	after := l.nodes.Next(target)
	l.nodes.SetPrev(node, target)
	l.nodes.SetNext(node, after)
	if !after.IsZero() {
		l.nodes.SetPrev(after, node)
	}
	l.nodes.SetNext(target, node)
	l.length++

	return nil
}

// Append splices node after the current tail.
func (l *List[T]) Append(node Handle) error {
	return l.Insert(node, l.length)
}

// Position returns the zero-based index of node, compared by identity.
// The boolean is false when node is not in the list, including when it was
// issued by another arena.
func (l *List[T]) Position(node Handle) (int, bool) {
	if node.IsZero() {
		_ = l.violate("position", KindInvalidArgument, fmt.Errorf("%w: empty node", ErrInvalidArgument))
		return -1, false
	}
	return l.find(node)
}

// NodeAt returns the node at position.
// Positions outside [0, Len) are handled according to the list's Policy.
func (l *List[T]) NodeAt(position int) (Handle, error) {
	const op = "node"

	if position < 0 || position >= l.length {
		return Handle{}, l.violate(op, KindOutOfRange, fmt.Errorf("%w: position %d, length %d", ErrOutOfRange, position, l.length))
	}
	h, ok := l.walk(position)
	if !ok {
		return Handle{}, l.violate(op, KindInvariant, fmt.Errorf("%w: chain ends before position %d", ErrInvariant, position))
	}
	return h, nil
}

// Destroy releases every node from head to tail. Payloads are not touched.
//
// A release failure stops the walk and is returned; the list is then
// partially destroyed and must not be used again.
func (l *List[T]) Destroy() error {
	if !l.Verify() {
		l.logger.Warn("destroying list that fails verification", "length", l.length, "head", l.head.String())
	}

	for l.length > 0 && !l.head.IsZero() {
		next := l.nodes.Next(l.head)
		if err := l.nodes.Release(l.head, l.length == 1); err != nil {
			l.logger.Error("node release failed", "remaining", l.length, "node", l.head.String(), "error", err)
			return fmt.Errorf("destroy with %d nodes remaining: %w", l.length, err)
		}
		l.head = next
		l.length--
	}

	if l.length != 0 || !l.head.IsZero() {
		return newError("destroy", KindInvariant,
			fmt.Errorf("%w: %d nodes remaining, head %s", ErrInvariant, l.length, l.head))
	}
	return nil
}

func (l *List[T]) walk(position int) (Handle, bool) {
	ticker := l.head
	for ; position > 0; position-- {
		ticker = l.nodes.Next(ticker)
		if ticker.IsZero() {
			return Handle{}, false
		}
	}
	return ticker, !ticker.IsZero()
}

func (l *List[T]) find(node Handle) (int, bool) {
	if !l.nodes.Owns(node) {
		return -1, false
	}
	ticker := l.head
	for i := 0; i < l.length && !ticker.IsZero(); i++ {
		if ticker == node {
			return i, true
		}
		ticker = l.nodes.Next(ticker)
	}
	return -1, false
}

func (l *List[T]) violate(op string, kind Kind, err error) error {
	e := newError(op, kind, err)
	l.logger.Error("list violation", "op", op, "kind", kind.String(), "error", err)
	if l.policy == PolicyAbort {
		panic(e)
	}
	return e
}
