package linkedlist

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is against these rather than comparing Kind.
var (
	// ErrInvalidArgument is returned for empty, stale or foreign handles and for nodes
	// that are not in the expected linkage state.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOutOfRange is returned when a position falls outside the list.
	ErrOutOfRange = errors.New("position out of range")
	// ErrInvariant is returned when a list fails verification.
	ErrInvariant = errors.New("list invariant violated")
	// ErrUnlinkedNode is returned when releasing a node that has no
	// neighbors and was not flagged as the sole node of its list.
	ErrUnlinkedNode = errors.New("node has no neighbors")
)

// Kind classifies a failure.
type Kind uint8

// Failure kinds. The first three are precondition or invariant violations and
// are escalated through a list's Policy. KindUnlinked is always returned to
// the caller.
const (
	KindInvalidArgument Kind = iota + 1
	KindOutOfRange
	KindInvariant
	KindUnlinked
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid-argument"
	case KindOutOfRange:
		return "out-of-range"
	case KindInvariant:
		return "invariant"
	case KindUnlinked:
		return "unlinked"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Fatal reports whether failures of this kind indicate a caller bug.
func (k Kind) Fatal() bool {
	return k != KindUnlinked
}

// Error is the error type returned (or panicked with) by list operations.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("linkedlist: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the Kind of err, or 0 if err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
