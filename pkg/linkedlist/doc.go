// Package linkedlist implements a doubly-linked list over an arena of nodes.
//
// This package contains:
//   - Arena: owns node storage and hands out generational Handles
//   - List: a head/length handle over a chain of arena nodes
//   - Policy: how a list reacts to precondition and invariant violations
//
// Nodes reference their payloads but never own them. A List owns the nodes
// it links and releases them only through Destroy. Neither type is safe for
// concurrent use; a list has exactly one owner at a time.
package linkedlist
