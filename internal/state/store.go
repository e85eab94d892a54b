// Package state persists list snapshots in SQLite.
//
// A snapshot is the ordered payload sequence of a verified list. Loading a
// snapshot rebuilds the chain in a fresh arena and hands it to
// linkedlist.New, so a restored list goes through the same verification as
// any other.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/dlist/pkg/linkedlist"
)

// ErrNotOpen is returned when the store is used before Open.
var ErrNotOpen = errors.New("database not opened")

// ErrSnapshotNotFound is returned when no snapshot has the requested ID.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot describes a stored list.
type Snapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Length    int       `json:"length"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the snapshot persistence contract.
type Store interface {
	SaveList(ctx context.Context, name string, l *linkedlist.List[string]) (*Snapshot, error)
	LoadList(ctx context.Context, id string, opts ...linkedlist.Option) (*linkedlist.List[string], *Snapshot, error)
	ListSnapshots(ctx context.Context) ([]*Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
