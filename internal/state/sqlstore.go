package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/dlist/pkg/linkedlist"
)

// sqlStore holds the snapshot queries shared by the SQL backends.
type sqlStore struct {
	db      *sql.DB
	logger  *slog.Logger
	dialect dialect
}

func newSQLStore(logger *slog.Logger, d dialect) sqlStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return sqlStore{logger: logger, dialect: d}
}

// OpenDB wraps an existing connection. Migrations are not run.
func (s *sqlStore) OpenDB(db *sql.DB) {
	s.db = db
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// q rewrites ? placeholders for the store's dialect. A ? inside a quoted
// string literal or identifier is left alone.
func (s *sqlStore) q(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			// a doubled quote closes and reopens, which leaves the state right
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveList stores the payloads of l in order under a new snapshot ID.
// Lists that fail verification are rejected.
func (s *sqlStore) SaveList(ctx context.Context, name string, l *linkedlist.List[string]) (*Snapshot, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	if !l.Verify() {
		return nil, fmt.Errorf("save snapshot %q: %w", name, linkedlist.ErrInvariant)
	}

	snap := &Snapshot{
		ID:        uuid.New().String(),
		Name:      name,
		Length:    l.Len(),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.q(
		`INSERT INTO snapshots (id, name, length, created_at) VALUES (?, ?, ?, ?)`),
		snap.ID, snap.Name, snap.Length, snap.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.q(
		`INSERT INTO snapshot_nodes (snapshot_id, position, payload) VALUES (?, ?, ?)`))
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, payload := range l.Payloads() {
		if _, err := stmt.ExecContext(ctx, snap.ID, i, payload); err != nil {
			return nil, fmt.Errorf("insert node %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("snapshot saved", "id", snap.ID, "name", name, "length", snap.Length)
	return snap, nil
}

// LoadList rebuilds the list stored under id in a fresh arena.
// opts are passed to linkedlist.New.
func (s *sqlStore) LoadList(ctx context.Context, id string, opts ...linkedlist.Option) (*linkedlist.List[string], *Snapshot, error) {
	if s.db == nil {
		return nil, nil, ErrNotOpen
	}

	snap := &Snapshot{}
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, name, length, created_at FROM snapshots WHERE id = ?`), id,
	).Scan(&snap.ID, &snap.Name, &snap.Length, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get snapshot: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT payload FROM snapshot_nodes WHERE snapshot_id = ? ORDER BY position`), id)
	if err != nil {
		return nil, nil, fmt.Errorf("query nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	payloads := make([]string, 0, snap.Length)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, nil, fmt.Errorf("scan node: %w", err)
		}
		payloads = append(payloads, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate nodes: %w", err)
	}
	if len(payloads) != snap.Length {
		return nil, nil, fmt.Errorf("snapshot %s: stored %d nodes for length %d: %w",
			id, len(payloads), snap.Length, linkedlist.ErrInvariant)
	}

	nodes := linkedlist.NewArena[string]()
	head, _ := linkedlist.Chain(nodes, payloads...)
	l, err := linkedlist.New(nodes, snap.Length, head, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("restore snapshot %s: %w", id, err)
	}

	s.logger.Debug("snapshot loaded", "id", id, "length", snap.Length)
	return l, snap, nil
}

// ListSnapshots returns all snapshots, newest first.
func (s *sqlStore) ListSnapshots(ctx context.Context) ([]*Snapshot, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, length, created_at FROM snapshots ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.Length, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// DeleteSnapshot removes a snapshot and its nodes.
func (s *sqlStore) DeleteSnapshot(ctx context.Context, id string) error {
	if s.db == nil {
		return ErrNotOpen
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM snapshot_nodes WHERE snapshot_id = ?`), id); err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.q(`DELETE FROM snapshots WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
