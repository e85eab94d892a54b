package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore creates a new PostgreSQL snapshot store.
func NewPostgresStore(logger *slog.Logger) *PostgresStore {
	return &PostgresStore{sqlStore: newSQLStore(logger, postgresDialect)}
}

// Open connects to the database at dsn and applies migrations.
func (s *PostgresStore) Open(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	s.db = db
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}

	s.logger.Debug("snapshot store opened", "backend", "postgres")
	return nil
}

// IsPostgresDSN reports whether path names a PostgreSQL database rather than
// a SQLite file.
func IsPostgresDSN(path string) bool {
	return strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://")
}

// OpenStore opens the backend selected by path: a postgres:// URL or a
// SQLite file path.
func OpenStore(ctx context.Context, path string, logger *slog.Logger) (Store, error) {
	if IsPostgresDSN(path) {
		store := NewPostgresStore(logger)
		if err := store.Open(ctx, path); err != nil {
			return nil, err
		}
		return store, nil
	}

	store := NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, err
	}
	return store, nil
}
