package state

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	sqlStore
	path string
}

// NewSQLiteStore creates a new SQLite snapshot store.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{sqlStore: newSQLStore(logger, sqliteDialect)}
}

// Open opens a connection to the SQLite database and applies migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a second connection to :memory: would see an empty database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}

	s.logger.Debug("snapshot store opened", "path", path)
	return nil
}
