package state

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// dialect describes the SQL differences between backends.
type dialect struct {
	goose      string
	migrations string
	// numbered placeholders ($1, $2) instead of ?
	numbered bool
}

var (
	sqliteDialect   = dialect{goose: "sqlite3", migrations: "migrations/sqlite"}
	postgresDialect = dialect{goose: "postgres", migrations: "migrations/postgres", numbered: true}
)

func setupGoose(d dialect) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(d.goose); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// Migrate runs all pending database migrations.
func (s *sqlStore) Migrate() error {
	if s.db == nil {
		return ErrNotOpen
	}
	return migrateWithDialect(s.db, s.dialect)
}

// MigrateWithDB runs the SQLite migrations using a raw database connection.
func MigrateWithDB(db *sql.DB) error {
	return migrateWithDialect(db, sqliteDialect)
}

func migrateWithDialect(db *sql.DB, d dialect) error {
	if err := setupGoose(d); err != nil {
		return err
	}
	if err := goose.Up(db, d.migrations); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the current migration version.
func (s *sqlStore) MigrationVersion() (int64, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}
	if err := setupGoose(s.dialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(s.db)
}
