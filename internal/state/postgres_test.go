package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/dlist/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLStore_Placeholders(t *testing.T) {
	query := `INSERT INTO snapshots (id, name, length, created_at) VALUES (?, ?, ?, ?)`

	sqlite := NewSQLiteStore(nil)
	assert.Equal(t, query, sqlite.q(query))

	pg := NewPostgresStore(nil)
	assert.Equal(t, `INSERT INTO snapshots (id, name, length, created_at) VALUES ($1, $2, $3, $4)`, pg.q(query))
	assert.Equal(t, `SELECT 1`, pg.q(`SELECT 1`))

	tests := []struct {
		query string
		want  string
	}{
		{`SELECT * FROM snapshots WHERE name = '?' AND id = ?`, `SELECT * FROM snapshots WHERE name = '?' AND id = $1`},
		{`SELECT 'it''s ?' , ?`, `SELECT 'it''s ?' , $1`},
		{`SELECT "odd?col" FROM t WHERE a = ? AND b = ?`, `SELECT "odd?col" FROM t WHERE a = $1 AND b = $2`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pg.q(tt.query), tt.query)
	}
}

func TestIsPostgresDSN(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"postgres://user@localhost/dlist", true},
		{"postgresql://localhost:5433/dlist?sslmode=disable", true},
		{".dlist/state.db", false},
		{":memory:", false},
		{"postgres.db", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPostgresDSN(tt.path))
		})
	}
}

func TestPostgresStore_LoadListUsesNumberedPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewPostgresStore(nil)
	store.OpenDB(db)

	mock.ExpectQuery(`SELECT id, name, length, created_at FROM snapshots WHERE id = $1`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "length", "created_at"}).
			AddRow("s1", "pg", 2, time.Now().UTC()))
	mock.ExpectQuery(`SELECT payload FROM snapshot_nodes WHERE snapshot_id = $1 ORDER BY position`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow("a").AddRow("b"))

	l, snap, err := store.LoadList(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "pg", snap.Name)
	assert.Equal(t, []string{"a", "b"}, l.Payloads())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenStore_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := OpenStore(context.Background(), path, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, ok := store.(*SQLiteStore)
	assert.True(t, ok, "file paths open a SQLite store")
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	dsn := os.Getenv("DLIST_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DLIST_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	store, err := OpenStore(ctx, dsn, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	snap, err := store.SaveList(ctx, "pg-roundtrip", buildList(t, "a", "b", "c"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.DeleteSnapshot(ctx, snap.ID) })

	l, loaded, err := store.LoadList(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, loaded.ID)
	assert.Equal(t, []string{"a", "b", "c"}, l.Payloads())
}
