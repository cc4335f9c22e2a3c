package pgtern

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/denismitr/pgtern/internal/database"
	"github.com/denismitr/pgtern/migration"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// sqliteStore keeps history in SQLite so runner tests observe real commits and rollbacks
type sqliteStore struct {
	db         *sqlx.DB
	failRecord string
	bootstraps int
}

func (s *sqliteStore) EnsureBootstrap(ctx context.Context) error {
	s.bootstraps++
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL
	)`)
	return err
}

func (s *sqliteStore) Load(ctx context.Context) (database.HistoryRecords, error) {
	var records database.HistoryRecords
	err := sqlx.SelectContext(ctx, s.db, &records, "SELECT id, name FROM _migrations ORDER BY id ASC")
	return records, err
}

func (s *sqliteStore) RecordApplied(ctx context.Context, tx migration.Tx, name string) error {
	if name == s.failRecord {
		return errors.New("unique constraint violation")
	}

	_, err := tx.ExecContext(ctx, "INSERT INTO _migrations (name) VALUES (?)", name)
	return err
}

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "pgtern.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func newTestRunner(t *testing.T, db *sqlx.DB, set *migration.Set, opts ...OptionFunc) (*Runner, *sqliteStore) {
	t.Helper()

	store := &sqliteStore{db: db}
	r, err := newRunner(db, set, opts...)
	require.NoError(t, err)
	r.store = store

	return r, store
}

func seedHistory(t *testing.T, db *sqlx.DB, names ...string) {
	t.Helper()

	s := &sqliteStore{db: db}
	require.NoError(t, s.EnsureBootstrap(context.Background()))

	for _, name := range names {
		_, err := db.Exec("INSERT INTO _migrations (name) VALUES (?)", name)
		require.NoError(t, err)
	}
}

func historyNames(t *testing.T, db *sqlx.DB) []string {
	t.Helper()

	var names []string
	require.NoError(t, db.Select(&names, "SELECT name FROM _migrations ORDER BY id ASC"))
	return names
}

func tableExists(t *testing.T, db *sqlx.DB, table string) bool {
	t.Helper()

	var count int
	err := db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	require.NoError(t, err)

	return count == 1
}
