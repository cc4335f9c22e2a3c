package migration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "migration.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func tableExists(t *testing.T, db *sqlx.DB, table string) bool {
	t.Helper()

	var count int
	err := db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	require.NoError(t, err)

	return count == 1
}

func TestFuncMigration(t *testing.T) {
	t.Parallel()

	t.Run("forward action receives the transaction", func(t *testing.T) {
		db := openTestDB(t)
		ctx := context.Background()

		m := New("create_foo", func(ctx context.Context, tx Tx) error {
			_, err := tx.ExecContext(ctx, "CREATE TABLE foo (id INTEGER PRIMARY KEY)")
			return err
		})

		assert.Equal(t, "create_foo", m.Name())
		assert.False(t, Reversible(m))

		tx, err := db.BeginTxx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, m.Migrate(ctx, tx))
		require.NoError(t, tx.Commit())

		assert.True(t, tableExists(t, db, "foo"))
	})

	t.Run("reversible migration exposes rollback", func(t *testing.T) {
		var calls []string
		m := NewReversible(
			"create_bar",
			func(context.Context, Tx) error { calls = append(calls, "migrate"); return nil },
			func(context.Context, Tx) error { calls = append(calls, "rollback"); return nil },
		)

		require.True(t, Reversible(m))
		require.NoError(t, m.Migrate(context.Background(), nil))
		require.NoError(t, m.Rollback(context.Background(), nil))
		assert.Equal(t, []string{"migrate", "rollback"}, calls)
	})

	t.Run("missing actions produce an error instead of a panic", func(t *testing.T) {
		err := New("empty", nil).Migrate(context.Background(), nil)
		assert.True(t, errors.Is(err, ErrActionNotSpecified))

		err = NewReversible("empty", noop, nil).Rollback(context.Background(), nil)
		assert.True(t, errors.Is(err, ErrActionNotSpecified))
	})
}

func TestScriptMigration(t *testing.T) {
	t.Parallel()

	t.Run("scripts are executed in order", func(t *testing.T) {
		db := openTestDB(t)
		ctx := context.Background()

		m := NewScript(
			"create_baz",
			[]string{
				"CREATE TABLE baz (id INTEGER PRIMARY KEY, name TEXT)",
				"INSERT INTO baz (name) VALUES ('first')",
			},
			[]string{"DROP TABLE baz"},
		)
		require.True(t, Reversible(m))

		tx, err := db.BeginTxx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, m.Migrate(ctx, tx))
		require.NoError(t, tx.Commit())

		var name string
		require.NoError(t, db.Get(&name, "SELECT name FROM baz"))
		assert.Equal(t, "first", name)

		tx, err = db.BeginTxx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, m.(Reverter).Rollback(ctx, tx))
		require.NoError(t, tx.Commit())

		assert.False(t, tableExists(t, db, "baz"))
	})

	t.Run("blank rollback scripts make the migration irreversible", func(t *testing.T) {
		m := NewScript("create_qux", []string{"CREATE TABLE qux (id INTEGER)"}, []string{"", "  \n"})
		assert.False(t, Reversible(m))
	})

	t.Run("a failing script names the migration and position", func(t *testing.T) {
		db := openTestDB(t)
		ctx := context.Background()

		m := NewScript("broken", []string{"CREATE TABLE ok (id INTEGER)", "CREATE TABLE"}, nil)

		tx, err := db.BeginTxx(ctx, nil)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		err = m.Migrate(ctx, tx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not execute script #2 of migration [broken]")
	})

	t.Run("no scripts at all is an error", func(t *testing.T) {
		err := NewScript("nothing", nil, nil).Migrate(context.Background(), nil)
		assert.True(t, errors.Is(err, ErrActionNotSpecified))
	})
}
