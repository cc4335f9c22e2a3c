package pgtern

import (
	"context"

	"github.com/denismitr/pgtern/internal/database"
	"github.com/denismitr/pgtern/internal/database/postgres"
	"github.com/denismitr/pgtern/internal/logger"
	"github.com/denismitr/pgtern/migration"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type historyStore interface {
	EnsureBootstrap(ctx context.Context) error
	Load(ctx context.Context) (database.HistoryRecords, error)
	RecordApplied(ctx context.Context, tx migration.Tx, name string) error
}

// Status describes the migration set against the recorded history
type Status struct {
	Applied []string
	Pending []string
}

// Runner applies the unapplied suffix of a migration set, one transaction per
// migration. Two runners must not migrate the same history table at once.
type Runner struct {
	lg        logger.Logger
	set       *migration.Set
	store     historyStore
	txm       *database.TxManager
	txOptions []database.TxConfigFunc
	schema    string
	table     string
}

// NewRunner binds a migration set to a PostgreSQL database. The runner
// borrows both, the set is never modified.
func NewRunner(db *sqlx.DB, set *migration.Set, opts ...OptionFunc) (*Runner, error) {
	if db == nil {
		return nil, ErrDatabaseNotSpecified
	}

	r, err := newRunner(db, set, opts...)
	if err != nil {
		return nil, err
	}

	r.store = postgres.NewStore(db, r.schema, r.table, r.lg)

	return r, nil
}

func newRunner(db database.TxBeginner, set *migration.Set, opts ...OptionFunc) (*Runner, error) {
	if set == nil {
		return nil, ErrMigrationSetNotSpecified
	}

	r := &Runner{
		lg:     logger.NullLogger{},
		set:    set,
		txm:    database.NewTxManager(db),
		schema: database.DefaultSchema,
		table:  database.DefaultTable,
	}

	for _, oFunc := range opts {
		if err := oFunc(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Migrate applies every migration not yet recorded in history, in set order,
// and returns the names applied by this call. The run halts at the first
// failing migration with an *ExecutionError.
func (r *Runner) Migrate(ctx context.Context) ([]string, error) {
	applied, err := r.reconcile(ctx)
	if err != nil {
		r.lg.Error(err)
		return nil, err
	}

	unapplied := r.set.Suffix(len(applied))
	if len(unapplied) == 0 {
		r.lg.Successf("nothing to migrate, %d migrations already applied", len(applied))
		return nil, nil
	}

	var migrated []string
	for _, m := range unapplied {
		r.lg.Debugf("migrating [%s]", m.Name())

		if err := r.apply(ctx, m); err != nil {
			r.lg.Error(err)
			return migrated, err
		}

		r.lg.Successf("migrated [%s]", m.Name())
		migrated = append(migrated, m.Name())
	}

	return migrated, nil
}

// Status reports applied and pending migrations without applying anything
func (r *Runner) Status(ctx context.Context) (Status, error) {
	applied, err := r.reconcile(ctx)
	if err != nil {
		r.lg.Error(err)
		return Status{}, err
	}

	var pending []string
	for _, m := range r.set.Suffix(len(applied)) {
		pending = append(pending, m.Name())
	}

	return Status{Applied: applied, Pending: pending}, nil
}

// RevertTo is reserved for reverting down to the named migration
// and is not supported yet
func (r *Runner) RevertTo(_ context.Context, name string) error {
	err := &UnsupportedOperationError{Operation: "revert to " + name}
	r.lg.Error(err)
	return err
}

func (r *Runner) reconcile(ctx context.Context) ([]string, error) {
	if err := r.store.EnsureBootstrap(ctx); err != nil {
		return nil, errors.Wrap(err, "could not bootstrap migration history")
	}

	records, err := r.store.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not load migration history")
	}

	history := records.Names()
	if err := validateHistory(history, r.set.Names()); err != nil {
		return nil, err
	}

	return history, nil
}

func (r *Runner) apply(ctx context.Context, m migration.Migration) error {
	err := r.txm.ReadWrite(ctx, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = errors.Errorf("forward action panicked: %v", p)
			}
		}()

		if err := m.Migrate(ctx, tx); err != nil {
			return err
		}

		if err := r.store.RecordApplied(ctx, tx, m.Name()); err != nil {
			return errors.Wrap(err, "could not record migration")
		}

		return nil
	}, r.txOptions...)

	if err != nil {
		return &ExecutionError{Migration: m.Name(), Err: err}
	}

	return nil
}

// validateHistory requires history to be a prefix of configured
func validateHistory(history, configured []string) error {
	if len(history) > len(configured) {
		return &HistoryIntegrityError{
			Kind:       HistoryTooLong,
			HistoryLen: len(history),
			SetLen:     len(configured),
		}
	}

	for i := range history {
		if history[i] != configured[i] {
			return &HistoryIntegrityError{
				Kind:       HistoryMismatch,
				Position:   i,
				Recorded:   history[i],
				Configured: configured[i],
				HistoryLen: len(history),
				SetLen:     len(configured),
			}
		}
	}

	return nil
}
