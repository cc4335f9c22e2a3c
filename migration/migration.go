package migration

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type (
	// Tx is the transaction scoped handle every action runs against
	Tx interface {
		sqlx.ExtContext
	}

	ActionFunc func(ctx context.Context, tx Tx) error

	// Migration is a named unit of schema change with a mandatory forward action
	Migration interface {
		Name() string
		Migrate(ctx context.Context, tx Tx) error
	}

	// Reverter is a Migration that also knows how to undo itself
	Reverter interface {
		Migration
		Rollback(ctx context.Context, tx Tx) error
	}
)

var ErrActionNotSpecified = errors.New("migration action not specified")

// Reversible reports whether m carries a reverse action
func Reversible(m Migration) bool {
	_, ok := m.(Reverter)
	return ok
}

type funcMigration struct {
	name    string
	migrate ActionFunc
}

type reversibleFuncMigration struct {
	funcMigration
	rollback ActionFunc
}

// New creates a migration from a forward action only
func New(name string, migrate ActionFunc) Migration {
	return &funcMigration{name: name, migrate: migrate}
}

// NewReversible creates a migration with both forward and reverse actions
func NewReversible(name string, migrate, rollback ActionFunc) Reverter {
	return &reversibleFuncMigration{
		funcMigration: funcMigration{name: name, migrate: migrate},
		rollback:      rollback,
	}
}

func (m *funcMigration) Name() string {
	return m.name
}

func (m *funcMigration) Migrate(ctx context.Context, tx Tx) error {
	if m.migrate == nil {
		return errors.Wrapf(ErrActionNotSpecified, "migration [%s] has no migrate action", m.name)
	}

	return m.migrate(ctx, tx)
}

func (m *reversibleFuncMigration) Rollback(ctx context.Context, tx Tx) error {
	if m.rollback == nil {
		return errors.Wrapf(ErrActionNotSpecified, "migration [%s] has no rollback action", m.name)
	}

	return m.rollback(ctx, tx)
}
