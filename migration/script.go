package migration

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

type scriptMigration struct {
	name    string
	migrate []string
}

type reversibleScriptMigration struct {
	scriptMigration
	rollback []string
}

// NewScript creates a migration that executes SQL statements in order.
// The migration is reversible only when rollback statements are given.
func NewScript(name string, migrate, rollback []string) Migration {
	s := scriptMigration{name: name, migrate: nonBlank(migrate)}

	rb := nonBlank(rollback)
	if len(rb) == 0 {
		return &s
	}

	return &reversibleScriptMigration{scriptMigration: s, rollback: rb}
}

func (s *scriptMigration) Name() string {
	return s.name
}

func (s *scriptMigration) Migrate(ctx context.Context, tx Tx) error {
	if len(s.migrate) == 0 {
		return errors.Wrapf(ErrActionNotSpecified, "migration [%s] has no migrate scripts", s.name)
	}

	return execScripts(ctx, tx, s.name, s.migrate)
}

// Scripts returns a copy of the forward statements
func (s *scriptMigration) Scripts() []string {
	return append([]string(nil), s.migrate...)
}

func (s *reversibleScriptMigration) Rollback(ctx context.Context, tx Tx) error {
	return execScripts(ctx, tx, s.name, s.rollback)
}

// RollbackScripts returns a copy of the reverse statements
func (s *reversibleScriptMigration) RollbackScripts() []string {
	return append([]string(nil), s.rollback...)
}

func execScripts(ctx context.Context, tx Tx, name string, scripts []string) error {
	for i, script := range scripts {
		if _, err := tx.ExecContext(ctx, script); err != nil {
			return errors.Wrapf(err, "could not execute script #%d of migration [%s]", i+1, name)
		}
	}

	return nil
}

func nonBlank(scripts []string) []string {
	var result []string
	for _, s := range scripts {
		if strings.TrimSpace(s) != "" {
			result = append(result, s)
		}
	}

	return result
}
