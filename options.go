package pgtern

import (
	"database/sql"

	"github.com/denismitr/pgtern/internal/database"
	"github.com/denismitr/pgtern/internal/logger"
)

type OptionFunc func(*Runner) error

// WithSchema sets the schema holding the history table, "public" by default
func WithSchema(schema string) OptionFunc {
	return func(r *Runner) error {
		if schema == "" {
			return ErrInvalidIdentifier
		}

		r.schema = schema
		return nil
	}
}

// WithTable sets the history table name, "_migrations" by default
func WithTable(table string) OptionFunc {
	return func(r *Runner) error {
		if table == "" {
			return ErrInvalidIdentifier
		}

		r.table = table
		return nil
	}
}

// WithIsolation sets the isolation level of every migration transaction
func WithIsolation(level sql.IsolationLevel) OptionFunc {
	return func(r *Runner) error {
		r.txOptions = append(r.txOptions, database.Isolation(level))
		return nil
	}
}

func UseLogger(p logger.Printer, printSQL, printDebug bool) OptionFunc {
	return func(r *Runner) error {
		r.lg = logger.NewBWLogger(p, printSQL, printDebug)
		return nil
	}
}

func UseColorLogger(p logger.Printer, printSQL, printDebug bool) OptionFunc {
	return func(r *Runner) error {
		r.lg = logger.NewColorLogger(p, printSQL, printDebug)
		return nil
	}
}
