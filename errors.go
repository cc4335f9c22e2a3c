package pgtern

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrDatabaseNotSpecified     = errors.New("database has not been specified")
	ErrMigrationSetNotSpecified = errors.New("migration set has not been specified")
	ErrInvalidIdentifier        = errors.New("schema and table names must not be empty")
)

type HistoryIntegrityKind int

const (
	// HistoryTooLong - more migrations recorded than configured
	HistoryTooLong HistoryIntegrityKind = iota + 1
	// HistoryMismatch - a recorded name differs from the configured one at the same position
	HistoryMismatch
)

// HistoryIntegrityError means the recorded history is not a prefix of the
// configured migration set. Nothing has been applied when it is returned.
type HistoryIntegrityError struct {
	Kind       HistoryIntegrityKind
	Position   int
	Recorded   string
	Configured string
	HistoryLen int
	SetLen     int
}

func (e *HistoryIntegrityError) Error() string {
	if e.Kind == HistoryTooLong {
		return fmt.Sprintf(
			"history longer than configured set (%d recorded, %d configured): migrations may have been deleted",
			e.HistoryLen, e.SetLen,
		)
	}

	return fmt.Sprintf(
		"mismatched migration at position %d (recorded [%s], configured [%s]): migrations reordered or renamed",
		e.Position, e.Recorded, e.Configured,
	)
}

// ExecutionError wraps the failure of a single migration. Its transaction has
// been rolled back, migrations applied before it stay committed.
type ExecutionError struct {
	Migration string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("migration [%s] failed: %s", e.Migration, e.Err)
}

func (e *ExecutionError) Cause() error  { return e.Err }
func (e *ExecutionError) Unwrap() error { return e.Err }

type UnsupportedOperationError struct {
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation [%s] is not supported", e.Operation)
}
