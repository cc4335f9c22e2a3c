package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

var ErrTxDeadlock = errors.New("transaction deadlock occurred")

const pqDeadlockDetected = "40P01"

// DeadlockError is returned when postgres aborts the transaction to break a deadlock.
// It matches ErrTxDeadlock and unwraps to the driver error.
type DeadlockError struct {
	Iso   sql.IsolationLevel
	Stage string
	Err   error
}

func (e *DeadlockError) Error() string {
	return ErrTxDeadlock.Error() + " on " + e.Stage + ", isolation: " + e.Iso.String() + ": " + e.Err.Error()
}

func (e *DeadlockError) Is(target error) bool { return target == ErrTxDeadlock }
func (e *DeadlockError) Cause() error         { return e.Err }
func (e *DeadlockError) Unwrap() error        { return e.Err }

// TxConfig - configures tx
type TxConfig struct {
	Iso sql.IsolationLevel
}

type TxConfigFunc func(*TxConfig)

// Isolation tx config function
func Isolation(iso sql.IsolationLevel) TxConfigFunc {
	return func(txCfg *TxConfig) {
		txCfg.Iso = iso
	}
}

type TxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type TxCallback func(context.Context, *sqlx.Tx) error

// TxManager runs callbacks inside a single transaction that is committed
// when the callback succeeds and rolled back otherwise
type TxManager struct {
	db TxBeginner
}

func NewTxManager(db TxBeginner) *TxManager {
	return &TxManager{db: db}
}

func (txm *TxManager) ReadWrite(ctx context.Context, cb TxCallback, cfn ...TxConfigFunc) error {
	txCfg := TxConfig{Iso: sql.LevelDefault}
	for _, fn := range cfn {
		fn(&txCfg)
	}

	return txm.isolate(ctx, cb, txCfg)
}

func (txm *TxManager) isolate(ctx context.Context, cb TxCallback, txCfg TxConfig) error {
	txx, err := txm.db.BeginTxx(ctx, &sql.TxOptions{Isolation: txCfg.Iso})
	if err != nil {
		return errors.Wrapf(err, "could not start transaction. isolation: %s", txCfg.Iso)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = txx.Rollback()
			panic(p)
		}
	}()

	if err := cb(ctx, txx); err != nil {
		if isDeadlock(err) {
			err = &DeadlockError{Iso: txCfg.Iso, Stage: "callback", Err: err}
		}

		if rbErr := txx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rollback failed: %s", rbErr.Error())
		}

		return err
	}

	if err := txx.Commit(); err != nil {
		if isDeadlock(err) {
			return &DeadlockError{Iso: txCfg.Iso, Stage: "commit", Err: err}
		}

		return errors.Wrapf(err, "could not commit transaction. isolation: %s", txCfg.Iso)
	}

	return nil
}

func isDeadlock(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqDeadlockDetected
}
