package database

import (
	"context"
	"time"

	"github.com/denismitr/pgtern/internal/retry"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const (
	DefaultConnectionAttempts    = 10
	DefaultConnectionTimeout     = 60 * time.Second
	DefaultConnectionAttemptStep = 2 * time.Second
)

type ConnectOptions struct {
	MaxAttempts int
	MaxTimeout  time.Duration
	RetryStep   time.Duration
}

func NewDefaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		MaxAttempts: DefaultConnectionAttempts,
		MaxTimeout:  DefaultConnectionTimeout,
		RetryStep:   DefaultConnectionAttemptStep,
	}
}

// Connect opens a database handle and waits until the database answers a ping
func Connect(ctx context.Context, driverName, dsn string, opts ConnectOptions) (*sqlx.DB, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open [%s] database", driverName)
	}

	if opts.MaxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.MaxTimeout)
		defer cancel()
	}

	err = retry.Incremental(ctx, opts.RetryStep, opts.MaxAttempts, func(ctx context.Context, attempt int) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.Error(errors.Wrap(err, "db ping failed"), attempt)
		}

		return nil
	})

	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "could not establish DB connection")
	}

	return db, nil
}
