package cli

import (
	"context"

	"github.com/denismitr/pgtern"
	"github.com/denismitr/pgtern/internal/database"
	"github.com/denismitr/pgtern/internal/logger"
	"github.com/denismitr/pgtern/internal/source"
	"github.com/denismitr/pgtern/migration"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

const driverName = "postgres"

type CloserFunc func() error

type App struct {
	runner *pgtern.Runner
}

// New connects to the database, loads the migration folder and
// hands both to a runner
func New(ctx context.Context, cfg Config, p logger.Printer, printSQL, printDebug bool) (*App, CloserFunc, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	lg := logger.NewColorLogger(p, printSQL, printDebug)

	set, err := source.NewLocalFolder(cfg.MigrationsFolder, cfg.Schema, lg).Load(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not load migrations")
	}

	db, err := database.Connect(ctx, driverName, cfg.DatabaseURL, cfg.Connect)
	if err != nil {
		return nil, nil, err
	}

	app, err := newApp(db, set, cfg, pgtern.UseColorLogger(p, printSQL, printDebug))
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return app, db.Close, nil
}

func newApp(db *sqlx.DB, set *migration.Set, cfg Config, opts ...pgtern.OptionFunc) (*App, error) {
	opts = append(opts, pgtern.WithSchema(cfg.Schema), pgtern.WithTable(cfg.Table))

	r, err := pgtern.NewRunner(db, set, opts...)
	if err != nil {
		return nil, err
	}

	return &App{runner: r}, nil
}

func (app *App) Migrate(ctx context.Context) ([]string, error) {
	return app.runner.Migrate(ctx)
}

func (app *App) Status(ctx context.Context) (pgtern.Status, error) {
	return app.runner.Status(ctx)
}

func (app *App) RevertTo(ctx context.Context, name string) error {
	return app.runner.RevertTo(ctx, name)
}
