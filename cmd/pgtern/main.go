package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/denismitr/pgtern/internal/cli"
	"github.com/logrusorgru/aurora/v3"
	"github.com/pkg/errors"
)

const defaultConfigPath = "./pgtern.yaml"

func fail(err error) {
	fmt.Println(aurora.Red("pgtern-cli: "), err.Error())
	os.Exit(1)
}

func done(msg string) {
	fmt.Println(aurora.Green("pgtern-cli: "), msg)
	os.Exit(0)
}

func loadConfig(path, databaseURL, folder, schema, table string) (cli.Config, error) {
	cfg := cli.NewDefaultConfig()

	if cli.FileExists(path) {
		var err error
		cfg, err = cli.LoadConfig(path)
		if err != nil && !(errors.Is(err, cli.ErrDatabaseURLNotDefined) && databaseURL != "") {
			return cfg, err
		}
	}

	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if folder != "" {
		cfg.MigrationsFolder = folder
	}
	if schema != "" {
		cfg.Schema = schema
	}
	if table != "" {
		cfg.Table = table
	}

	return cfg, cfg.Validate()
}

func main() {
	initCmd := flag.Bool("init", false, "create a config file stub")
	migrateCmd := flag.Bool("migrate", false, "apply all pending migrations")
	statusCmd := flag.Bool("status", false, "list applied and pending migrations")
	revertTo := flag.String("revert", "", "revert down to the named migration (not supported yet)")

	configPath := flag.String("config", defaultConfigPath, "path to the config file")
	databaseURL := flag.String("db", "", "database URL, overrides the config file")
	folder := flag.String("folder", "", "local migrations folder, overrides the config file")
	schema := flag.String("schema", "", "schema of the history table, overrides the config file")
	table := flag.String("table", "", "history table name, overrides the config file")
	printSQL := flag.Bool("sql", false, "print executed sql")
	debug := flag.Bool("debug", false, "print debug output")
	timeout := flag.Duration("timeout", 10*time.Minute, "timeout of the whole run")

	flag.Parse()

	if *initCmd {
		if err := cli.InitCfg(*configPath); err != nil {
			fail(err)
		}
		done("config created at " + *configPath)
	}

	if !*migrateCmd && !*statusCmd && *revertTo == "" {
		fail(errors.New("unknown command, use -migrate, -status or -revert"))
	}

	cfg, err := loadConfig(*configPath, *databaseURL, *folder, *schema, *table)
	if err != nil {
		fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	app, closer, err := cli.New(ctx, cfg, log.New(os.Stdout, "", 0), *printSQL, *debug)
	if err != nil {
		fail(err)
	}

	defer func() {
		if err := closer(); err != nil {
			fmt.Println(aurora.Red("pgtern-cli: "), err.Error())
		}
	}()

	switch {
	case *migrateCmd:
		migrated, err := app.Migrate(ctx)
		if err != nil {
			fail(err)
		}

		if len(migrated) == 0 {
			fmt.Println(aurora.Green("pgtern-cli: "), "nothing to migrate")
			return
		}

		fmt.Println(aurora.Green("pgtern-cli: "), "migrated "+strings.Join(migrated, ", "))
	case *statusCmd:
		status, err := app.Status(ctx)
		if err != nil {
			fail(err)
		}

		for _, name := range status.Applied {
			fmt.Println(aurora.Green("applied: "), name)
		}
		for _, name := range status.Pending {
			fmt.Println(aurora.Yellow("pending: "), name)
		}
	default:
		if err := app.RevertTo(ctx, *revertTo); err != nil {
			fail(err)
		}
	}
}
