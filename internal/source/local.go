package source

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/denismitr/pgtern/internal/logger"
	"github.com/denismitr/pgtern/migration"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	DefaultMigrationsFolder = "./migrations"

	migrateFileExtension  = ".migrate.sql"
	rollbackFileExtension = ".rollback.sql"

	// schemaPlaceholder is replaced with the quoted target schema in every script
	schemaPlaceholder = "${schema}"
)

var (
	ErrFolderInvalid    = errors.New("migrations folder is invalid")
	ErrNoMigrations     = errors.New("no migrations found")
	ErrOrphanedRollback = errors.New("rollback file without a migrate file")
)

// LocalFolder reads migrations from *.migrate.sql files and their optional
// *.rollback.sql counterparts, ordered by file name
type LocalFolder struct {
	folder string
	schema string
	lg     logger.Logger
}

func NewLocalFolder(folder, schema string, lg logger.Logger) *LocalFolder {
	if folder == "" {
		folder = DefaultMigrationsFolder
	}

	if lg == nil {
		lg = logger.NullLogger{}
	}

	return &LocalFolder{folder: folder, schema: schema, lg: lg}
}

func (lf *LocalFolder) IsValid() bool {
	info, err := os.Stat(lf.folder)
	if err != nil {
		return false
	}

	return info.IsDir()
}

// Load builds the migration set from the folder contents
func (lf *LocalFolder) Load(ctx context.Context) (*migration.Set, error) {
	if !lf.IsValid() {
		return nil, errors.Wrapf(ErrFolderInvalid, "%s", lf.folder)
	}

	names, rollbacks, err := lf.scan()
	if err != nil {
		return nil, err
	}

	for name := range rollbacks {
		if _, ok := names[name]; !ok {
			return nil, errors.Wrapf(ErrOrphanedRollback, "%s%s", name, rollbackFileExtension)
		}
	}

	if len(names) == 0 {
		return nil, errors.Wrapf(ErrNoMigrations, "in folder %s", lf.folder)
	}

	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	migrations := make([]migration.Migration, 0, len(ordered))
	for _, name := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, hasRollback := rollbacks[name]
		m, err := lf.readOne(name, hasRollback)
		if err != nil {
			return nil, err
		}

		lf.lg.Debugf("loaded migration [%s], reversible: %v", name, migration.Reversible(m))
		migrations = append(migrations, m)
	}

	return migration.NewSet(migrations...)
}

func (lf *LocalFolder) scan() (map[string]struct{}, map[string]struct{}, error) {
	entries, err := ioutil.ReadDir(lf.folder)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not read folder %s", lf.folder)
	}

	names := make(map[string]struct{})
	rollbacks := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		switch fn := entry.Name(); {
		case strings.HasSuffix(fn, migrateFileExtension):
			names[strings.TrimSuffix(fn, migrateFileExtension)] = struct{}{}
		case strings.HasSuffix(fn, rollbackFileExtension):
			rollbacks[strings.TrimSuffix(fn, rollbackFileExtension)] = struct{}{}
		}
	}

	return names, rollbacks, nil
}

func (lf *LocalFolder) readOne(name string, hasRollback bool) (migration.Migration, error) {
	migrate, err := lf.readScript(name + migrateFileExtension)
	if err != nil {
		return nil, err
	}

	var rollback []string
	if hasRollback {
		script, err := lf.readScript(name + rollbackFileExtension)
		if err != nil {
			return nil, err
		}
		rollback = []string{script}
	}

	return migration.NewScript(name, []string{migrate}, rollback), nil
}

func (lf *LocalFolder) readScript(filename string) (string, error) {
	path := filepath.Join(lf.folder, filename)

	b, err := ioutil.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "could not read migration file %s", path)
	}

	script := string(b)
	if lf.schema != "" {
		script = strings.ReplaceAll(script, schemaPlaceholder, pq.QuoteIdentifier(lf.schema))
	}

	return script, nil
}
