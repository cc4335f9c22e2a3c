package cli

import (
	"io"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/denismitr/pgtern/internal/database"
	"github.com/denismitr/pgtern/internal/source"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

var (
	ErrDatabaseURLNotDefined = errors.New("database url was not defined")
	ErrConfigAlreadyExists   = errors.New("config file already exists")
)

type (
	Config struct {
		DatabaseURL      string
		MigrationsFolder string
		Schema           string
		Table            string
		Connect          database.ConnectOptions
	}

	migrations struct {
		LocalFolder     string `yaml:"local_folder"`
		DatabaseURL     string `yaml:"database_url"`
		Schema          string `yaml:"schema"`
		Table           string `yaml:"table"`
		ConnectAttempts int    `yaml:"connect_attempts"`
		Timeout         string `yaml:"timeout"`
	}

	configFile struct {
		Version    string     `yaml:"version"`
		Migrations migrations `yaml:"migrations"`
	}
)

const configFileStub = `version: "1"
migrations:
  database_url: "%%PGTERN_DATABASE_URL%%"
  local_folder: ./migrations
  schema: public
  table: _migrations
  connect_attempts: 10
  timeout: 60s
`

func NewDefaultConfig() Config {
	return Config{
		MigrationsFolder: source.DefaultMigrationsFolder,
		Schema:           database.DefaultSchema,
		Table:            database.DefaultTable,
		Connect:          database.NewDefaultConnectOptions(),
	}
}

// LoadConfig reads a yaml config file, values in the form %%NAME%% are
// taken from the environment variable NAME
func LoadConfig(path string) (Config, error) {
	cfg := NewDefaultConfig()

	b, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "could not read pgtern configuration file")
	}

	var cfgFile configFile
	if err := yaml.Unmarshal(b, &cfgFile); err != nil {
		return cfg, errors.Wrap(err, "could not parse pgtern configuration file")
	}

	m := cfgFile.Migrations

	cfg.DatabaseURL = fromEnv(m.DatabaseURL)
	if v := fromEnv(m.LocalFolder); v != "" {
		cfg.MigrationsFolder = v
	}
	if v := fromEnv(m.Schema); v != "" {
		cfg.Schema = v
	}
	if v := fromEnv(m.Table); v != "" {
		cfg.Table = v
	}
	if m.ConnectAttempts > 0 {
		cfg.Connect.MaxAttempts = m.ConnectAttempts
	}
	if m.Timeout != "" {
		timeout, err := time.ParseDuration(m.Timeout)
		if err != nil {
			return cfg, errors.Wrapf(err, "invalid timeout [%s]", m.Timeout)
		}
		cfg.Connect.MaxTimeout = timeout
	}

	return cfg, cfg.Validate()
}

func (cfg Config) Validate() error {
	if cfg.DatabaseURL == "" {
		return ErrDatabaseURLNotDefined
	}

	return nil
}

// InitCfg writes a config file stub to path
func InitCfg(path string) error {
	if FileExists(path) {
		return errors.Wrapf(ErrConfigAlreadyExists, "%s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create config file")
	}

	if _, err := io.Copy(f, strings.NewReader(configFileStub)); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "could not write config file")
	}

	return f.Close()
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !info.IsDir()
}

func fromEnv(value string) string {
	if len(value) > 4 && strings.HasPrefix(value, "%%") && strings.HasSuffix(value, "%%") {
		return os.Getenv(strings.Trim(value, "%"))
	}

	return value
}
