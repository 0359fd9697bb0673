// Package config assembles dsql_dump settings from defaults, the PG*
// environment, an optional .env file and an optional YAML file. Command
// line flags are applied on top by the command itself.
//
// Precedence, lowest first: defaults, environment, YAML file, flags.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/koustreak/dsqldump/internal/database"
	"github.com/koustreak/dsqldump/internal/dump"
	"github.com/koustreak/dsqldump/internal/errs"
	"github.com/koustreak/dsqldump/internal/filestore"
	"github.com/koustreak/dsqldump/internal/logger"
	"github.com/koustreak/dsqldump/internal/render"
	"go.yaml.in/yaml/v3"
)

// Config is the complete configuration of one dump run.
type Config struct {
	Connection Connection `yaml:"connection"`
	Dump       Dump       `yaml:"dump"`
	Output     Output     `yaml:"output"`
	Log        Log        `yaml:"log"`
}

type Connection struct {
	DSN            string        `yaml:"dsn"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Database       string        `yaml:"database"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	SSLMode        string        `yaml:"sslmode"`
	Auth           string        `yaml:"auth"` // password or dsql
	Region         string        `yaml:"region"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type Dump struct {
	Schema     string `yaml:"schema"`
	Clean      bool   `yaml:"clean"`
	SchemaOnly bool   `yaml:"schema_only"`
	DataOnly   bool   `yaml:"data_only"`
	DataMode   string `yaml:"data_mode"`
	FKOrder    string `yaml:"fk_order"`
}

// Output selects where the dump goes: File, else object storage when
// Storage.Bucket is set, else stdout.
type Output struct {
	File    string  `yaml:"file"`
	Storage Storage `yaml:"storage"`
}

type Storage struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Key       string `yaml:"key"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    *bool  `yaml:"use_ssl"`
	Region    string `yaml:"region"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the Aurora DSQL defaults.
func Default() *Config {
	db := database.DefaultConfig()
	return &Config{
		Connection: Connection{
			Port:           db.Port,
			Database:       db.Database,
			User:           db.User,
			SSLMode:        db.SSLMode,
			ConnectTimeout: db.ConnectTimeout,
		},
		Dump: Dump{
			Schema:   dump.DefaultSchema,
			DataMode: string(render.DataModeBuffered),
			FKOrder:  string(dump.FKOrderKind),
		},
		Log: Log{Level: "warn", Format: "console"},
	}
}

// Load builds a Config from defaults, the environment and, when path is not
// empty, the YAML file at path.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "config file "+path, err)
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "read config file "+path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse config file "+path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the given files (".env" when none
// are named) into the process environment. Missing files are skipped and
// variables that are already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errs.Wrap(errs.ErrKindInvalidInput, "load "+p, err)
		}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("PGHOST", &c.Connection.Host)
	str("PGDATABASE", &c.Connection.Database)
	str("PGUSER", &c.Connection.User)
	str("PGPASSWORD", &c.Connection.Password)
	str("PGSSLMODE", &c.Connection.SSLMode)

	if v, ok := lookup("PGPORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errs.Wrap(errs.ErrKindValidation, "PGPORT is not a number", err)
		}
		c.Connection.Port = port
	}
	return nil
}

// AuthMode returns the configured authentication, defaulting to DSQL
// tokens for hosts under .on.aws and to plain passwords otherwise.
func (c *Config) AuthMode() database.AuthMode {
	switch database.AuthMode(strings.ToLower(c.Connection.Auth)) {
	case database.AuthDSQL:
		return database.AuthDSQL
	case database.AuthPassword:
		return database.AuthPassword
	}
	if strings.HasSuffix(strings.ToLower(c.Connection.Host), ".on.aws") {
		return database.AuthDSQL
	}
	return database.AuthPassword
}

// Validate checks the settings that can be checked without connecting.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Connection.Auth) {
	case "", string(database.AuthDSQL), string(database.AuthPassword):
	default:
		return errs.Newf(errs.ErrKindValidation, "unknown auth mode %q (want password or dsql)", c.Connection.Auth)
	}
	if c.Connection.Port < 0 || c.Connection.Port > 65535 {
		return errs.Newf(errs.ErrKindValidation, "port %d out of range", c.Connection.Port)
	}
	if c.Output.File != "" && c.Output.Storage.Bucket != "" {
		return errs.New(errs.ErrKindValidation, "choose either an output file or object storage, not both")
	}
	if c.UsesObjectStorage() {
		return c.StoreConfig().Validate()
	}
	return nil
}

// UsesObjectStorage reports whether the dump is uploaded instead of written
// locally.
func (c *Config) UsesObjectStorage() bool {
	return c.Output.Storage.Bucket != ""
}

// DatabaseConfig converts the connection section for the postgres driver.
func (c *Config) DatabaseConfig() *database.Config {
	db := database.DefaultConfig()
	db.DSN = c.Connection.DSN
	db.Host = c.Connection.Host
	db.Port = c.Connection.Port
	db.Database = c.Connection.Database
	db.User = c.Connection.User
	db.Password = c.Connection.Password
	db.SSLMode = c.Connection.SSLMode
	db.Auth = c.AuthMode()
	db.Region = c.Connection.Region
	if c.Connection.ConnectTimeout > 0 {
		db.ConnectTimeout = c.Connection.ConnectTimeout
	}
	return db
}

// DumpOptions converts the dump section.
func (c *Config) DumpOptions(version string) dump.Options {
	return dump.Options{
		Schema:     c.Dump.Schema,
		Clean:      c.Dump.Clean,
		SchemaOnly: c.Dump.SchemaOnly,
		DataOnly:   c.Dump.DataOnly,
		DataMode:   render.DataMode(c.Dump.DataMode),
		FKOrder:    dump.FKOrder(c.Dump.FKOrder),
		Version:    version,
	}
}

// StoreConfig converts the object storage section.
func (c *Config) StoreConfig() *filestore.Config {
	s := c.Output.Storage
	cfg := filestore.DefaultConfig(s.Bucket, s.Key)
	if s.Endpoint != "" {
		cfg.Endpoint = s.Endpoint
	}
	if s.UseSSL != nil {
		cfg.UseSSL = *s.UseSSL
	}
	cfg.AccessKey = s.AccessKey
	cfg.SecretKey = s.SecretKey
	cfg.Region = s.Region
	if cfg.Region == "" {
		cfg.Region = c.Connection.Region
	}
	return cfg
}

// LoggerConfig converts the log section. Logs always go to stderr.
func (c *Config) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	if c.Log.Level != "" {
		cfg.Level = c.Log.Level
	}
	if c.Log.Format != "" {
		cfg.Format = c.Log.Format
	}
	return cfg
}
