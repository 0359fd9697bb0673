package main

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/koustreak/dsqldump/internal/config"
	"github.com/koustreak/dsqldump/internal/database"
	"github.com/koustreak/dsqldump/internal/database/postgres"
	"github.com/koustreak/dsqldump/internal/dump"
	"github.com/koustreak/dsqldump/internal/errs"
	"github.com/koustreak/dsqldump/internal/filestore"
	"github.com/koustreak/dsqldump/internal/filestore/minio"
	"github.com/koustreak/dsqldump/internal/logger"
	"github.com/spf13/cobra"
)

// app holds the process streams and the constructors of the external
// collaborators, so tests can run the command against fakes.
type app struct {
	stdout    io.Writer
	stderr    io.Writer
	connect   func(ctx context.Context, cfg *database.Config) (database.DB, error)
	openStore func(ctx context.Context, cfg *filestore.Config) (filestore.Store, error)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		connect: func(ctx context.Context, cfg *database.Config) (database.DB, error) {
			return postgres.New(ctx, cfg)
		},
		openStore: func(ctx context.Context, cfg *filestore.Config) (filestore.Store, error) {
			return minio.New(ctx, cfg)
		},
	}
}

type flags struct {
	host, dbname, user, dsn, auth string
	port                          int
	schema                        string
	dataOnly, schemaOnly, clean   bool
	file                          string
	dataMode, fkOrder             string
	configPath                    string
	logLevel, logFormat           string
	s3Bucket, s3Key, s3Endpoint   string
}

func newRootCmd(a *app) *cobra.Command {
	var fl flags

	cmd := &cobra.Command{
		Use:   "dsql_dump [flags]",
		Short: "Dump an Aurora DSQL schema as a SQL script",
		Long: `dsql_dump writes the tables, data, constraints and indexes of one schema
as a plain SQL script that psql can replay.

Examples:

  dsql_dump -h abc123.dsql.us-east-1.on.aws > dump.sql
  dsql_dump -h localhost --auth password -n sales -s -f sales.sql
  dsql_dump --config dsql_dump.yaml --s3-bucket backups --s3-key dsql/public.sql
`,
		Version:       versionString(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, &fl)
		},
	}
	cmd.SetVersionTemplate("dsql_dump {{.Version}}\n")

	f := cmd.Flags()
	f.SortFlags = false
	f.StringVarP(&fl.host, "host", "h", "", "database server host (PGHOST)")
	f.IntVarP(&fl.port, "port", "p", 0, "database server port (PGPORT, default 5432)")
	f.StringVarP(&fl.dbname, "dbname", "d", "", "database to dump (PGDATABASE, default postgres)")
	f.StringVarP(&fl.user, "username", "U", "", "database user (PGUSER, default admin)")
	f.StringVar(&fl.dsn, "dsn", "", "full connection string; overrides host, port, dbname and username")
	f.StringVar(&fl.auth, "auth", "", "authentication: dsql or password (default dsql for *.on.aws hosts)")
	f.StringVarP(&fl.schema, "schema", "n", "", "schema to dump (default public)")
	f.BoolVarP(&fl.dataOnly, "data-only", "a", false, "dump only the data")
	f.BoolVarP(&fl.schemaOnly, "schema-only", "s", false, "dump only the object definitions")
	f.BoolVarP(&fl.clean, "clean", "c", false, "drop objects before recreating them")
	f.StringVarP(&fl.file, "file", "f", "", "write the dump to this file instead of stdout")
	f.StringVar(&fl.dataMode, "data-mode", "", "data extraction: buffered or streaming (default buffered)")
	f.StringVar(&fl.fkOrder, "fk-order", "", "foreign key order: kind or dependency (default kind)")
	f.StringVar(&fl.configPath, "config", "", "path to a YAML config file")
	f.StringVar(&fl.logLevel, "log-level", "", "log level: debug, info, warn, error (default warn)")
	f.StringVar(&fl.logFormat, "log-format", "", "log format: console or json (default console)")
	f.StringVar(&fl.s3Bucket, "s3-bucket", "", "upload the dump to this bucket")
	f.StringVar(&fl.s3Key, "s3-key", "", "object key of the uploaded dump")
	f.StringVar(&fl.s3Endpoint, "s3-endpoint", "", "S3-compatible endpoint (default s3.amazonaws.com)")
	// -h is the host; help is long-form only.
	f.Bool("help", false, "show this help")

	return cmd
}

func (a *app) run(cmd *cobra.Command, fl *flags) error {
	ctx := cmd.Context()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(fl.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, fl, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}
	opts := cfg.DumpOptions(versionString())
	if err := opts.Validate(); err != nil {
		return err
	}

	logCfg := cfg.LoggerConfig()
	logCfg.Output = a.stderr
	log := logger.New(logCfg)
	logger.SetGlobal(log)
	ctx = log.WithContext(ctx)

	dbCfg := cfg.DatabaseConfig()
	if dbCfg.Auth == database.AuthPassword && dbCfg.Password == "" && postgres.IsDSQLHost(dbCfg.Host) {
		log.Warn("connecting to a DSQL endpoint with password auth and no password; try --auth dsql")
	}

	db, err := a.connect(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	dumper := dump.New(db, nil)

	switch {
	case cfg.UsesObjectStorage():
		return a.upload(ctx, cfg.StoreConfig(), log, func(w io.Writer) error {
			return dumper.Run(ctx, w, opts)
		})
	case cfg.Output.File != "":
		err := writeFile(cfg.Output.File, func(w io.Writer) error {
			return dumper.Run(ctx, w, opts)
		})
		if err == nil {
			log.Infof("wrote dump to %s", cfg.Output.File)
		}
		return err
	default:
		return writeBuffered(a.stdout, func(w io.Writer) error {
			return dumper.Run(ctx, w, opts)
		})
	}
}

// applyFlags copies every flag the user actually set over cfg.
func applyFlags(cmd *cobra.Command, fl *flags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	str := func(name string, dst *string, val string) {
		if changed(name) {
			*dst = val
		}
	}
	boolean := func(name string, dst *bool, val bool) {
		if changed(name) {
			*dst = val
		}
	}

	str("host", &cfg.Connection.Host, fl.host)
	if changed("port") {
		cfg.Connection.Port = fl.port
	}
	str("dbname", &cfg.Connection.Database, fl.dbname)
	str("username", &cfg.Connection.User, fl.user)
	str("dsn", &cfg.Connection.DSN, fl.dsn)
	str("auth", &cfg.Connection.Auth, fl.auth)
	str("schema", &cfg.Dump.Schema, fl.schema)
	boolean("data-only", &cfg.Dump.DataOnly, fl.dataOnly)
	boolean("schema-only", &cfg.Dump.SchemaOnly, fl.schemaOnly)
	boolean("clean", &cfg.Dump.Clean, fl.clean)
	str("data-mode", &cfg.Dump.DataMode, fl.dataMode)
	str("fk-order", &cfg.Dump.FKOrder, fl.fkOrder)
	str("file", &cfg.Output.File, fl.file)
	str("s3-bucket", &cfg.Output.Storage.Bucket, fl.s3Bucket)
	str("s3-key", &cfg.Output.Storage.Key, fl.s3Key)
	str("s3-endpoint", &cfg.Output.Storage.Endpoint, fl.s3Endpoint)
	str("log-level", &cfg.Log.Level, fl.logLevel)
	str("log-format", &cfg.Log.Format, fl.logFormat)
}

func (a *app) upload(ctx context.Context, storeCfg *filestore.Config, log *logger.Logger, write func(io.Writer) error) error {
	store, err := a.openStore(ctx, storeCfg)
	if err != nil {
		return err
	}
	defer store.Close()

	info, err := filestore.Upload(ctx, store, storeCfg.Bucket, storeCfg.Key, func(w io.Writer) error {
		return writeBuffered(w, write)
	})
	if err != nil {
		return err
	}
	log.InfoWith("uploaded dump", map[string]interface{}{
		"bucket": storeCfg.Bucket,
		"key":    info.Key,
		"size":   info.Size,
	})
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "create output file", err)
	}
	if err := writeBuffered(f, write); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(errs.ErrKindStream, "close output file", err)
	}
	return nil
}

func writeBuffered(w io.Writer, write func(io.Writer) error) error {
	bw := bufio.NewWriterSize(w, 64<<10)
	if err := write(bw); err != nil {
		// Keep what was produced; a partial dump helps diagnose the failure.
		bw.Flush()
		return err
	}
	if err := bw.Flush(); err != nil {
		return errs.Wrap(errs.ErrKindStream, "flush dump output", err)
	}
	return nil
}
