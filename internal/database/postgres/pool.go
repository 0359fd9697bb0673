package postgres

import (
	"context"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koustreak/dsqldump/internal/database"
	"github.com/koustreak/dsqldump/internal/errs"
)

const (
	defaultPort   = 5432
	defaultRegion = "us-east-1"
)

// tokenFunc produces the password for one new connection.
type tokenFunc func(ctx context.Context, host, region, user string) (string, error)

// buildPoolConfig turns a database.Config into a pgxpool config. Nothing is
// dialled here.
func buildPoolConfig(cfg *database.Config, token tokenFunc) (*pgxpool.Config, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = buildDSN(cfg)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid connection settings", err)
	}

	poolCfg.MaxConns = withDefault(cfg.MaxConns, 4)
	poolCfg.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	if cfg.Auth == database.AuthDSQL {
		host := poolCfg.ConnConfig.Host
		region := cfg.Region
		if region == "" {
			region = ResolveRegion(host)
		}
		// Tokens expire; mint one for every physical connection.
		poolCfg.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
			tok, err := token(ctx, cc.Host, region, cc.User)
			if err != nil {
				return errs.Wrap(errs.ErrKindConnectionFailed, "failed to generate DSQL auth token", err)
			}
			cc.Password = tok
			return nil
		}
	}

	return poolCfg, nil
}

// buildDSN constructs a keyword/value connection string. Empty fields are
// omitted so pgx falls back to its own PG* environment handling.
func buildDSN(cfg *database.Config) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	parts := []string{fmt.Sprintf("port=%d", port)}
	add := func(key, val string) {
		if val != "" {
			parts = append(parts, key+"="+quoteDSNValue(val))
		}
	}
	add("host", cfg.Host)
	add("user", cfg.User)
	add("password", cfg.Password)
	add("dbname", cfg.Database)
	add("sslmode", cfg.SSLMode)
	return strings.Join(parts, " ")
}

// quoteDSNValue applies libpq keyword/value quoting.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// ResolveRegion derives the AWS region from a DSQL cluster endpoint of the
// form <id>.dsql.<region>.on.aws, falling back to AWS_REGION and then
// us-east-1.
func ResolveRegion(host string) string {
	labels := strings.Split(host, ".")
	for i, l := range labels {
		if l == "dsql" && i+1 < len(labels) && labels[i+1] != "" && labels[i+1] != "on" {
			return labels[i+1]
		}
	}
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	return defaultRegion
}

// IsDSQLHost reports whether host looks like an Aurora DSQL endpoint.
func IsDSQLHost(host string) bool {
	return strings.HasSuffix(host, ".on.aws") && strings.Contains(host, ".dsql.")
}

// generateDSQLToken signs an IAM auth token with the default AWS credential
// chain (environment, shared config, instance role).
func generateDSQLToken(ctx context.Context, host, region, user string) (string, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}
	if user == "admin" {
		return auth.GenerateDBConnectAdminAuthToken(ctx, host, region, awsCfg.Credentials)
	}
	return auth.GenerateDbConnectAuthToken(ctx, host, region, awsCfg.Credentials)
}

// withDefault returns val if non-zero, otherwise returns def
func withDefault(val, def int32) int32 {
	if val == 0 {
		return def
	}
	return val
}
