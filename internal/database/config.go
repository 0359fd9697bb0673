package database

import "time"

// AuthMode selects how the postgres driver obtains a password.
type AuthMode string

const (
	// AuthPassword uses Config.Password (or PGPASSWORD) verbatim.
	AuthPassword AuthMode = "password"

	// AuthDSQL generates a short-lived Aurora DSQL IAM token per connection.
	AuthDSQL AuthMode = "dsql"
)

// Config holds all settings needed to connect to and pool a database.
type Config struct {
	// DSN is a full connection string. When set, Host/Port/Database/User/
	// Password/SSLMode are ignored.
	// Example: "postgres://admin@abc.dsql.us-east-1.on.aws:5432/postgres"
	DSN string

	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// Auth selects password or DSQL token authentication.
	Auth AuthMode

	// Region is the AWS region used to sign DSQL tokens. When empty it is
	// derived from Host.
	Region string

	// Pool tuning
	MaxConns        int32         // maximum number of connections in the pool
	MinConns        int32         // minimum number of idle connections kept alive
	MaxConnLifetime time.Duration // maximum time a connection may be reused
	MaxConnIdleTime time.Duration // maximum time a connection may sit idle

	// Timeouts
	ConnectTimeout time.Duration // time limit for establishing a new connection
}

// DefaultConfig returns the settings for a single dump invocation against an
// Aurora DSQL cluster: fixed database/user/port, TLS required, and a pool
// just large enough for the concurrent catalog reads.
func DefaultConfig() *Config {
	return &Config{
		Port:            5432,
		Database:        "postgres",
		User:            "admin",
		SSLMode:         "require",
		Auth:            AuthPassword,
		MaxConns:        4,
		MinConns:        0,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}
