package database

import (
	"context"
	"io"
)

// Querier runs row-returning statements. Catalog queries pass their
// parameters as args; the data copier passes a fully built SELECT.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Copier streams the output of a COPY ... TO STDOUT statement into w and
// returns the number of rows copied.
type Copier interface {
	CopyTo(ctx context.Context, w io.Writer, sql string) (int64, error)
}

// DB is the contract the dump core consumes.
// Everything above this package talks only to this interface;
// it never imports the postgres package directly.
type DB interface {
	Querier
	Copier

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}
