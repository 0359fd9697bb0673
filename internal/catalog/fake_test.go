package catalog

import (
	"context"
	"strings"

	"github.com/koustreak/dsqldump/internal/database"
)

// fakeRows serves a fixed result set of column-name keyed rows.
type fakeRows struct {
	cols []string
	data [][]any
	pos  int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	for i, d := range dest {
		*(d.(*any)) = r.data[r.pos-1][i]
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.cols, nil }
func (r *fakeRows) Close()                     {}
func (r *fakeRows) Err() error                 { return r.err }

// fakeQuerier answers a query with the result registered under the first
// key that appears in its SQL text.
type fakeQuerier struct {
	results map[string]*fakeRows
	err     error
	args    [][]any
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (database.Rows, error) {
	q.args = append(q.args, args)
	if q.err != nil {
		return nil, q.err
	}
	for key, rows := range q.results {
		if strings.Contains(sql, key) {
			return rows, nil
		}
	}
	return &fakeRows{}, nil
}

var tableCols = []string{
	"table_name", "schema_name", "owner", "table_comment", "column_name",
	"data_type", "not_null", "default_value", "column_comment",
}

var constraintCols = []string{
	"constraint_name", "schema_name", "table_name", "owner", "constraint_type", "definition",
}

var indexCols = []string{
	"index_name", "schema_name", "table_name", "owner", "definition",
	"is_unique", "is_primary", "is_constraint_index",
}
