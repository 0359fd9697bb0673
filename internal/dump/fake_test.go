package dump

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/koustreak/dsqldump/internal/database"
)

type fakeRows struct {
	cols []string
	data [][]any
	pos  int
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
func (r *fakeRows) Err() error                 { return nil }

type result struct {
	cols []string
	data [][]any
	err  error
}

// fakeDB answers every statement with the result registered under the
// first key contained in its SQL. It is safe for the concurrent catalog
// reads.
type fakeDB struct {
	mu      sync.Mutex
	results map[string]result
	streams map[string]string
	sql     []string
}

func (db *fakeDB) Query(_ context.Context, sql string, _ ...any) (database.Rows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.sql = append(db.sql, sql)

	for key, res := range db.results {
		if strings.Contains(sql, key) {
			if res.err != nil {
				return nil, res.err
			}
			return &fakeRows{cols: res.cols, data: res.data}, nil
		}
	}
	return &fakeRows{}, nil
}

func (db *fakeDB) CopyTo(_ context.Context, w io.Writer, sql string) (int64, error) {
	db.mu.Lock()
	db.sql = append(db.sql, sql)
	db.mu.Unlock()

	for key, payload := range db.streams {
		if strings.Contains(sql, key) {
			if _, err := io.WriteString(w, payload); err != nil {
				return 0, err
			}
			return int64(strings.Count(payload, "\n")), nil
		}
	}
	return 0, nil
}

func (db *fakeDB) Ping(context.Context) error { return nil }
func (db *fakeDB) Close()                     {}

func (db *fakeDB) statements() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]string(nil), db.sql...)
}

func (db *fakeDB) ran(fragment string) bool {
	for _, s := range db.statements() {
		if strings.Contains(s, fragment) {
			return true
		}
	}
	return false
}

var (
	tableCols = []string{
		"table_name", "schema_name", "owner", "table_comment", "column_name",
		"data_type", "not_null", "default_value", "column_comment",
	}
	constraintCols = []string{
		"constraint_name", "schema_name", "table_name", "owner", "constraint_type", "definition",
	}
	indexCols = []string{
		"index_name", "schema_name", "table_name", "owner", "definition",
		"is_unique", "is_primary", "is_constraint_index",
	}
)
