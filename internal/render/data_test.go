package render

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/koustreak/dsqldump/internal/catalog"
	"github.com/koustreak/dsqldump/internal/database"
	"github.com/koustreak/dsqldump/internal/errs"
	"github.com/koustreak/dsqldump/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

type fakeDB struct {
	rows     *fakeRows
	queryErr error
	stream   string
	copyErr  error
	sql      []string
}

func (db *fakeDB) Query(_ context.Context, sql string, _ ...any) (database.Rows, error) {
	db.sql = append(db.sql, sql)
	if db.queryErr != nil {
		return nil, db.queryErr
	}
	return db.rows, nil
}

func (db *fakeDB) CopyTo(_ context.Context, w io.Writer, sql string) (int64, error) {
	db.sql = append(db.sql, sql)
	if db.copyErr != nil {
		return 0, db.copyErr
	}
	n, err := io.WriteString(w, db.stream)
	return int64(n), err
}

func (db *fakeDB) Ping(context.Context) error { return nil }
func (db *fakeDB) Close()                     {}

var dataTable = catalog.Table{
	Schema: "public",
	Name:   "users",
	Owner:  "admin",
	Columns: []catalog.Column{
		{Name: "id", DataType: "integer"},
		{Name: "name", DataType: "text"},
	},
}

const dataHeader = "--\n" +
	"-- Data for Name: users; Type: TABLE DATA; Schema: public; Owner: admin\n" +
	"--\n" +
	"\n" +
	`COPY "public"."users" ("id", "name") FROM stdin;` + "\n"

func TestBufferedCopier(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{
		cols: []string{"id", "name"},
		data: [][]any{{int32(1), "ann"}, {int32(2), nil}},
	}}
	var out bytes.Buffer

	require.NoError(t, NewBufferedCopier(db, nil).CopyTable(context.Background(), &out, dataTable))

	assert.Equal(t, dataHeader+"1\tann\n2\t\\N\n\\.\n\n", out.String())
	assert.Equal(t, []string{`SELECT "id", "name" FROM "public"."users"`}, db.sql)
}

func TestBufferedCopier_EmptyTable(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{cols: []string{"id", "name"}}}
	var out bytes.Buffer

	require.NoError(t, NewBufferedCopier(db, nil).CopyTable(context.Background(), &out, dataTable))
	assert.Equal(t, dataHeader+"\\.\n\n", out.String())
}

func TestBufferedCopier_FailureKeepsBlockValid(t *testing.T) {
	var logs bytes.Buffer
	log := logger.New(&logger.Config{Level: "warn", Format: "json", Output: &logs})

	tests := []struct {
		name string
		db   *fakeDB
	}{
		{"query", &fakeDB{queryErr: errors.New("relation does not exist")}},
		{"iteration", &fakeDB{rows: &fakeRows{cols: []string{"id", "name"}, err: errors.New("conn reset")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			var out bytes.Buffer

			err := NewBufferedCopier(tt.db, log).CopyTable(context.Background(), &out, dataTable)

			require.NoError(t, err, "row failures do not abort the dump")
			assert.Equal(t, dataHeader+"\\.\n\n", out.String())
			assert.Contains(t, logs.String(), `"table":"users"`)
			assert.Contains(t, logs.String(), `"schema":"public"`)
		})
	}
}

func TestBufferedCopier_JSONKeepsServerText(t *testing.T) {
	table := catalog.Table{
		Schema: "public",
		Name:   "events",
		Owner:  "admin",
		Columns: []catalog.Column{
			{Name: "id", DataType: "integer"},
			{Name: "payload", DataType: "jsonb"},
			{Name: "raw", DataType: "json"},
		},
	}
	db := &fakeDB{rows: &fakeRows{
		cols: []string{"id", "payload", "raw"},
		data: [][]any{
			{int32(1), `{"id": 12345678901234567890}`, `{"b":1,  "a":2}`},
			{int32(2), "null", nil},
		},
	}}
	var out bytes.Buffer

	require.NoError(t, NewBufferedCopier(db, nil).CopyTable(context.Background(), &out, table))

	assert.Equal(t,
		[]string{`SELECT "id", "payload"::text AS "payload", "raw"::text AS "raw" FROM "public"."events"`},
		db.sql)
	assert.Contains(t, out.String(), "1\t{\"id\": 12345678901234567890}\t{\"b\":1,  \"a\":2}\n")
	assert.Contains(t, out.String(), "2\tnull\t\\N\n", "a JSON null is not SQL NULL")
}

func TestBufferedCopier_CancelledRunStops(t *testing.T) {
	var logs bytes.Buffer
	log := logger.New(&logger.Config{Level: "warn", Format: "json", Output: &logs})

	t.Run("cancelled before the table", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		db := &fakeDB{rows: &fakeRows{cols: []string{"id", "name"}}}
		var out bytes.Buffer

		err := NewBufferedCopier(db, log).CopyTable(ctx, &out, dataTable)

		require.Error(t, err)
		assert.True(t, errs.IsTimeout(err))
		assert.Empty(t, out.String())
		assert.Empty(t, db.sql)
	})

	t.Run("cancelled during the query", func(t *testing.T) {
		logs.Reset()
		db := &fakeDB{queryErr: errs.Wrap(errs.ErrKindTimeout, "query cancelled", context.Canceled)}
		var out bytes.Buffer

		err := NewBufferedCopier(db, log).CopyTable(context.Background(), &out, dataTable)

		require.Error(t, err)
		assert.True(t, errs.IsTimeout(err))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, out.String(), "no COPY block is closed for an interrupted table")
		assert.Empty(t, logs.String())
	})
}

func TestBufferedCopier_LoggerFromContext(t *testing.T) {
	var logs bytes.Buffer
	log := logger.New(&logger.Config{Level: "warn", Format: "json", Output: &logs})
	ctx := log.WithContext(context.Background())
	db := &fakeDB{queryErr: errors.New("relation does not exist")}

	require.NoError(t, NewBufferedCopier(db, nil).CopyTable(ctx, io.Discard, dataTable))
	assert.Contains(t, logs.String(), "could not dump table data")
	assert.Contains(t, logs.String(), `"table":"users"`)
}

func TestStreamingCopier(t *testing.T) {
	db := &fakeDB{stream: "1\tann\n2\t\\N\n"}
	var out bytes.Buffer

	require.NoError(t, NewStreamingCopier(db, nil).CopyTable(context.Background(), &out, dataTable))

	assert.Equal(t, dataHeader+"1\tann\n2\t\\N\n\\.\n\n", out.String())
	assert.Equal(t, []string{`COPY "public"."users" ("id", "name") TO STDOUT`}, db.sql)
}

func TestStreamingCopier_FailureIsStreamError(t *testing.T) {
	db := &fakeDB{copyErr: errs.New(errs.ErrKindQueryFailed, "copy failed")}
	var out bytes.Buffer

	err := NewStreamingCopier(db, nil).CopyTable(context.Background(), &out, dataTable)

	require.Error(t, err)
	assert.True(t, errs.IsStream(err))
	assert.NotContains(t, out.String(), `\.`)
}

func TestBufferedAndStreamingAgree(t *testing.T) {
	buffered := &fakeDB{rows: &fakeRows{cols: []string{"id", "name"}, data: [][]any{{int32(7), "tab\there"}}}}
	streaming := &fakeDB{stream: "7\ttab\\there\n"}

	var a, b bytes.Buffer
	require.NoError(t, NewBufferedCopier(buffered, nil).CopyTable(context.Background(), &a, dataTable))
	require.NoError(t, NewStreamingCopier(streaming, nil).CopyTable(context.Background(), &b, dataTable))

	assert.Equal(t, a.String(), b.String())
}

func TestParseDataMode(t *testing.T) {
	mode, err := ParseDataMode("")
	require.NoError(t, err)
	assert.Equal(t, DataModeBuffered, mode)

	mode, err = ParseDataMode("Streaming")
	require.NoError(t, err)
	assert.Equal(t, DataModeStreaming, mode)

	_, err = ParseDataMode("parallel")
	assert.True(t, errs.IsValidation(err))
}

func TestNewTableCopier(t *testing.T) {
	db := &fakeDB{}

	assert.IsType(t, &BufferedCopier{}, NewTableCopier(DataModeBuffered, db, nil))
	assert.IsType(t, &StreamingCopier{}, NewTableCopier(DataModeStreaming, db, nil))
}
