package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/koustreak/dsqldump/internal/catalog"
	"github.com/koustreak/dsqldump/internal/database"
	"github.com/koustreak/dsqldump/internal/errs"
	"github.com/koustreak/dsqldump/internal/logger"
	"github.com/koustreak/dsqldump/internal/sqlfmt"
)

// DataMode selects how table data is extracted.
type DataMode string

const (
	DataModeBuffered  DataMode = "buffered"
	DataModeStreaming DataMode = "streaming"
)

// ParseDataMode validates a --data-mode value. The empty string means
// buffered.
func ParseDataMode(s string) (DataMode, error) {
	switch DataMode(strings.ToLower(s)) {
	case "", DataModeBuffered:
		return DataModeBuffered, nil
	case DataModeStreaming:
		return DataModeStreaming, nil
	default:
		return "", errs.Newf(errs.ErrKindValidation, "unknown data mode %q (want buffered or streaming)", s)
	}
}

// TableCopier writes one table's COPY block to w.
type TableCopier interface {
	CopyTable(ctx context.Context, w io.Writer, t catalog.Table) error
}

// NewTableCopier returns the copier for mode.
func NewTableCopier(mode DataMode, db database.DB, log *logger.Logger) TableCopier {
	if mode == DataModeStreaming {
		return &StreamingCopier{db: db, log: log}
	}
	return &BufferedCopier{db: db, log: log}
}

// CopyHeader is the attribution comment and COPY ... FROM stdin line that
// open a data block.
func CopyHeader(t catalog.Table) string {
	lines := attribution(fmt.Sprintf("Data for Name: %s; Type: TABLE DATA; Schema: %s; Owner: %s", t.Name, t.Schema, t.Owner))
	lines = append(lines, fmt.Sprintf("COPY %s (%s) FROM stdin;",
		sqlfmt.QuoteQualified(t.Schema, t.Name), sqlfmt.QuoteIdents(t.ColumnNames())))
	return strings.Join(lines, "\n") + "\n"
}

// CopyTrailer terminates a data block.
const CopyTrailer = "\\.\n\n"

// BufferedCopier selects a table's rows, materialises them and encodes each
// value itself. A failure to read or encode rows is logged and leaves a
// valid, possibly empty, COPY block behind. Cancellation is never swallowed.
type BufferedCopier struct {
	db  database.Querier
	log *logger.Logger
}

// NewBufferedCopier creates a BufferedCopier. A nil log falls back to the
// logger carried by the context.
func NewBufferedCopier(db database.Querier, log *logger.Logger) *BufferedCopier {
	return &BufferedCopier{db: db, log: log}
}

func (c *BufferedCopier) CopyTable(ctx context.Context, w io.Writer, t catalog.Table) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.ErrKindTimeout, "dump interrupted before "+t.Schema+"."+t.Name, err)
	}

	log := tableLogger(ctx, c.log, t)
	var b strings.Builder
	b.WriteString(CopyHeader(t))

	n, err := c.writeRows(ctx, &b, t)
	switch {
	case err != nil && !errs.IsRowEncoding(err):
		return err
	case err != nil:
		log.WarnWith("could not dump table data", err, nil)
	default:
		log.With().Int("rows", n).Logger().Debug("copied table data")
	}

	b.WriteString(CopyTrailer)
	return writeOutput(w, b.String())
}

func (c *BufferedCopier) writeRows(ctx context.Context, b *strings.Builder, t catalog.Table) (int, error) {
	types := make([]string, len(t.Columns))
	var jsonCols []string
	for i, col := range t.Columns {
		types[i] = col.DataType
		if isJSONType(col.DataType) {
			jsonCols = append(jsonCols, col.Name)
		}
	}

	// JSON is fetched as the server's text so numbers, key order and a
	// top-level null survive unchanged.
	sql := database.Select(t.Schema, t.Name).Columns(t.ColumnNames()...).AsText(jsonCols...).Build()
	rows, err := c.db.Query(ctx, sql)
	if err != nil {
		return 0, rowError(ctx, "select rows of "+t.Name, err)
	}
	values, err := database.ScanValues(rows)
	if err != nil {
		return 0, rowError(ctx, "read rows of "+t.Name, err)
	}

	for _, row := range values {
		b.WriteString(CopyRow(row, types))
		b.WriteByte('\n')
	}
	return len(values), nil
}

// rowError classifies a failed read. Only failures of the table itself are
// recoverable; an interrupted run must stop the dump.
func rowError(ctx context.Context, msg string, err error) error {
	if ctx.Err() != nil || errs.IsTimeout(err) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}
	return errs.Wrap(errs.ErrKindRowEncoding, msg, err)
}

func tableLogger(ctx context.Context, log *logger.Logger, t catalog.Table) *logger.Logger {
	if log == nil {
		log = logger.FromContext(ctx)
	}
	return log.With().Str("schema", t.Schema).Str("table", t.Name).Logger()
}

// StreamingCopier relays the server's own COPY TO STDOUT output, so rows are
// never decoded. Any failure aborts the dump.
type StreamingCopier struct {
	db  database.Copier
	log *logger.Logger
}

// NewStreamingCopier creates a StreamingCopier. A nil log falls back to the
// logger carried by the context.
func NewStreamingCopier(db database.Copier, log *logger.Logger) *StreamingCopier {
	return &StreamingCopier{db: db, log: log}
}

func (c *StreamingCopier) CopyTable(ctx context.Context, w io.Writer, t catalog.Table) error {
	if err := writeOutput(w, CopyHeader(t)); err != nil {
		return err
	}

	sql := database.CopyOut(t.Schema, t.Name).Columns(t.ColumnNames()...).Build()
	n, err := c.db.CopyTo(ctx, w, sql)
	if err != nil {
		return errs.Wrap(errs.ErrKindStream, fmt.Sprintf("copy data of %s.%s", t.Schema, t.Name), err)
	}
	tableLogger(ctx, c.log, t).With().Int("rows", int(n)).Logger().Debug("streamed table data")

	return writeOutput(w, CopyTrailer)
}

func writeOutput(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return errs.Wrap(errs.ErrKindStream, "write dump output", err)
	}
	return nil
}
