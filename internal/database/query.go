package database

import (
	"strings"

	"github.com/koustreak/dsqldump/internal/sqlfmt"
)

// StatementBuilder constructs the dynamic statements used to dump a table's
// data. Table and column names are always identifier-quoted; no values are
// ever interpolated.
//
// Usage:
//
//	sql := Select("public", "users").Columns("id", "email").Build()
//	// SELECT "id", "email" FROM "public"."users"
//
//	sql = Select("public", "events").Columns("id", "payload").AsText("payload").Build()
//	// SELECT "id", "payload"::text AS "payload" FROM "public"."events"
//
//	sql = CopyOut("public", "users").Columns("id", "email").Build()
//	// COPY "public"."users" ("id", "email") TO STDOUT
type StatementBuilder struct {
	verb    verb
	schema  string
	table   string
	columns []string
	asText  map[string]bool
}

type verb int

const (
	verbSelect verb = iota
	verbCopyOut
)

// Select starts a SELECT over schema.table.
func Select(schema, table string) *StatementBuilder {
	return &StatementBuilder{verb: verbSelect, schema: schema, table: table}
}

// CopyOut starts a COPY schema.table TO STDOUT.
func CopyOut(schema, table string) *StatementBuilder {
	return &StatementBuilder{verb: verbCopyOut, schema: schema, table: table}
}

// Columns restricts the statement to the specified columns, in order.
// If not called, SELECT * (or a column-less COPY) is used.
func (b *StatementBuilder) Columns(cols ...string) *StatementBuilder {
	b.columns = cols
	return b
}

// AsText makes a SELECT fetch the named columns cast to text, so the server's
// own rendering reaches the caller undecoded. COPY ignores it.
func (b *StatementBuilder) AsText(cols ...string) *StatementBuilder {
	if b.asText == nil {
		b.asText = make(map[string]bool, len(cols))
	}
	for _, c := range cols {
		b.asText[c] = true
	}
	return b
}

// Build produces the final SQL string.
func (b *StatementBuilder) Build() string {
	var sb strings.Builder
	table := sqlfmt.QuoteQualified(b.schema, b.table)

	switch b.verb {
	case verbCopyOut:
		sb.WriteString("COPY ")
		sb.WriteString(table)
		if len(b.columns) > 0 {
			sb.WriteString(" (")
			sb.WriteString(sqlfmt.QuoteIdents(b.columns))
			sb.WriteString(")")
		}
		sb.WriteString(" TO STDOUT")
	default:
		cols := "*"
		if len(b.columns) > 0 {
			cols = b.selectList()
		}
		sb.WriteString("SELECT ")
		sb.WriteString(cols)
		sb.WriteString(" FROM ")
		sb.WriteString(table)
	}

	return sb.String()
}

func (b *StatementBuilder) selectList() string {
	items := make([]string, len(b.columns))
	for i, c := range b.columns {
		q := sqlfmt.QuoteIdent(c)
		if b.asText[c] {
			q = q + "::text AS " + q
		}
		items[i] = q
	}
	return strings.Join(items, ", ")
}
