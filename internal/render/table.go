package render

import (
	"fmt"
	"strings"

	"github.com/koustreak/dsqldump/internal/catalog"
	"github.com/koustreak/dsqldump/internal/sqlfmt"
)

// CreateTable renders a table with its inline constraints. constraints may
// be the full extracted set; only the non-deferrable primary key and unique
// constraints of t are used.
func CreateTable(t catalog.Table, constraints []catalog.Constraint, clean bool) string {
	name := sqlfmt.QuoteQualified(t.Schema, t.Name)
	lines := attribution(fmt.Sprintf("Name: %s; Type: TABLE; Schema: %s; Owner: %s", t.Name, t.Schema, t.Owner))

	if clean {
		lines = append(lines, fmt.Sprintf("DROP TABLE IF EXISTS %s;", name), "")
	}

	lines = append(lines, fmt.Sprintf("CREATE TABLE %s (", name))

	defs := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		defs = append(defs, columnDefinition(col))
	}
	for _, c := range catalog.InlineConstraints(constraints, t.Name) {
		defs = append(defs, fmt.Sprintf("    CONSTRAINT %s %s", sqlfmt.QuoteIdent(c.Name), c.Definition))
	}
	if len(defs) > 0 {
		lines = append(lines, strings.Join(defs, ",\n"))
	}
	lines = append(lines, ");")

	if t.Comment != "" {
		lines = append(lines, "", fmt.Sprintf("COMMENT ON TABLE %s IS %s;", name, sqlfmt.QuoteLiteral(t.Comment)))
	}
	for _, col := range t.Columns {
		if col.Comment != "" {
			lines = append(lines, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s;",
				name, sqlfmt.QuoteIdent(col.Name), sqlfmt.QuoteLiteral(col.Comment)))
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func columnDefinition(col catalog.Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "    %s %s", sqlfmt.QuoteIdent(col.Name), col.DataType)
	if col.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(col.Default)
	}
	if col.NotNull {
		b.WriteString(" NOT NULL")
	}
	return b.String()
}
