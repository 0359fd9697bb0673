package render

import (
	"fmt"
	"strings"

	"github.com/koustreak/dsqldump/internal/catalog"
	"github.com/koustreak/dsqldump/internal/sqlfmt"
)

// Constraint renders a post-table constraint as ALTER TABLE ONLY ... ADD
// CONSTRAINT, using the catalog definition verbatim.
func Constraint(c catalog.Constraint, clean bool) string {
	table := sqlfmt.QuoteQualified(c.Schema, c.Table)
	name := sqlfmt.QuoteIdent(c.Name)

	lines := attribution(fmt.Sprintf("Name: %s; Type: CONSTRAINT; Schema: %s; Owner: %s; Table: %s",
		c.Name, c.Schema, c.Owner, c.Table))

	if clean {
		lines = append(lines,
			fmt.Sprintf("ALTER TABLE IF EXISTS %s DROP CONSTRAINT IF EXISTS %s;", table, name),
			"",
		)
	}

	lines = append(lines,
		fmt.Sprintf("ALTER TABLE ONLY %s", table),
		fmt.Sprintf("    ADD CONSTRAINT %s %s;", name, c.Definition),
		"",
	)
	return strings.Join(lines, "\n")
}
