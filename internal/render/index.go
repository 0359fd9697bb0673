package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/koustreak/dsqldump/internal/catalog"
	"github.com/koustreak/dsqldump/internal/sqlfmt"
)

// CreateIndex renders a standalone index. Indexes that back a constraint are
// created by the constraint itself, so they render as the empty string.
func CreateIndex(i catalog.Index, clean bool) string {
	if i.IsConstraintIndex {
		return ""
	}

	lines := attribution(fmt.Sprintf("Name: %s; Type: INDEX; Schema: %s; Owner: %s", i.Name, i.Schema, i.Owner))
	if clean {
		lines = append(lines, fmt.Sprintf("DROP INDEX IF EXISTS %s;", sqlfmt.QuoteQualified(i.Schema, i.Name)), "")
	}
	lines = append(lines, RequoteIndexDefinition(i.Definition)+";", "")
	return strings.Join(lines, "\n")
}

const identPattern = `"(?:[^"]|"")+"|[A-Za-z_][A-Za-z0-9_$]*`

var (
	indexHeadRe = regexp.MustCompile(`(?is)^(CREATE\s+(?:UNIQUE\s+)?INDEX)\s+(` + identPattern + `)\s+ON\s+(ONLY\s+)?(` +
		identPattern + `)\.(` + identPattern + `)(?:\s+USING\s+(\w+))?\s*\(`)
	includeRe  = regexp.MustCompile(`(?is)^\s*INCLUDE\s*\(`)
	plainColRe = regexp.MustCompile(`(?s)^(` + identPattern + `)(\s+.*)?$`)
)

// RequoteIndexDefinition rewrites a pg_get_indexdef result so every name in
// it is quoted and the DSQL-only btree_index access method is dropped.
// Definitions it does not recognise are returned unchanged.
func RequoteIndexDefinition(def string) string {
	def = strings.TrimSpace(def)
	m := indexHeadRe.FindStringSubmatchIndex(def)
	if m == nil {
		return def
	}
	group := func(n int) string {
		if m[2*n] < 0 {
			return ""
		}
		return def[m[2*n]:m[2*n+1]]
	}

	cols, rest, ok := splitParenList(def[m[1]:])
	if !ok {
		return def
	}

	var b strings.Builder
	b.WriteString(strings.ToUpper(strings.Join(strings.Fields(group(1)), " ")))
	b.WriteString(" ")
	b.WriteString(requote(group(2)))
	b.WriteString(" ON ")
	if group(3) != "" {
		b.WriteString("ONLY ")
	}
	b.WriteString(sqlfmt.QuoteQualified(sqlfmt.UnquoteIdent(group(4)), sqlfmt.UnquoteIdent(group(5))))
	if method := group(6); method != "" && !strings.EqualFold(method, "btree_index") {
		b.WriteString(" USING ")
		b.WriteString(method)
	}
	b.WriteString(" (")
	b.WriteString(requoteColumns(cols))
	b.WriteString(")")

	if loc := includeRe.FindStringIndex(rest); loc != nil {
		inc, after, ok := splitParenList(rest[loc[1]:])
		if !ok {
			return def
		}
		b.WriteString(" INCLUDE (")
		b.WriteString(requoteColumns(inc))
		b.WriteString(")")
		rest = after
	}
	if rest = strings.TrimSpace(rest); rest != "" {
		b.WriteString(" ")
		b.WriteString(rest)
	}
	return b.String()
}

func requote(ident string) string {
	return sqlfmt.QuoteIdent(sqlfmt.UnquoteIdent(ident))
}

// requoteColumns quotes the plain column references of a comma separated
// list. Expressions are kept verbatim, as are the ordering modifiers that
// follow a column name.
func requoteColumns(list string) string {
	parts := splitTopLevel(list)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if m := plainColRe.FindStringSubmatch(p); m != nil {
			p = requote(m[1]) + m[2]
		}
		parts[i] = p
	}
	return strings.Join(parts, ", ")
}

// splitParenList takes the text after an opening parenthesis and returns the
// contents up to the matching close and whatever follows it.
func splitParenList(s string) (inner, rest string, ok bool) {
	depth := 1
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// splitTopLevel splits on commas that are outside parentheses and quotes.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
