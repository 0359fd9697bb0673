// Package sqlfmt holds the identifier and literal quoting used by every
// rendered statement. Identifiers are always quoted.
package sqlfmt

import "strings"

// QuoteIdent wraps a SQL identifier in double quotes, doubling any embedded
// double quote. The result is valid for any input, including mixed-case
// names, reserved words and names containing punctuation.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteQualified returns schema.name with both parts quoted.
func QuoteQualified(schema, name string) string {
	return QuoteIdent(schema) + "." + QuoteIdent(name)
}

// QuoteIdents quotes each name and joins them with ", ".
func QuoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// UnquoteIdent reverses QuoteIdent. Names that are not wrapped in double
// quotes are returned unchanged.
func UnquoteIdent(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
}

// QuoteLiteral produces a standard SQL string literal. Only single quotes
// are escaped; backslashes pass through untouched.
func QuoteLiteral(text string) string {
	return "'" + strings.ReplaceAll(text, "'", "''") + "'"
}
