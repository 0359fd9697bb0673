package sqlfmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "users", `"users"`},
		{"mixed case", "Users", `"Users"`},
		{"reserved word", "order", `"order"`},
		{"whitespace", "first name", `"first name"`},
		{"punctuation", "e-mail", `"e-mail"`},
		{"embedded quote", `say "hi"`, `"say ""hi"""`},
		{"empty", "", `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuoteIdent(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, UnquoteIdent(got), "quoted form must round-trip")
		})
	}
}

func TestQuoteQualified(t *testing.T) {
	assert.Equal(t, `"public"."Users"`, QuoteQualified("public", "Users"))
	assert.Equal(t, `"Id", "Email"`, QuoteIdents([]string{"Id", "Email"}))
	assert.Equal(t, "", QuoteIdents(nil))
}

func TestUnquoteIdent_PassesThroughBareNames(t *testing.T) {
	assert.Equal(t, "users", UnquoteIdent("users"))
	assert.Equal(t, `"`, UnquoteIdent(`"`))
}

func unquoteLiteral(s string) string {
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'O''Brien'", QuoteLiteral("O'Brien"))
	assert.Equal(t, `'C:\temp'`, QuoteLiteral(`C:\temp`), "backslashes are not escaped")

	for _, s := range []string{"", "'", "''", "it's a 'quoted' word", "line\nbreak", `back\slash`} {
		got := QuoteLiteral(s)
		assert.True(t, strings.HasPrefix(got, "'") && strings.HasSuffix(got, "'"))
		assert.Equal(t, s, unquoteLiteral(got))
	}
}
