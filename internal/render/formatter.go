// Package render turns catalog records into pg_dump-style SQL text.
//
// Every renderer is a pure function that assembles a slice of lines and
// joins it once. The caller writes each rendered block followed by a
// newline.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/koustreak/dsqldump/internal/sqlfmt"
)

// Header is the dump preamble. The search_path line is only emitted for a
// schema other than public.
func Header(version, schema string, now time.Time) string {
	lines := []string{
		"--",
		"-- DSQL database dump",
		"--",
		"",
		"-- Dumped by dsql_dump version " + version,
		"-- Dumped on " + now.UTC().Format("2006-01-02T15:04:05.000Z"),
		"",
		"SET client_encoding = 'UTF8';",
		"SELECT pg_catalog.set_config('search_path', '', false);",
		"",
	}
	if schema != "public" {
		lines = append(lines,
			fmt.Sprintf("SET search_path = %s, pg_catalog;", sqlfmt.QuoteIdent(schema)),
			"",
		)
	}
	return strings.Join(lines, "\n")
}

// Footer closes the dump.
func Footer() string {
	return strings.Join([]string{
		"--",
		"-- DSQL database dump complete",
		"--",
		"",
	}, "\n")
}

// Section is the banner above a group of objects.
func Section(name string) string {
	return strings.Join([]string{
		"--",
		"-- " + name,
		"--",
		"",
	}, "\n")
}

// attribution is the comment block pg_dump writes above every object.
func attribution(text string) []string {
	return []string{"--", "-- " + text, "--", ""}
}
