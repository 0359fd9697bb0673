package catalog

import (
	"regexp"
	"strings"

	"github.com/koustreak/dsqldump/internal/sqlfmt"
)

// IsDeferrable reports whether the constraint was declared DEFERRABLE.
// Such constraints are always added after the tables.
func IsDeferrable(c Constraint) bool {
	return strings.Contains(strings.ToLower(c.Definition), "deferrable")
}

// IsInline reports whether c belongs inside its table's CREATE TABLE:
// a non-deferrable primary key or unique constraint.
func IsInline(c Constraint) bool {
	return (c.Kind == KindPrimaryKey || c.Kind == KindUnique) && !IsDeferrable(c)
}

// IsPostTable reports whether c needs its own ALTER TABLE after all tables
// exist: foreign key, check and exclusion constraints, and anything deferrable.
func IsPostTable(c Constraint) bool {
	switch c.Kind {
	case KindForeignKey, KindCheck, KindExclusion:
		return true
	}
	return IsDeferrable(c)
}

// InlineConstraints returns the constraints of table that render inside
// its CREATE TABLE, preserving input order.
func InlineConstraints(all []Constraint, table string) []Constraint {
	var out []Constraint
	for _, c := range all {
		if c.Table == table && IsInline(c) {
			out = append(out, c)
		}
	}
	return out
}

// PostTableConstraints returns the constraints rendered as separate
// statements after every table, preserving input order.
func PostTableConstraints(all []Constraint) []Constraint {
	var out []Constraint
	for _, c := range all {
		if IsPostTable(c) {
			out = append(out, c)
		}
	}
	return out
}

// StandaloneIndexes drops indexes that a constraint creates implicitly.
func StandaloneIndexes(all []Index) []Index {
	var out []Index
	for _, i := range all {
		if !i.IsConstraintIndex {
			out = append(out, i)
		}
	}
	return out
}

var referencesRe = regexp.MustCompile(`(?i)REFERENCES\s+((?:"(?:[^"]|"")+"|[^\s(."]+)(?:\.(?:"(?:[^"]|"")+"|[^\s(."]+))?)`)

// ReferencedTable extracts the table named by a foreign key definition's
// REFERENCES clause, without schema. It returns "" when there is none.
func ReferencedTable(c Constraint) string {
	m := referencesRe.FindStringSubmatch(c.Definition)
	if m == nil {
		return ""
	}
	name := m[1]
	// Split off a schema qualifier, honouring dots inside quoted names.
	if i := lastUnquotedDot(name); i >= 0 {
		name = name[i+1:]
	}
	return sqlfmt.UnquoteIdent(name)
}

func lastUnquotedDot(s string) int {
	inQuote := false
	last := -1
	for i, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == '.' && !inQuote:
			last = i
		}
	}
	return last
}

// OrderByDependency reorders post-table constraints so that the foreign
// keys of a referenced table come before those of the tables referencing
// it. Constraints that are not foreign keys keep the kind-based order
// (everything before the foreign keys stays before, exclusion constraints
// stay after). Tables in a reference cycle keep their catalog order.
// With no inter-table references the input order is returned unchanged.
func OrderByDependency(constraints []Constraint) []Constraint {
	var before, fks, after []Constraint
	for _, c := range constraints {
		switch {
		case c.Kind == KindForeignKey:
			fks = append(fks, c)
		case len(fks) == 0:
			before = append(before, c)
		default:
			after = append(after, c)
		}
	}

	// Tables owning foreign keys, in first-seen order, with their
	// dependencies on other such tables.
	var order []string
	byTable := make(map[string][]Constraint)
	deps := make(map[string]map[string]bool)
	for _, c := range fks {
		if _, ok := byTable[c.Table]; !ok {
			order = append(order, c.Table)
			deps[c.Table] = make(map[string]bool)
		}
		byTable[c.Table] = append(byTable[c.Table], c)
	}
	for _, c := range fks {
		if ref := ReferencedTable(c); ref != "" && ref != c.Table {
			if _, owns := byTable[ref]; owns {
				deps[c.Table][ref] = true
			}
		}
	}

	emitted := make(map[string]bool, len(order))
	sorted := make([]string, 0, len(order))
	for len(sorted) < len(order) {
		progressed := false
		for _, t := range order {
			if emitted[t] || !allEmitted(deps[t], emitted) {
				continue
			}
			emitted[t] = true
			sorted = append(sorted, t)
			progressed = true
			break
		}
		if !progressed {
			// Cycle: release the first pending table.
			for _, t := range order {
				if !emitted[t] {
					emitted[t] = true
					sorted = append(sorted, t)
					break
				}
			}
		}
	}

	out := make([]Constraint, 0, len(constraints))
	out = append(out, before...)
	for _, t := range sorted {
		out = append(out, byTable[t]...)
	}
	return append(out, after...)
}

func allEmitted(deps map[string]bool, emitted map[string]bool) bool {
	for d := range deps {
		if !emitted[d] {
			return false
		}
	}
	return true
}
