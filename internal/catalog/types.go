// Package catalog reads table, constraint and index metadata for one schema
// and classifies it for rendering.
package catalog

// Column describes a single column in a table.
type Column struct {
	Name     string
	DataType string // fully formatted, e.g. numeric(10,2)
	NotNull  bool
	Default  string // raw default expression, "" if none
	Comment  string // "" if none
}

// Table describes a base table and its live columns in attribute order.
type Table struct {
	Schema  string
	Name    string
	Owner   string
	Comment string
	Columns []Column
}

// ColumnNames returns the table's column names in attribute order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ConstraintKind is the pg_constraint.contype code.
type ConstraintKind string

const (
	KindPrimaryKey ConstraintKind = "p"
	KindUnique     ConstraintKind = "u"
	KindForeignKey ConstraintKind = "f"
	KindCheck      ConstraintKind = "c"
	KindExclusion  ConstraintKind = "x"
)

func (k ConstraintKind) String() string {
	switch k {
	case KindPrimaryKey:
		return "PRIMARY KEY"
	case KindUnique:
		return "UNIQUE"
	case KindForeignKey:
		return "FOREIGN KEY"
	case KindCheck:
		return "CHECK"
	case KindExclusion:
		return "EXCLUSION"
	default:
		return "CONSTRAINT"
	}
}

// Constraint is a table constraint. Definition is the catalog's own
// rendering (pg_get_constraintdef) and is never re-parsed for output.
type Constraint struct {
	Schema     string
	Table      string
	Name       string
	Owner      string
	Kind       ConstraintKind
	Definition string
}

// Index is an index on a base table. Definition is pg_get_indexdef output.
type Index struct {
	Schema            string
	Table             string
	Name              string
	Owner             string
	Definition        string
	IsUnique          bool
	IsPrimary         bool
	IsConstraintIndex bool // backs a constraint; created by that constraint
}
