package catalog

import (
	"context"
	"fmt"

	"github.com/koustreak/dsqldump/internal/database"
	"github.com/koustreak/dsqldump/internal/errs"
)

// Reader extracts catalog metadata. Each method issues exactly one query
// for the given schema and returns records in dump order.
type Reader struct {
	db database.Querier
}

// NewReader creates a catalog reader over db.
func NewReader(db database.Querier) *Reader {
	return &Reader{db: db}
}

const tablesQuery = `
	SELECT
		c.relname::text                            AS table_name,
		n.nspname::text                            AS schema_name,
		pg_get_userbyid(c.relowner)::text          AS owner,
		obj_description(c.oid, 'pg_class')         AS table_comment,
		a.attname::text                            AS column_name,
		pg_catalog.format_type(a.atttypid, a.atttypmod) AS data_type,
		a.attnotnull                               AS not_null,
		pg_get_expr(d.adbin, d.adrelid)            AS default_value,
		col_description(c.oid, a.attnum)           AS column_comment
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	JOIN pg_attribute a ON a.attrelid = c.oid
	LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
	WHERE c.relkind = 'r'
	  AND n.nspname = $1
	  AND a.attnum > 0
	  AND NOT a.attisdropped
	ORDER BY c.relname, a.attnum`

var tableFields = []field{
	{"table_name", fieldText},
	{"schema_name", fieldText},
	{"owner", fieldText},
	{"table_comment", fieldNullText},
	{"column_name", fieldText},
	{"data_type", fieldText},
	{"not_null", fieldBool},
	{"default_value", fieldNullText},
	{"column_comment", fieldNullText},
}

// Tables returns every ordinary table in schema with its live columns,
// ordered by table name and, within a table, by attribute number.
func (r *Reader) Tables(ctx context.Context, schema string) ([]Table, error) {
	recs, err := r.query(ctx, tablesQuery, tableFields, "tables", schema)
	if err != nil {
		return nil, err
	}

	var tables []Table
	index := make(map[string]int)
	for _, rec := range recs {
		name := rec.str("table_name")
		i, ok := index[name]
		if !ok {
			i = len(tables)
			index[name] = i
			tables = append(tables, Table{
				Schema:  rec.str("schema_name"),
				Name:    name,
				Owner:   rec.str("owner"),
				Comment: rec.str("table_comment"),
			})
		}
		tables[i].Columns = append(tables[i].Columns, Column{
			Name:     rec.str("column_name"),
			DataType: rec.str("data_type"),
			NotNull:  rec.boolean("not_null"),
			Default:  rec.str("default_value"),
			Comment:  rec.str("column_comment"),
		})
	}
	return tables, nil
}

const constraintsQuery = `
	SELECT
		c.conname::text                   AS constraint_name,
		n.nspname::text                   AS schema_name,
		t.relname::text                   AS table_name,
		pg_get_userbyid(t.relowner)::text AS owner,
		c.contype::text                   AS constraint_type,
		pg_get_constraintdef(c.oid)       AS definition
	FROM pg_constraint c
	JOIN pg_class t ON c.conrelid = t.oid
	JOIN pg_namespace n ON t.relnamespace = n.oid
	WHERE n.nspname = $1
	  AND t.relkind = 'r'
	ORDER BY
		CASE c.contype
			WHEN 'p' THEN 1
			WHEN 'u' THEN 2
			WHEN 'c' THEN 3
			WHEN 'f' THEN 4
			WHEN 'x' THEN 5
			ELSE 6
		END,
		t.relname,
		c.conname`

var constraintFields = []field{
	{"constraint_name", fieldText},
	{"schema_name", fieldText},
	{"table_name", fieldText},
	{"owner", fieldText},
	{"constraint_type", fieldText},
	{"definition", fieldText},
}

// Constraints returns every constraint on a base table in schema, ordered
// primary key, unique, check, foreign key, exclusion, then table and name.
func (r *Reader) Constraints(ctx context.Context, schema string) ([]Constraint, error) {
	recs, err := r.query(ctx, constraintsQuery, constraintFields, "constraints", schema)
	if err != nil {
		return nil, err
	}

	constraints := make([]Constraint, 0, len(recs))
	for _, rec := range recs {
		constraints = append(constraints, Constraint{
			Schema:     rec.str("schema_name"),
			Table:      rec.str("table_name"),
			Name:       rec.str("constraint_name"),
			Owner:      rec.str("owner"),
			Kind:       ConstraintKind(rec.str("constraint_type")),
			Definition: rec.str("definition"),
		})
	}
	return constraints, nil
}

const indexesQuery = `
	SELECT
		i.relname::text                   AS index_name,
		n.nspname::text                   AS schema_name,
		t.relname::text                   AS table_name,
		pg_get_userbyid(i.relowner)::text AS owner,
		pg_get_indexdef(i.oid)            AS definition,
		ix.indisunique                    AS is_unique,
		ix.indisprimary                   AS is_primary,
		(c.conindid IS NOT NULL)          AS is_constraint_index
	FROM pg_class i
	JOIN pg_namespace n ON n.oid = i.relnamespace
	JOIN pg_index ix ON ix.indexrelid = i.oid
	JOIN pg_class t ON t.oid = ix.indrelid
	LEFT JOIN pg_constraint c ON c.conindid = i.oid
	WHERE i.relkind = 'i'
	  AND n.nspname = $1
	  AND t.relkind = 'r'
	ORDER BY t.relname, i.relname`

var indexFields = []field{
	{"index_name", fieldText},
	{"schema_name", fieldText},
	{"table_name", fieldText},
	{"owner", fieldText},
	{"definition", fieldText},
	{"is_unique", fieldBool},
	{"is_primary", fieldBool},
	{"is_constraint_index", fieldBool},
}

// Indexes returns every index on a base table in schema, ordered by table
// and index name, flagging those that back a constraint.
func (r *Reader) Indexes(ctx context.Context, schema string) ([]Index, error) {
	recs, err := r.query(ctx, indexesQuery, indexFields, "indexes", schema)
	if err != nil {
		return nil, err
	}

	indexes := make([]Index, 0, len(recs))
	for _, rec := range recs {
		indexes = append(indexes, Index{
			Schema:            rec.str("schema_name"),
			Table:             rec.str("table_name"),
			Name:              rec.str("index_name"),
			Owner:             rec.str("owner"),
			Definition:        rec.str("definition"),
			IsUnique:          rec.boolean("is_unique"),
			IsPrimary:         rec.boolean("is_primary"),
			IsConstraintIndex: rec.boolean("is_constraint_index"),
		})
	}
	return indexes, nil
}

// query runs one catalog query and decodes every row through fields. Any
// failure is a catalog query error for the whole schema.
func (r *Reader) query(ctx context.Context, sql string, fields []field, what, schema string) ([]record, error) {
	msg := fmt.Sprintf("read %s of schema %q", what, schema)

	rows, err := r.db.Query(ctx, sql, schema)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindCatalogQuery, msg, err)
	}

	raw, err := database.ScanRows(rows)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindCatalogQuery, msg, err)
	}

	recs := make([]record, 0, len(raw))
	for i, row := range raw {
		rec, err := decodeRow(row, fields)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindCatalogQuery, fmt.Sprintf("%s: row %d", msg, i+1), err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
