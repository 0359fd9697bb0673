package catalog

import "fmt"

// fieldType is the semantic type a reader expects for a result column.
type fieldType int

const (
	fieldText     fieldType = iota // non-null text
	fieldNullText                  // text or NULL
	fieldBool                      // non-null boolean
)

func (t fieldType) String() string {
	switch t {
	case fieldText:
		return "text"
	case fieldNullText:
		return "nullable text"
	case fieldBool:
		return "bool"
	default:
		return "unknown"
	}
}

// field is one entry of a reader's row schema.
type field struct {
	name string
	typ  fieldType
}

// record is a decoded row: every field of the schema is present and holds
// a value of the declared type (string or bool; "" for NULL text).
type record map[string]any

func (r record) str(name string) string   { return r[name].(string) }
func (r record) boolean(name string) bool { return r[name].(bool) }

// decodeRow checks row against schema and converts it to a record. A
// missing column or a value of the wrong shape is an error naming the field.
func decodeRow(row map[string]any, schema []field) (record, error) {
	rec := make(record, len(schema))
	for _, f := range schema {
		v, ok := row[f.name]
		if !ok {
			return nil, fmt.Errorf("field %q missing from result", f.name)
		}

		switch f.typ {
		case fieldText, fieldNullText:
			if v == nil {
				if f.typ == fieldText {
					return nil, fmt.Errorf("field %q is NULL, want %s", f.name, f.typ)
				}
				rec[f.name] = ""
				continue
			}
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("field %q has type %T, want %s", f.name, v, f.typ)
			}
			rec[f.name] = s
		case fieldBool:
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("field %q has type %T, want %s", f.name, v, f.typ)
			}
			rec[f.name] = b
		}
	}
	return rec, nil
}
