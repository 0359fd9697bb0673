package render

import (
	"bytes"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NullMarker is the COPY text representation of SQL NULL.
const NullMarker = `\N`

const timestampLayout = "2006-01-02 15:04:05.000000"

var (
	copyEscaper   = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)
	localeDateRe  = regexp.MustCompile(`^\w{3} \w{3} \d{1,2} \d{4} \d{2}:\d{2}:\d{2}`)
	zoneCommentRe = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
)

var localeDateLayouts = []string{
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006 15:04:05",
}

// CopyValue encodes one value as a field of COPY text format.
func CopyValue(v any) string {
	return CopyTypedValue(v, "")
}

// CopyTypedValue is CopyValue with the column's declared type as a hint.
// For json and jsonb columns a string or []byte is taken to be the
// server's JSON text and kept as is; any other value is encoded as JSON.
// The locale date repair is only attempted for temporal or untyped columns.
func CopyTypedValue(v any, dataType string) string {
	v, err := resolveValuer(v)
	if err != nil || v == nil {
		return NullMarker
	}
	return EscapeCopyText(copyText(v, dataType))
}

// EscapeCopyText escapes backslash, tab, line feed and carriage return.
func EscapeCopyText(s string) string {
	return copyEscaper.Replace(s)
}

// DecodeCopyValue reverses CopyValue for text payloads. ok is false for NULL.
func DecodeCopyValue(s string) (value string, ok bool) {
	if s == NullMarker {
		return "", false
	}
	if !strings.Contains(s, `\`) {
		return s, true
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), true
}

// FormatTimestamp renders t in its own location with microsecond precision.
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// CopyRow encodes a row as tab separated COPY fields. types may be nil or
// shorter than values.
func CopyRow(values []any, types []string) string {
	fields := make([]string, len(values))
	for i, v := range values {
		var typ string
		if i < len(types) {
			typ = types[i]
		}
		fields[i] = CopyTypedValue(v, typ)
	}
	return strings.Join(fields, "\t")
}

func resolveValuer(v any) (any, error) {
	// A Valuer may itself return a Valuer; pgtype wrappers nest at most once.
	for i := 0; i < 2; i++ {
		if _, isTime := v.(time.Time); isTime {
			return v, nil
		}
		valuer, ok := v.(driver.Valuer)
		if !ok {
			return v, nil
		}
		var err error
		if v, err = valuer.Value(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func copyText(v any, dataType string) string {
	if isJSONType(dataType) {
		switch x := v.(type) {
		case string:
			return x
		case []byte:
			return string(x)
		}
		return marshalJSON(v)
	}

	switch x := v.(type) {
	case string:
		if isTemporalType(dataType) || dataType == "" {
			if t, ok := ParseLocaleDate(x); ok {
				return FormatTimestamp(t)
			}
		}
		return x
	case time.Time:
		return FormatTimestamp(x)
	case bool:
		if x {
			return "t"
		}
		return "f"
	case []byte:
		return `\x` + hex.EncodeToString(x)
	case [16]byte:
		return uuid.UUID(x).String()
	case float64:
		return formatFloat(x, 64)
	case float32:
		return formatFloat(float64(x), 32)
	case map[string]any:
		return marshalJSON(x)
	case []any:
		return arrayLiteral(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// ParseLocaleDate recognises a date that was already stringified in the
// "Tue Mar 05 2024 09:07:03 GMT+0000 (Coordinated Universal Time)" form.
func ParseLocaleDate(s string) (time.Time, bool) {
	if !localeDateRe.MatchString(s) {
		return time.Time{}, false
	}
	s = zoneCommentRe.ReplaceAllString(s, "")
	for _, layout := range localeDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func marshalJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// arrayLiteral renders a PostgreSQL array literal such as {1,"a b",NULL}.
func arrayLiteral(items []any) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		item, err := resolveValuer(item)
		switch {
		case err != nil || item == nil:
			b.WriteString("NULL")
		case isSlice(item):
			b.WriteString(arrayLiteral(item.([]any)))
		default:
			b.WriteString(arrayElement(copyText(item, "text")))
		}
	}
	b.WriteByte('}')
	return b.String()
}

func isSlice(v any) bool {
	_, ok := v.([]any)
	return ok
}

func arrayElement(s string) string {
	if s != "" && !strings.EqualFold(s, "NULL") && !strings.ContainsAny(s, "{},\"\\ \t\n\r") {
		return s
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func isJSONType(t string) bool {
	return t == "json" || t == "jsonb"
}

func isTemporalType(t string) bool {
	return strings.HasPrefix(t, "timestamp") || strings.HasPrefix(t, "time") || t == "date"
}
