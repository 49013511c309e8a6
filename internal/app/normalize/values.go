// Package normalize converts store records to entities and back.
//
// Records may carry a field under its camelCase or its snake_case name. Reads
// take the camelCase value, then the snake_case one, then a typed default.
// Writes always produce snake_case column names. No other package reads
// records directly.
package normalize

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yigit/edupay/internal/store"
)

const isoDate = "2006-01-02"

// camel turns a snake_case column name into its camelCase field name.
func camel(snake string) string {
	parts := strings.Split(snake, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// lookup returns the first non-empty value stored under the camelCase or
// snake_case name of column.
func lookup(r store.Record, column string) (any, bool) {
	for _, key := range []string{camel(column), column} {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func has(r store.Record, column string) bool {
	for _, key := range []string{camel(column), column} {
		if _, ok := r[key]; ok {
			return true
		}
	}
	return false
}

func str(r store.Record, column string) string {
	v, ok := lookup(r, column)
	if !ok {
		return ""
	}
	return toString(v)
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// date reads an ISO date, truncating timestamps to their day.
func date(r store.Record, column string) string {
	v, ok := lookup(r, column)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case time.Time:
		return t.Format(isoDate)
	default:
		s := toString(t)
		if len(s) > len(isoDate) && (s[len(isoDate)] == 'T' || s[len(isoDate)] == ' ') {
			return s[:len(isoDate)]
		}
		return s
	}
}

// timestamp reads a point in time as RFC 3339.
func timestamp(r store.Record, column string) string {
	v, ok := lookup(r, column)
	if !ok {
		return ""
	}
	if t, isTime := v.(time.Time); isTime {
		return t.UTC().Format(time.RFC3339)
	}
	return toString(v)
}

func amount(r store.Record, column string) decimal.Decimal {
	v, ok := lookup(r, column)
	if !ok {
		return decimal.Zero
	}
	d, err := toDecimal(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case *decimal.Decimal:
		if t == nil {
			return decimal.Zero, nil
		}
		return *t, nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case float32:
		return decimal.NewFromFloat32(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int32:
		return decimal.NewFromInt32(t), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case json.Number:
		return decimal.NewFromString(t.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	case []byte:
		return decimal.NewFromString(strings.TrimSpace(string(t)))
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil {
			return decimal.Zero, err
		}
		if dv == nil {
			return decimal.Zero, nil
		}
		return toDecimal(dv)
	default:
		return decimal.Zero, fmt.Errorf("unsupported numeric value %T", v)
	}
}

func boolean(r store.Record, column string) bool {
	v, ok := lookup(r, column)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	case int, int32, int64, float64:
		return fmt.Sprint(t) != "0"
	}
	return false
}

// stringList reads a list column; the result is never nil.
func stringList(r store.Record, column string) []string {
	v, ok := lookup(r, column)
	if !ok {
		return []string{}
	}
	return toStrings(v)
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string{}, t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if e == nil {
				continue
			}
			out = append(out, toString(e))
		}
		return out
	case string:
		return parseListLiteral(t)
	case []byte:
		return parseListLiteral(string(t))
	}
	return []string{}
}

// parseListLiteral accepts a JSON array or a simple Postgres array literal.
func parseListLiteral(s string) []string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var out []string
		if err := json.Unmarshal([]byte(s), &out); err == nil && out != nil {
			return out
		}
		return []string{}
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		inner := s[1 : len(s)-1]
		if inner == "" {
			return []string{}
		}
		parts := strings.Split(inner, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.Trim(p, `"`))
		}
		return out
	}
	if s == "" {
		return []string{}
	}
	return []string{s}
}

// object reads a JSON object column stored as a map or as encoded JSON.
func object(r store.Record, column string) store.Record {
	v, ok := lookup(r, column)
	if !ok {
		return store.Record{}
	}
	switch t := v.(type) {
	case store.Record:
		return t
	case map[string]any:
		return store.Record(t)
	case string:
		return decodeObject([]byte(t))
	case []byte:
		return decodeObject(t)
	}
	return store.Record{}
}

func decodeObject(b []byte) store.Record {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		return store.Record{}
	}
	return store.Record(m)
}

// nullable writes "" as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
