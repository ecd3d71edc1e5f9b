// Package features turns raw purchase-requisition line items into the
// fixed-order numeric vectors the detectors consume.
package features

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is an immutable view over the raw fields of a single PR line
// item. Presence and absence are distinguished explicitly: a field that
// was never supplied is absent, a field supplied as an empty string is
// present but empty. Both encode the same way, but callers that need
// the distinction get it from the second return value.
type Record struct {
	fields map[string]any
}

// NewRecord wraps a raw field map. The map is not copied; callers must
// not mutate it after handing it over.
func NewRecord(fields map[string]any) Record {
	return Record{fields: fields}
}

// Lookup returns the raw value for key and whether it was present.
func (r Record) Lookup(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// Text returns the value for key coerced to a string. Absent and nil
// values return ("", false).
func (r Record) Text(key string) (string, bool) {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return "", false
	}
	return coerceString(v), true
}

// Number returns the value for key as a float64. Absent, nil, and
// empty-string values default to 0. A non-numeric string is an error;
// those surface as per-record scoring failures rather than silently
// becoming zero.
func (r Record) Number(key string) (float64, error) {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("field %q: non-numeric value %q", key, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("field %q: unsupported type %T", key, v)
	}
}

// coerceString renders a raw value the same way at fit and transform
// time. JSON numbers arrive as float64; integral ones must not grow a
// trailing ".0" that CSV-sourced training values never had.
func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}
