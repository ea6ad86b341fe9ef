// Package records defines the semi-structured record type shared by the
// parser, extract, and transform stages.
//
// A Record is one decoded NDJSON object. Values keep the loose types produced
// by JSON decoding (string, float64, bool, nil); the typed accessors below
// perform the minimal coercion the table builders need. A field is considered
// null when it is absent, nil, or an empty string — the Sparkify log dumps use
// "" for missing userId rather than a JSON null.
package records

import "strconv"

// Record is a single semi-structured input record keyed by field name.
type Record map[string]any

// Has reports whether the field is present and non-null. Empty strings count
// as null.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	return true
}

// String returns the field rendered as a string. JSON numbers are formatted
// with the shortest representation that round-trips ("26", not "26.000000").
// Missing or null fields yield "".
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return ""
	}
}

// Int64 returns the field as an int64. JSON numbers decode as float64 and are
// truncated toward zero; numeric strings are parsed. The second return value
// is false when the field is null or not numeric.
func (r Record) Int64(field string) (int64, bool) {
	switch v := r[field].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Float64 returns the field as a float64, parsing numeric strings. The second
// return value is false when the field is null or not numeric.
func (r Record) Float64(field string) (float64, bool) {
	switch v := r[field].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FloatPtr returns a pointer to the field's float64 value, or nil when the
// field is null or not numeric. Used for optional columnar fields such as
// artist coordinates.
func (r Record) FloatPtr(field string) *float64 {
	f, ok := r.Float64(field)
	if !ok {
		return nil
	}
	return &f
}
