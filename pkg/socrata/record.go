package socrata

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is one loosely-typed dataset row. SODA returns every column as a
// string, but some portals emit numbers and booleans, so accessors accept
// either.
type Record map[string]any

// String returns the trimmed string form of key, or "" when absent.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// First returns the first non-empty value among keys.
func (r Record) First(keys ...string) string {
	for _, k := range keys {
		if s := r.String(k); s != "" {
			return s
		}
	}
	return ""
}

// Int returns key as an int, or 0 when absent, malformed, non-finite or
// outside the int range. Fractions are truncated.
func (r Record) Int(key string) int {
	s := strings.ReplaceAll(r.String(key), ",", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f := parseFinite(s)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0
	}
	return int(math.Trunc(f))
}

// Float returns key as a float64, tolerating "$" and thousands separators.
// Malformed and non-finite values yield 0.
func (r Record) Float(key string) float64 {
	return parseFinite(strings.NewReplacer("$", "", ",", "").Replace(r.String(key)))
}

// parseFinite parses s as a float, mapping errors, NaN and infinities to 0.
func parseFinite(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
