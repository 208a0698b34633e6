/*
row.go - Safe field extraction from dynamic rows

PURPOSE:
  Rows arrive with whatever types the backend produced: float64 from JSON,
  int64 from SQLite, strings, []byte, nil. The aggregation engine must never
  fail on a malformed amount field, so every numeric coercion here swallows
  bad input and substitutes zero.

CONTRACT:
  - Dec/Float/Int: missing, nil, or non-numeric values become 0
  - Str: missing or non-string values become ""
  - Bool: accepts bool, non-zero numbers, and "Y"/"true"/"1" style strings
  - Has: key presence, for "prefer X's field, fall back to Y" lookups

SEE ALSO:
  - hedge/state.go: the formula that depends on these defaults
*/
package tabular

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Has reports whether the row carries the column at all, regardless of value.
func Has(r Row, column string) bool {
	_, ok := r[column]
	return ok
}

// Dec extracts a numeric field as a decimal. Missing or non-numeric values
// become zero; this never returns an error.
func Dec(r Row, column string) decimal.Decimal {
	v, ok := r[column]
	if !ok || v == nil {
		return decimal.Zero
	}
	switch n := v.(type) {
	case decimal.Decimal:
		return n
	case float64:
		return decimal.NewFromFloat(n)
	case float32:
		return decimal.NewFromFloat32(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int32:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case uint64:
		return decimal.NewFromUint64(n)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero
		}
		return d
	case []byte:
		d, err := decimal.NewFromString(strings.TrimSpace(string(n)))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// Float extracts a numeric field as float64, defaulting to 0.
func Float(r Row, column string) float64 {
	f, _ := Dec(r, column).Float64()
	return f
}

// Int extracts a numeric field as int, truncating, defaulting to 0.
func Int(r Row, column string) int {
	return int(Dec(r, column).IntPart())
}

// Str extracts a string field, defaulting to "".
func Str(r Row, column string) string {
	return StrOr(r, column, "")
}

// StrOr extracts a string field, substituting def when the value is missing
// or empty. Non-string scalars are rendered with fmt.
func StrOr(r Row, column, def string) string {
	v, ok := r[column]
	if !ok || v == nil {
		return def
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return def
		}
		return s
	case []byte:
		if len(s) == 0 {
			return def
		}
		return string(s)
	case float64, float32, int, int32, int64, uint64, bool:
		return fmt.Sprintf("%v", s)
	default:
		return def
	}
}

// Bool extracts a flag field. Accepts native bools, non-zero numbers, and
// the usual string spellings ("Y", "yes", "true", "1").
func Bool(r Row, column string) bool {
	v, ok := r[column]
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "y", "yes", "true", "1":
			return true
		}
		return false
	case []byte:
		return Bool(Row{column: string(b)}, column)
	default:
		return !Dec(r, column).IsZero()
	}
}

// ParseFloat is strconv.ParseFloat with the swallow-to-zero contract.
func ParseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
