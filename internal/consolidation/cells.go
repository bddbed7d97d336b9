package consolidation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericPrefix matches the leading number of a cell like "12.5 m3".
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// CellText returns the trimmed text of row[index]. Missing rows, out-of-range
// indices and nil cells yield "".
func CellText(row []any, index int) string {
	if index < 0 || index >= len(row) || row[index] == nil {
		return ""
	}
	switch v := row[index].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// CellNumber returns the numeric value of row[index]. Anything that does not
// parse, including out-of-range indices and NaN/Inf, yields 0.
func CellNumber(row []any, index int) float64 {
	if index < 0 || index >= len(row) || row[index] == nil {
		return 0
	}

	var f float64
	switch v := row[index].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint64:
		f = float64(v)
	case bool:
		return 0
	case string:
		f = ParseNumber(v)
	default:
		f = ParseNumber(fmt.Sprint(v))
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseNumber parses spreadsheet text leniently: thousands separators and
// surrounding spaces are ignored and a trailing unit is dropped
// ("1,250.50 m2" -> 1250.5). Unparseable text yields 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	prefix := numericPrefix.FindString(s)
	if prefix == "" {
		return 0
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return f
}

// isRowEmpty reports whether every cell of a row is blank.
func isRowEmpty(row []any) bool {
	for i := range row {
		if CellText(row, i) != "" {
			return false
		}
	}
	return true
}

// IsNumeric reports whether s reads as a number under ParseNumber's rules,
// as opposed to text that ParseNumber would turn into 0.
func IsNumeric(s string) bool {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return numericPrefix.MatchString(s)
}
