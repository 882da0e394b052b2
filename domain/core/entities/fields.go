package entities

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Field names written to product documents. Legacy aliases are written
// alongside the canonical names so older readers keep working.
const (
	FieldName           = "name"
	FieldLegacyName     = "productName"
	FieldPrice          = "price"
	FieldMinPrice       = "minPrice"
	FieldLegacyMinPrice = "bottomPrice"
	FieldBestPrice      = "bestPrice"
	FieldIncentive      = "incentive"
	FieldMRP            = "mrp"
	FieldDiscount       = "discount"
	FieldCompany        = "company"
	FieldCategory       = "category"
	FieldSubcategory    = "subcategory"
	FieldCreatedAt      = "createdAt"
	FieldUpdatedAt      = "updatedAt"
	FieldMigratedAt     = "migratedAt"
)

var (
	currencyNoise    = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "\u20b9", "", "$", "", "\u20ac", "", "\u00a3", "")
	currencyPrefixes = []string{"INR", "RS.", "RS"}
)

// NumericValue reports v as a float64 only when it is stored as a number.
// Numeric-looking strings do not count.
func NumericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// CoerceNumber converts spreadsheet-ish input to a number. Thousands
// separators, currency symbols and surrounding spaces are ignored.
// Anything unparseable becomes 0.
func CoerceNumber(v interface{}) float64 {
	if n, ok := NumericValue(v); ok {
		return n
	}
	s, ok := v.(string)
	if !ok {
		return 0
	}
	s = currencyNoise.Replace(strings.TrimSpace(s))
	upper := strings.ToUpper(s)
	for _, prefix := range currencyPrefixes {
		if strings.HasPrefix(upper, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	if s == "" {
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// CoerceString renders scalars as trimmed strings
func CoerceString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	}
	if n, ok := NumericValue(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// CoerceTime accepts time values and RFC3339 strings
func CoerceTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// FormatTime is the storage format for timestamps
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// firstString returns the first non-blank string among the given fields
func firstString(raw map[string]interface{}, fields ...string) string {
	for _, f := range fields {
		if s := CoerceString(raw[f]); s != "" {
			return s
		}
	}
	return ""
}

// firstNumber returns the first field holding a usable number
func firstNumber(raw map[string]interface{}, fields ...string) (float64, bool) {
	for _, f := range fields {
		v, ok := raw[f]
		if !ok || v == nil {
			continue
		}
		if n, ok := NumericValue(v); ok {
			return n, true
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return CoerceNumber(s), true
		}
	}
	return 0, false
}
