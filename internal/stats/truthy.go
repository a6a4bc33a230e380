// internal/stats/truthy.go
package stats

import "strings"

// Truthy coerces a decoded JSON value or a query string to a boolean.
// Strings are true unless empty, "false" or "0". Numbers are true unless
// zero. Arrays and objects are always true; null is false.
func Truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		return TruthyString(t)
	default:
		return true
	}
}

// TruthyString applies the string rule of Truthy.
func TruthyString(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s != "" && s != "false" && s != "0"
}
