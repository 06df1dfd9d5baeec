// Package convert renders values decoded from GenericInterface JSON.
// It has no dependencies on other internal packages.
package convert

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// String renders ids and other scalars that the service sends either as
// strings or as numbers. nil becomes "". Composite values are rendered as
// JSON.
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Strings renders a JSON array, or a single scalar, as a string slice.
// nil gives an empty, non-nil slice.
func Strings(v any) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, String(item))
		}
		return out
	case []string:
		return append([]string{}, val...)
	}
	return []string{String(v)}
}
