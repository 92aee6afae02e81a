package graphql

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// dateRegex matches any string that starts with a YYYY-MM-DD calendar date.
var dateRegex = regexp.MustCompile(`^\d\d\d\d-\d\d-\d\d`)

// isoLayout is the layout used for time.Time values sent as variables. It
// matches what JavaScript's Date.prototype.toISOString produces.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// dateLayouts are tried in order against the full string before falling back
// to the leading calendar date.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
}

// ReviveDates walks a decoded JSON tree and replaces every string value that
// starts with YYYY-MM-DD by the time.Time it denotes. The rule does not look
// at field names or nesting depth. Maps and slices are rewritten in place and
// returned; scalars are returned as-is or revived.
func ReviveDates(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, elem := range val {
			val[k] = ReviveDates(elem)
		}
		return val
	case []any:
		for i, elem := range val {
			val[i] = ReviveDates(elem)
		}
		return val
	case string:
		if t, ok := parseDate(val); ok {
			return t
		}
		return val
	default:
		return v
	}
}

// parseDate reports the time denoted by s when s starts with a calendar date.
// Strings whose date prefix is not a real calendar date are rejected.
func parseDate(s string) (time.Time, bool) {
	if !dateRegex.MatchString(s) {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	t, err := time.Parse(time.DateOnly, s[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Decode converts a revived data tree into out, which must be a pointer.
// time.Time values in the tree decode into time.Time (or *time.Time) fields.
func Decode(data any, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("graphql: encode data: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("graphql: decode data: %w", err)
	}
	return nil
}

// encodeVariables returns a copy of vars in which every time.Time reachable
// through maps and slices is replaced by its ISO-8601 string. A nil map
// becomes an empty one so the request always carries a variables object.
func encodeVariables(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		out[k] = encodeValue(v)
	}
	return out
}

func encodeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(isoLayout)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.UTC().Format(isoLayout)
	case map[string]any:
		return encodeVariables(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = encodeValue(elem)
		}
		return out
	default:
		return v
	}
}
