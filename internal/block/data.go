package block

import (
	"reflect"
	"strings"
)

// Data is a tool payload. The keys are understood only by the tool that
// produced them.
type Data map[string]any

// Clone returns a deep copy of d. Nested maps and slices are copied; other
// values are shared.
func (d Data) Clone() Data {
	if d == nil {
		return Data{}
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Data:
		return val.Clone()
	case map[string]any:
		return Data(val).Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

// String returns the value stored under key as a string, or "" when the key
// is missing or not a string.
func (d Data) String(key string) string {
	if s, ok := d[key].(string); ok {
		return s
	}
	return ""
}

// Strings returns the value stored under key as a string slice. Both []string
// and []any holding strings are accepted.
func (d Data) Strings(key string) []string {
	switch v := d[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Int returns the value stored under key as an int. Numeric values decoded
// from JSON arrive as float64 and are truncated.
func (d Data) Int(key string, fallback int) int {
	switch v := d[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// Equal reports whether d and other hold the same fields and values.
func (d Data) Equal(other Data) bool {
	if len(d) == 0 && len(other) == 0 {
		return true
	}
	return reflect.DeepEqual(normalize(d), normalize(other))
}

// Differs reports whether any field of patch has a different value in d.
// Fields present in d but absent from patch are ignored.
func (d Data) Differs(patch Data) bool {
	for k, v := range patch {
		cur, ok := d[k]
		if !ok || !reflect.DeepEqual(normalizeValue(cur), normalizeValue(v)) {
			return true
		}
	}
	return false
}

// IsBlank reports whether every string field in d is empty after trimming.
// Non-string fields are not considered content.
func (d Data) IsBlank(keys ...string) bool {
	for _, k := range keys {
		switch v := d[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return false
			}
		case []string, []any:
			for _, s := range d.Strings(k) {
				if strings.TrimSpace(s) != "" {
					return false
				}
			}
		}
	}
	return true
}

func normalize(d Data) map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = normalizeValue(v)
	}
	return out
}

// normalizeValue maps equivalent shapes onto one representation so that
// data decoded from JSON compares equal to data built in Go.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case Data:
		return normalize(val)
	case map[string]any:
		return normalize(Data(val))
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return v
	}
}
