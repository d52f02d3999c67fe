package pipeline

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var wordRE = regexp.MustCompile(`[A-Za-z0-9]+(?:'[A-Za-z0-9]+)?`)

// WordCount counts word tokens the same way for metrics and validators.
func WordCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	return len(wordRE.FindAllString(s, -1))
}

func stringFromAny(v any) string {
	s, _ := v.(string)
	return s
}

// firstString returns the first non-empty string among the given keys.
func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(stringFromAny(raw[k])); s != "" {
			return s
		}
	}
	return ""
}

// hasSlice reports whether raw[key] is a non-nil slice of any element type.
func hasSlice(raw map[string]any, key string) bool {
	v, ok := raw[key]
	if !ok || v == nil {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Slice
}

// sliceLen returns the length of raw[key] when it is a slice, else 0.
func sliceLen(raw map[string]any, key string) int {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return 0
	}
	return rv.Len()
}

// anySlice converts any slice value to []any, or nil when it is not a slice.
func anySlice(v any) []any {
	if v == nil {
		return nil
	}
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// mapSlice returns the elements of raw[key] that are records.
func mapSlice(raw map[string]any, key string) []map[string]any {
	items := anySlice(raw[key])
	if items == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok && m != nil {
			out = append(out, m)
		}
	}
	return out
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		}
		return false
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return false
	}
}

// numberFromAny extracts a float from the loosely typed values JSON decoding
// and in-process construction both produce.
func numberFromAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
