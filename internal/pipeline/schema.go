package pipeline

import (
	"fmt"
	"reflect"
	"strings"
)

// Shape literals used by the category schemas:
//
//	"string", "number", "boolean", "object", "array",
//	"array<object>", "array<string>", "array<number>"
//
// A trailing "?" marks the field optional; "|" separates union members.
// The first union member is the preferred kind for zero-values and coercion.
type fieldShape struct {
	kinds    []string
	optional bool
}

func parseShape(lit string) fieldShape {
	lit = strings.TrimSpace(lit)
	fs := fieldShape{}
	if strings.HasSuffix(lit, "?") {
		fs.optional = true
		lit = strings.TrimSuffix(lit, "?")
	}
	for _, k := range strings.Split(lit, "|") {
		k = strings.TrimSpace(k)
		if k != "" {
			fs.kinds = append(fs.kinds, k)
		}
	}
	if len(fs.kinds) == 0 {
		fs.kinds = []string{"string"}
	}
	return fs
}

// contentSchema maps canonical field names to shape literals.
type contentSchema map[string]string

// contentSchemas is the per-category declarative schema table. Built once,
// never mutated at runtime.
var contentSchemas = map[Category]contentSchema{
	CategorySingleSelect: {
		"question":        "string",
		"options":         "array<object>",
		"correctOptionId": "string?",
		"shuffle":         "boolean?",
	},
	CategoryMultiSelect: {
		"question":         "string",
		"options":          "array<object>",
		"correctOptionIds": "array<string>?",
		"maxSelections":    "number",
		"shuffle":          "boolean?",
	},
	CategoryTrueFalse: {
		"statement": "string",
		"answer":    "boolean",
	},
	CategoryFillBlank: {
		"text":          "string",
		"blanks":        "array<object>",
		"caseSensitive": "boolean?",
	},
	CategoryShortAnswer: {
		"question":         "string",
		"expectedKeywords": "array<string>?",
		"maxLength":        "number?",
	},
	CategoryEssay: {
		"prompt":   "string",
		"rubric":   "object?",
		"minWords": "number?",
		"maxWords": "number?",
	},
	CategoryDragDrop: {
		"question":               "string",
		"sources":                "array<object>",
		"targets":                "array<object>",
		"allowMultiplePerTarget": "boolean?",
	},
	CategoryMatching: {
		"question": "string",
		"pairs":    "array<object>",
	},
	CategorySequencing: {
		"question":     "string",
		"items":        "array<object>",
		"correctOrder": "array<string>?",
	},
	CategorySorting: {
		"question":   "string",
		"items":      "array<object>",
		"categories": "array<object>",
	},
	CategoryLabeling: {
		"prompt": "string",
		"image":  "string",
		"labels": "array<object>",
	},
	CategoryHotspot: {
		"prompt":  "string",
		"image":   "string",
		"regions": "array<object>",
	},
	CategoryDrawing: {
		"prompt": "string",
		"canvas": "object?",
	},
	CategoryCodeEditor: {
		"prompt":      "string",
		"language":    "string",
		"starterCode": "string?",
		"testCases":   "array<object>?",
	},
	CategoryMathInput: {
		"question": "string",
		"answer":   "string|number?",
	},
	CategoryNumericInput: {
		"question":  "string",
		"answer":    "number",
		"tolerance": "number?",
		"unit":      "string?",
	},
	CategorySlider: {
		"question": "string",
		"min":      "number",
		"max":      "number",
		"step":     "number?",
		"answer":   "number?",
	},
	CategoryTableFill: {
		"question": "string",
		"columns":  "array<string>",
		"rows":     "array<object>",
	},
	CategoryGraphPlot: {
		"question": "string",
		"axes":     "object",
		"points":   "array<object>?",
	},
	CategoryFlashcard: {
		"front": "string",
		"back":  "string",
	},
	CategoryMemoryMatch: {
		"pairs": "array<object>",
	},
	CategoryWordSearch: {
		"words": "array<string>",
		"grid":  "object?",
	},
	CategoryCrossword: {
		"clues": "array<object>",
	},
	CategoryTimeline: {
		"question": "string",
		"events":   "array<object>",
	},
	CategoryAudioResponse: {
		"prompt":         "string",
		"maxDurationSec": "number?",
	},
	CategoryVideoResponse: {
		"prompt":         "string",
		"maxDurationSec": "number?",
	},
	CategoryFileUpload: {
		"prompt":       "string",
		"allowedTypes": "array<string>?",
		"maxSizeBytes": "number?",
	},
	CategorySimulation: {
		"prompt":     "string",
		"scenario":   "object",
		"parameters": "array<object>?",
	},
	CategoryPoll: {
		"question": "string",
		"options":  "array<object>",
	},
	CategoryRatingScale: {
		"question": "string",
		"scaleMin": "number",
		"scaleMax": "number",
		"labels":   "array<string>?",
	},
	CategoryHighlightText: {
		"passage": "string",
		"targets": "array<string>?",
	},
	CategorySentenceBuilder: {
		"words":  "array<string>",
		"answer": "string?",
	},
	CategoryClozeDropdown: {
		"text":   "string",
		"blanks": "array<object>",
	},
	CategorySpelling: {
		"words": "array<string>",
	},
	CategoryDictation: {
		"audio": "string",
		"text":  "string?",
	},
}

func schemaFor(cat Category) contentSchema {
	if s, ok := contentSchemas[cat]; ok {
		return s
	}
	return contentSchema{"question": "string"}
}

// Violation is one schema mismatch found during standardization.
type Violation struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Got      string `json:"got"`
	Missing  bool   `json:"missing"`
}

func (v Violation) String() string {
	if v.Missing {
		return fmt.Sprintf("%s: missing (want %s)", v.Field, v.Expected)
	}
	return fmt.Sprintf("%s: got %s, want %s", v.Field, v.Got, v.Expected)
}

// validateAgainstSchema checks required presence and shape conformance.
func validateAgainstSchema(data map[string]any, schema contentSchema) []Violation {
	var out []Violation
	for field, lit := range schema {
		shape := parseShape(lit)
		v, present := data[field]
		if !present || v == nil {
			if shape.optional {
				continue
			}
			out = append(out, Violation{Field: field, Expected: lit, Missing: true})
			continue
		}
		if !matchesShape(v, shape) {
			out = append(out, Violation{Field: field, Expected: lit, Got: kindOf(v)})
		}
	}
	return out
}

func matchesShape(v any, shape fieldShape) bool {
	for _, k := range shape.kinds {
		if matchesKind(v, k) {
			return true
		}
	}
	return false
}

func matchesKind(v any, kind string) bool {
	switch kind {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		return v != nil && reflect.TypeOf(v).Kind() == reflect.Slice
	case "array<object>":
		items := anySlice(v)
		if items == nil {
			return false
		}
		for _, it := range items {
			if _, ok := it.(map[string]any); !ok {
				return false
			}
		}
		return true
	case "array<string>":
		if _, ok := v.([]string); ok {
			return true
		}
		items := anySlice(v)
		if items == nil {
			return false
		}
		for _, it := range items {
			if _, ok := it.(string); !ok {
				return false
			}
		}
		return true
	case "array<number>":
		items := anySlice(v)
		if items == nil {
			return false
		}
		for _, it := range items {
			if _, ok := numberFromAny(it); !ok {
				return false
			}
			if _, isStr := it.(string); isStr {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int32, int64, float32, float64:
		return "number"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	}
	if reflect.TypeOf(v).Kind() == reflect.Slice {
		return "array"
	}
	return reflect.TypeOf(v).String()
}

// zeroValueFor produces the typed zero-value for a shape's preferred kind.
func zeroValueFor(shape fieldShape) any {
	switch shape.kinds[0] {
	case "string":
		return ""
	case "number":
		return float64(0)
	case "boolean":
		return false
	case "object":
		return map[string]any{}
	case "array", "array<object>", "array<string>", "array<number>":
		return []any{}
	default:
		return ""
	}
}

// coerce nudges a mistyped value toward the shape's preferred kind.
// Returns the coerced value and whether coercion applied.
func coerce(v any, shape fieldShape) (any, bool) {
	switch shape.kinds[0] {
	case "string":
		return fmt.Sprintf("%v", v), true
	case "number":
		if f, ok := numberFromAny(v); ok {
			return f, true
		}
		if b, ok := v.(bool); ok {
			if b {
				return float64(1), true
			}
			return float64(0), true
		}
		return float64(0), true
	case "boolean":
		return truthy(v), true
	case "array":
		if anySlice(v) != nil {
			return v, true
		}
		return []any{v}, true
	case "array<object>":
		if m, ok := v.(map[string]any); ok {
			return []any{m}, true
		}
		items := anySlice(v)
		if items == nil {
			return nil, false
		}
		out := make([]any, 0, len(items))
		for _, it := range items {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out, true
	case "array<string>":
		if s, ok := v.(string); ok {
			return []any{s}, true
		}
		items := anySlice(v)
		if items == nil {
			return nil, false
		}
		out := make([]any, 0, len(items))
		for _, it := range items {
			out = append(out, fmt.Sprintf("%v", it))
		}
		return out, true
	case "array<number>":
		if f, ok := numberFromAny(v); ok {
			_, isStr := v.(string)
			if !isStr {
				return []any{f}, true
			}
			return []any{f}, true
		}
		items := anySlice(v)
		if items == nil {
			return nil, false
		}
		out := make([]any, 0, len(items))
		for _, it := range items {
			if f, ok := numberFromAny(it); ok {
				out = append(out, f)
			}
		}
		return out, true
	case "object":
		return nil, false
	default:
		return nil, false
	}
}
