package pipeline

import (
	"fmt"
	"strings"

	"github.com/yungbote/renderprep-backend/internal/logger"
)

// SchemaError reports a payload still schema-invalid after the single repair
// pass. Anything this malformed cannot be trusted further downstream.
type SchemaError struct {
	Category   Category
	Violations []Violation
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("content failed %s schema after repair: %s", e.Category, strings.Join(parts, "; "))
}

// Standardizer turns raw generator output into canonical, schema-conformant
// content. Structural defects get exactly one repair pass: missing required
// fields are filled with typed zero-values, mistyped fields are coerced toward
// the expected primitive. Content that still fails validation after repair
// raises SchemaError; repair never loops.
type Standardizer struct {
	log *logger.Logger
}

func NewStandardizer(log *logger.Logger) *Standardizer {
	if log != nil {
		log = log.With("component", "Standardizer")
	}
	return &Standardizer{log: log}
}

// Standardize returns the canonical content and whether repair was applied.
func (s *Standardizer) Standardize(raw RawContent, cat Category) (CanonicalContent, bool, error) {
	if raw == nil {
		raw = RawContent{}
	}
	if !cat.Valid() {
		cat = DefaultCategory
	}
	schema := schemaFor(cat)
	data := transform(raw, cat)

	violations := validateAgainstSchema(data, schema)
	if len(violations) == 0 {
		return CanonicalContent{Category: cat, Data: data}, false, nil
	}

	repaired := repairData(data, schema, violations)
	remaining := validateAgainstSchema(repaired, schema)
	if len(remaining) > 0 {
		return CanonicalContent{}, true, &SchemaError{Category: cat, Violations: remaining}
	}
	if s.log != nil {
		s.log.Debug("schema repair applied", "category", cat, "violations", len(violations))
	}
	return CanonicalContent{Category: cat, Data: repaired}, true, nil
}

// repairData applies the one bounded repair pass over the found violations.
func repairData(data map[string]any, schema contentSchema, violations []Violation) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, viol := range violations {
		shape := parseShape(schema[viol.Field])
		if viol.Missing {
			out[viol.Field] = zeroValueFor(shape)
			continue
		}
		if coerced, ok := coerce(out[viol.Field], shape); ok {
			out[viol.Field] = coerced
		}
	}
	return out
}

// zeroDataFor builds the minimal schema-conformant record for a category.
// The orchestrator substitutes this when standardization fails outright.
func zeroDataFor(cat Category) map[string]any {
	schema := schemaFor(cat)
	data := make(map[string]any, len(schema))
	for field, lit := range schema {
		shape := parseShape(lit)
		if shape.optional {
			continue
		}
		data[field] = zeroValueFor(shape)
	}
	return data
}
