package pipeline

import (
	"errors"
	"reflect"
	"testing"
)

func TestStandardizeSingleSelectSynonyms(t *testing.T) {
	s := NewStandardizer(nil)
	raw := RawContent{
		"prompt":  "Which planet is largest?",
		"choices": []any{"Mars", "Jupiter", "Venus"},
		"answer":  "Jupiter",
	}
	content, repaired, err := s.Standardize(raw, CategorySingleSelect)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Data["question"] != "Which planet is largest?" {
		t.Fatalf("prompt should be renamed to question, got %v", content.Data["question"])
	}
	opts := mapSlice(content.Data, "options")
	if len(opts) != 3 {
		t.Fatalf("expected 3 normalized options, got %d", len(opts))
	}
	for i, o := range opts {
		if stringFromAny(o["id"]) == "" {
			t.Fatalf("option %d missing generated id", i)
		}
	}
	if got := stringFromAny(content.Data["correctOptionId"]); got != stringFromAny(opts[1]["id"]) {
		t.Fatalf("correctOptionId should point at Jupiter, got %q", got)
	}
	if repaired {
		t.Fatalf("synonym renames alone should not count as repair")
	}
}

func TestStandardizeFillBlankMarkerDerivation(t *testing.T) {
	s := NewStandardizer(nil)
	raw := RawContent{
		"question": "Water is {{H2O}} and salt is ____.",
	}
	content, _, err := s.Standardize(raw, CategoryFillBlank)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	blanks := mapSlice(content.Data, "blanks")
	if len(blanks) != 2 {
		t.Fatalf("expected 2 derived blanks, got %d", len(blanks))
	}
	if got := stringFromAny(blanks[0]["answer"]); got != "H2O" {
		t.Fatalf("placeholder answer should be extracted, got %q", got)
	}
	if stringFromAny(blanks[0]["id"]) != "blank1" || stringFromAny(blanks[1]["id"]) != "blank2" {
		t.Fatalf("blanks should get stable sequential ids, got %v / %v", blanks[0]["id"], blanks[1]["id"])
	}
}

func TestStandardizeExplicitBlanksAuthoritative(t *testing.T) {
	s := NewStandardizer(nil)
	explicit := []any{map[string]any{"id": "b1", "answer": "four"}}
	raw := RawContent{
		"text":   "Two plus two is ____ and three plus three is ____.",
		"blanks": explicit,
	}
	content, _, err := s.Standardize(raw, CategoryFillBlank)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sliceLen(content.Data, "blanks"); got != 1 {
		t.Fatalf("explicit blanks array must win over markers, got %d blanks", got)
	}
}

func TestStandardizeMultiSelectDefaults(t *testing.T) {
	s := NewStandardizer(nil)
	raw := RawContent{
		"question": "Pick the primes",
		"options": []any{
			map[string]any{"label": "2", "isCorrect": true},
			map[string]any{"label": "3", "isCorrect": true},
			map[string]any{"label": "4"},
		},
	}
	content, _, err := s.Standardize(raw, CategoryMultiSelect)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := numberFromAny(content.Data["maxSelections"]); n != 2 {
		t.Fatalf("maxSelections should default to the correct-option count, got %v", n)
	}
	if got := sliceLen(content.Data, "correctOptionIds"); got != 2 {
		t.Fatalf("expected 2 collected correct ids, got %d", got)
	}
}

func TestStandardizeMatchingFromParallelArrays(t *testing.T) {
	s := NewStandardizer(nil)
	raw := RawContent{
		"question": "Match capitals",
		"left":     []any{"France", "Japan"},
		"right":    []any{"Paris", "Tokyo"},
	}
	content, _, err := s.Standardize(raw, CategoryMatching)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pairs := mapSlice(content.Data, "pairs")
	if len(pairs) != 2 {
		t.Fatalf("expected 2 derived pairs, got %d", len(pairs))
	}
	if pairs[0]["left"] != "France" || pairs[0]["right"] != "Paris" {
		t.Fatalf("pair derivation wrong: %v", pairs[0])
	}
}

func TestStandardizeRepairZeroFillsAllCategories(t *testing.T) {
	s := NewStandardizer(nil)
	for _, cat := range AllCategories {
		content, repaired, err := s.Standardize(RawContent{}, cat)
		if err != nil {
			t.Fatalf("%s: empty record should be repairable, got %v", cat, err)
		}
		if !repaired && len(schemaFor(cat)) > 0 {
			hasRequired := false
			for _, lit := range schemaFor(cat) {
				if !parseShape(lit).optional {
					hasRequired = true
					break
				}
			}
			if hasRequired {
				t.Fatalf("%s: empty record with required fields should report repaired", cat)
			}
		}
		if viols := validateAgainstSchema(content.Data, schemaFor(cat)); len(viols) != 0 {
			t.Fatalf("%s: repaired output must conform, got %v", cat, viols)
		}
	}
}

func TestStandardizeIdempotent(t *testing.T) {
	s := NewStandardizer(nil)
	raw := RawContent{
		"prompt":  "Which is a fruit?",
		"choices": []any{"apple", "chair"},
		"answer":  "apple",
	}
	first, _, err := s.Standardize(raw, CategorySingleSelect)
	if err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	second, repaired, err := s.Standardize(first.Data, CategorySingleSelect)
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if repaired {
		t.Fatalf("second pass over canonical data should not need repair")
	}
	if !reflect.DeepEqual(first.Data, second.Data) {
		t.Fatalf("standardization is not idempotent:\nfirst:  %v\nsecond: %v", first.Data, second.Data)
	}
}

func TestStandardizeSchemaErrorAfterRepair(t *testing.T) {
	s := NewStandardizer(nil)
	// rubric must be an object; a string cannot be coerced to one, so the
	// single repair pass leaves it invalid.
	raw := RawContent{
		"prompt": "Write about your summer.",
		"rubric": "grade generously",
	}
	_, repaired, err := s.Standardize(raw, CategoryEssay)
	if err == nil {
		t.Fatalf("expected SchemaError for uncoercible rubric")
	}
	if !repaired {
		t.Fatalf("repair attempt should be reported even on failure")
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %T", err)
	}
	if schemaErr.Category != CategoryEssay {
		t.Fatalf("SchemaError category mismatch: %s", schemaErr.Category)
	}
	if len(schemaErr.Violations) == 0 {
		t.Fatalf("SchemaError must carry the remaining violations")
	}
}

func TestZeroDataConformsForAllCategories(t *testing.T) {
	for _, cat := range AllCategories {
		data := zeroDataFor(cat)
		if viols := validateAgainstSchema(data, schemaFor(cat)); len(viols) != 0 {
			t.Fatalf("%s: zero data must conform to its own schema, got %v", cat, viols)
		}
	}
}
