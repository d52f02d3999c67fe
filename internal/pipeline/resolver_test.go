package pipeline

import "testing"

func TestResolveExplicitCategory(t *testing.T) {
	r := NewResolver(nil)
	cat, conf := r.Resolve(RawContent{"category": "drag-drop"})
	if cat != CategoryDragDrop {
		t.Fatalf("expected drag-drop, got %s", cat)
	}
	if conf != 1.0 {
		t.Fatalf("explicit category must yield confidence 1.0, got %f", conf)
	}
}

func TestResolveInvalidExplicitCategoryFallsThrough(t *testing.T) {
	r := NewResolver(nil)
	cat, conf := r.Resolve(RawContent{
		"category": "mystery-widget",
		"question": "What is 2+2?",
		"options":  []any{"3", "4"},
	})
	if cat != CategorySingleSelect {
		t.Fatalf("expected structural detection to single-select, got %s", cat)
	}
	if conf >= 1.0 {
		t.Fatalf("non-explicit resolution must score below 1.0, got %f", conf)
	}
}

func TestResolveContentTypeHint(t *testing.T) {
	r := NewResolver(nil)
	cases := map[string]Category{
		"multiple_choice": CategorySingleSelect,
		"Multiple-Choice": CategorySingleSelect,
		"true_false":      CategoryTrueFalse,
		"cloze":           CategoryFillBlank,
		"long_form":       CategoryEssay,
	}
	for hint, want := range cases {
		cat, _ := r.Resolve(RawContent{"contentType": hint, "question": "q"})
		if cat != want {
			t.Fatalf("hint %q: expected %s, got %s", hint, want, cat)
		}
	}
}

func TestResolveBlankMarkers(t *testing.T) {
	r := NewResolver(nil)
	for _, text := range []string{
		"The capital of France is ____.",
		"Water is made of [blank] and oxygen.",
		"The answer is {{42}}.",
	} {
		cat, _ := r.Resolve(RawContent{"text": text})
		if cat != CategoryFillBlank {
			t.Fatalf("text %q: expected fill-blank, got %s", text, cat)
		}
	}
}

func TestResolveDetectorOrder(t *testing.T) {
	r := NewResolver(nil)
	// Both drag-drop and single-select shapes present; the earlier detector
	// in the battery must win.
	raw := RawContent{
		"question": "Sort these",
		"sources":  []any{map[string]any{"id": "s1"}},
		"targets":  []any{map[string]any{"id": "t1"}},
		"options":  []any{map[string]any{"id": "o1"}},
	}
	cat, _ := r.Resolve(raw)
	if cat != CategoryDragDrop {
		t.Fatalf("expected drag-drop to win over single-select, got %s", cat)
	}
}

func TestResolveMultiSelectSignals(t *testing.T) {
	r := NewResolver(nil)
	cat, _ := r.Resolve(RawContent{
		"question":    "Pick all primes",
		"options":     []any{"2", "3", "4"},
		"multiSelect": true,
	})
	if cat != CategoryMultiSelect {
		t.Fatalf("expected multi-select, got %s", cat)
	}
	cat, _ = r.Resolve(RawContent{
		"question":      "Pick two",
		"options":       []any{"a", "b", "c"},
		"maxSelections": 2,
	})
	if cat != CategoryMultiSelect {
		t.Fatalf("maxSelections>1 should imply multi-select, got %s", cat)
	}
}

func TestResolveFreeTextFallback(t *testing.T) {
	r := NewResolver(nil)
	cat, _ := r.Resolve(RawContent{"question": "Explain photosynthesis."})
	if cat != CategoryShortAnswer {
		t.Fatalf("expected short-answer for bare question, got %s", cat)
	}
}

func TestResolveDefault(t *testing.T) {
	r := NewResolver(nil)
	cat, conf := r.Resolve(RawContent{"somethingElse": 7})
	if cat != DefaultCategory {
		t.Fatalf("expected default category, got %s", cat)
	}
	if conf != 0 {
		t.Fatalf("no signals should score 0, got %f", conf)
	}
}

func TestResolveNilRecord(t *testing.T) {
	r := NewResolver(nil)
	cat, _ := r.Resolve(nil)
	if cat != DefaultCategory {
		t.Fatalf("nil record should resolve to default, got %s", cat)
	}
}
