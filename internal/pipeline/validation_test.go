package pipeline

import (
	"strings"
	"testing"
)

func ruleOfType(rules RuleSet, typ string) (Rule, bool) {
	for _, r := range rules.Rules {
		if r.Type == typ {
			return r, true
		}
	}
	return Rule{}, false
}

func TestGenerateRulesEssayGradeThresholds(t *testing.T) {
	e := NewValidationEngine(nil)
	content := CanonicalContent{Category: CategoryEssay, Data: map[string]any{"prompt": "Discuss."}}

	rules := e.GenerateRules(CategoryEssay, content, "9-12", false)
	minWords, ok := ruleOfType(rules, RuleMinWords)
	if !ok {
		t.Fatalf("essay rules must include minWords")
	}
	if v, _ := numberFromAny(minWords.Value); v != 50 {
		t.Fatalf("9-12 essay minWords should be 50, got %v", minWords.Value)
	}

	rules = e.GenerateRules(CategoryEssay, content, "K-2", false)
	minWords, _ = ruleOfType(rules, RuleMinWords)
	if v, _ := numberFromAny(minWords.Value); v != 10 {
		t.Fatalf("K-2 essay minWords should be 10, got %v", minWords.Value)
	}
	if !strings.Contains(minWords.Message, "10") {
		t.Fatalf("threshold should be substituted into the message, got %q", minWords.Message)
	}
	if !rules.Required {
		t.Fatalf("rule sets are always required")
	}
}

func TestGenerateRulesSimplifiedMessagesForYoungGrades(t *testing.T) {
	e := NewValidationEngine(nil)
	content := CanonicalContent{Category: CategoryShortAnswer, Data: map[string]any{"question": "Why?"}}

	young := e.GenerateRules(CategoryShortAnswer, content, "K-2", false)
	req, _ := ruleOfType(young, RuleRequired)
	if req.Message != "Please answer the question." {
		t.Fatalf("K-2 should use the simplified wording, got %q", req.Message)
	}

	older := e.GenerateRules(CategoryShortAnswer, content, "9-12", false)
	req, _ = ruleOfType(older, RuleRequired)
	if req.Message == "Please answer the question." {
		t.Fatalf("9-12 should keep the standard wording")
	}
}

func TestGenerateRulesPinsOptionIDs(t *testing.T) {
	e := NewValidationEngine(nil)
	content := CanonicalContent{
		Category: CategorySingleSelect,
		Data: map[string]any{
			"question": "Pick one",
			"options": []any{
				map[string]any{"id": "opt1", "label": "A"},
				map[string]any{"id": "opt2", "label": "B"},
			},
		},
	}
	rules := e.GenerateRules(CategorySingleSelect, content, "6-8", false)
	oneOf, ok := ruleOfType(rules, RuleOneOf)
	if !ok {
		t.Fatalf("single-select rules must pin the literal option ids")
	}
	ids := anySlice(oneOf.Value)
	if len(ids) != 2 {
		t.Fatalf("expected 2 pinned ids, got %v", oneOf.Value)
	}

	res := e.Validate(map[string]any{"selection": "opt2"}, rules)
	if !res.Valid {
		t.Fatalf("valid selection rejected: %v", res.Errors)
	}
	res = e.Validate(map[string]any{"selection": "opt9"}, rules)
	if res.Valid {
		t.Fatalf("selection outside the pinned ids must fail")
	}
}

func TestGenerateRulesFillBlankExactCount(t *testing.T) {
	e := NewValidationEngine(nil)
	content := CanonicalContent{
		Category: CategoryFillBlank,
		Data: map[string]any{
			"text": "a ____ b ____",
			"blanks": []any{
				map[string]any{"id": "blank1"},
				map[string]any{"id": "blank2"},
			},
		},
	}
	rules := e.GenerateRules(CategoryFillBlank, content, "3-5", false)
	exact, ok := ruleOfType(rules, RuleExactCount)
	if !ok {
		t.Fatalf("fill-blank rules must include exactCount")
	}
	if v, _ := numberFromAny(exact.Value); v != 2 {
		t.Fatalf("exactCount should equal the blank count, got %v", exact.Value)
	}

	res := e.Validate(map[string]any{"answers": []any{"x", "y"}}, rules)
	if !res.Valid {
		t.Fatalf("two answers for two blanks should pass: %v", res.Errors)
	}
	res = e.Validate(map[string]any{"answers": []any{"x"}}, rules)
	if res.Valid {
		t.Fatalf("one answer for two blanks must fail")
	}
}

func TestGenerateRulesMultiSelectMaxSelections(t *testing.T) {
	e := NewValidationEngine(nil)
	content := CanonicalContent{
		Category: CategoryMultiSelect,
		Data: map[string]any{
			"question":      "Pick two",
			"maxSelections": float64(2),
			"options": []any{
				map[string]any{"id": "opt1"},
				map[string]any{"id": "opt2"},
				map[string]any{"id": "opt3"},
			},
		},
	}
	rules := e.GenerateRules(CategoryMultiSelect, content, "6-8", false)
	res := e.Validate(map[string]any{"selections": []any{"opt1", "opt2", "opt3"}}, rules)
	if res.Valid {
		t.Fatalf("three selections with maxSelections=2 must fail")
	}
	res = e.Validate(map[string]any{"selections": []any{"opt1", "opt2"}}, rules)
	if !res.Valid {
		t.Fatalf("two selections should pass: %v", res.Errors)
	}
}

func TestValidateLenientDemotesSoftFailures(t *testing.T) {
	e := NewValidationEngine(nil)
	content := CanonicalContent{Category: CategoryEssay, Data: map[string]any{"prompt": "Discuss."}}
	short := strings.Repeat("word ", 30)

	lenient := e.GenerateRules(CategoryEssay, content, "9-12", false)
	res := e.Validate(map[string]any{"response": short}, lenient)
	if !res.Valid {
		t.Fatalf("lenient mode should demote minWords to a warning: %v", res.Errors)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("demoted failures must surface as warnings")
	}

	strict := e.GenerateRules(CategoryEssay, content, "9-12", true)
	res = e.Validate(map[string]any{"response": short}, strict)
	if res.Valid {
		t.Fatalf("strict mode must fail a 30-word essay against minWords=50")
	}
}

func TestValidateRequiredAlwaysHard(t *testing.T) {
	e := NewValidationEngine(nil)
	content := CanonicalContent{Category: CategoryShortAnswer, Data: map[string]any{"question": "Why?"}}
	rules := e.GenerateRules(CategoryShortAnswer, content, "3-5", false)
	res := e.Validate(map[string]any{}, rules)
	if res.Valid {
		t.Fatalf("missing response must fail even in lenient mode")
	}
}

func TestValidateNumericRule(t *testing.T) {
	e := NewValidationEngine(nil)
	content := CanonicalContent{
		Category: CategoryNumericInput,
		Data:     map[string]any{"question": "How many?", "answer": float64(4)},
	}
	rules := e.GenerateRules(CategoryNumericInput, content, "6-8", true)
	if res := e.Validate(map[string]any{"response": "12.5"}, rules); !res.Valid {
		t.Fatalf("numeric string should satisfy the numeric rule: %v", res.Errors)
	}
	if res := e.Validate(map[string]any{"response": "twelve"}, rules); res.Valid {
		t.Fatalf("non-numeric text must fail the numeric rule")
	}
}

func TestValidateSpellingHeuristic(t *testing.T) {
	e := NewValidationEngine(nil)
	content := CanonicalContent{Category: CategoryShortAnswer, Data: map[string]any{"question": "Why?"}}
	rules := e.GenerateRules(CategoryShortAnswer, content, "9-12", true)
	if res := e.Validate(map[string]any{"response": "Because it raaaains a lot."}, rules); res.Valid {
		t.Fatalf("gibberish run should trip the spelling rule in strict mode")
	}
	if res := e.Validate(map[string]any{"response": "Because it rains a lot."}, rules); !res.Valid {
		t.Fatalf("ordinary prose should pass: %v", res.Errors)
	}
}

func TestGibberishRunDetection(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"raaaains", true},
		{"heLLLLo", true},
		{"ssssnake", true},
		{"balloon", false},
		{"mississippi", false},
		{"aaa", false},
		{"well... hmm....", false},
		{"1111 items", false},
	}
	for _, c := range cases {
		if got := hasGibberishRun(c.in); got != c.want {
			t.Fatalf("hasGibberishRun(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
