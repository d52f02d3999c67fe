package pipeline

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/yungbote/renderprep-backend/internal/logger"
)

// Validator type names. Lenient mode demotes the soft set to warnings.
const (
	RuleRequired      = "required"
	RuleMinWords      = "minWords"
	RuleMaxWords      = "maxWords"
	RuleParagraphs    = "paragraphs"
	RuleSpelling      = "spelling"
	RuleMinLength     = "minLength"
	RuleMaxLength     = "maxLength"
	RuleOneOf         = "oneOf"
	RuleExactCount    = "exactCount"
	RuleMaxSelections = "maxSelections"
	RuleNumeric       = "numeric"
)

// softRules are failures that lenient mode reports as warnings, not errors.
var softRules = map[string]bool{
	RuleMinWords:   true,
	RuleMaxWords:   true,
	RuleParagraphs: true,
	RuleSpelling:   true,
}

// baseRuleTable is the static per-category validator list, applied before
// grade adjustment and content-specific appends.
var baseRuleTable = map[Category][]Rule{
	CategoryEssay: {
		{Type: RuleRequired, Field: "response", Message: "A written response is required."},
		{Type: RuleMinWords, Field: "response", Value: 50, Message: "Your response must be at least %v words."},
		{Type: RuleMaxWords, Field: "response", Value: 1000, Message: "Your response must be at most %v words."},
		{Type: RuleParagraphs, Field: "response", Value: 3, Message: "Use at least %v paragraphs."},
		{Type: RuleSpelling, Field: "response", Message: "Check your spelling."},
	},
	CategoryShortAnswer: {
		{Type: RuleRequired, Field: "response", Message: "An answer is required."},
		{Type: RuleMaxLength, Field: "response", Value: 500, Message: "Keep your answer under %v characters."},
		{Type: RuleSpelling, Field: "response", Message: "Check your spelling."},
	},
	CategoryFillBlank: {
		{Type: RuleRequired, Field: "answers", Message: "Fill in every blank."},
	},
	CategoryClozeDropdown: {
		{Type: RuleRequired, Field: "answers", Message: "Choose a value for every blank."},
	},
	CategorySingleSelect: {
		{Type: RuleRequired, Field: "selection", Message: "Choose an option."},
	},
	CategoryMultiSelect: {
		{Type: RuleRequired, Field: "selections", Message: "Choose at least one option."},
	},
	CategoryTrueFalse: {
		{Type: RuleRequired, Field: "selection", Message: "Choose true or false."},
	},
	CategoryNumericInput: {
		{Type: RuleRequired, Field: "response", Message: "Enter a number."},
		{Type: RuleNumeric, Field: "response", Message: "Your answer must be a number."},
	},
	CategoryMathInput: {
		{Type: RuleRequired, Field: "response", Message: "Enter your answer."},
	},
	CategoryCodeEditor: {
		{Type: RuleRequired, Field: "code", Message: "Write some code before submitting."},
		{Type: RuleMinLength, Field: "code", Value: 1, Message: "Write some code before submitting."},
	},
	CategoryDragDrop: {
		{Type: RuleRequired, Field: "placements", Message: "Place every item."},
	},
	CategoryMatching: {
		{Type: RuleRequired, Field: "matches", Message: "Match every pair."},
	},
	CategorySequencing: {
		{Type: RuleRequired, Field: "order", Message: "Arrange every item."},
	},
	CategorySorting: {
		{Type: RuleRequired, Field: "placements", Message: "Sort every item."},
	},
}

// defaultBaseRules applies to categories without a dedicated entry.
var defaultBaseRules = []Rule{
	{Type: RuleRequired, Field: "response", Message: "A response is required."},
}

// gradeThresholds rewrites numeric rule values per grade band.
var gradeThresholds = map[string]map[string]int{
	RuleMinWords:   {"K-2": 10, "3-5": 25, "6-8": 40, "9-12": 50},
	RuleMaxWords:   {"K-2": 200, "3-5": 400, "6-8": 700, "9-12": 1000},
	RuleParagraphs: {"K-2": 1, "3-5": 1, "6-8": 2, "9-12": 3},
	RuleMaxLength:  {"K-2": 200, "3-5": 300, "6-8": 400, "9-12": 500},
}

// simpleMessages replaces rule wording for early grades.
var simpleMessages = map[string]string{
	RuleRequired:   "Please answer the question.",
	RuleMinWords:   "Try to write at least %v words.",
	RuleMaxWords:   "Try to use fewer than %v words.",
	RuleParagraphs: "Try writing %v parts.",
	RuleSpelling:   "Check your spelling.",
	RuleMaxLength:  "Try a shorter answer.",
	RuleOneOf:      "Pick one of the choices.",
	RuleExactCount: "Answer every part.",
	RuleNumeric:    "Write a number.",
}

var youngGrades = map[string]bool{"K-2": true, "3-5": true}

// hasGibberishRun is a cheap proxy for misspelling: four or more of the same
// letter in a row never appears in real English words. Case-insensitive;
// punctuation and digit runs do not count.
func hasGibberishRun(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) && r == prev {
			run++
			if run >= 4 {
				return true
			}
			continue
		}
		prev = r
		run = 1
	}
	return false
}

// ValidationEngine generates submission-validation rule sets and runs them.
type ValidationEngine struct {
	log *logger.Logger
}

func NewValidationEngine(log *logger.Logger) *ValidationEngine {
	if log != nil {
		log = log.With("component", "ValidationEngine")
	}
	return &ValidationEngine{log: log}
}

// GenerateRules builds the ordered validator list for one content instance:
// category base rules, grade-level threshold rewrite, then validators pinned
// to the literal content (option ids, blank counts).
func (e *ValidationEngine) GenerateRules(cat Category, content CanonicalContent, gradeLevel string, strict bool) RuleSet {
	base, ok := baseRuleTable[cat]
	if !ok {
		base = defaultBaseRules
	}
	rules := make([]Rule, 0, len(base)+2)
	for _, r := range base {
		rules = append(rules, adjustForGrade(r, gradeLevel))
	}
	rules = append(rules, contentRules(cat, content, gradeLevel)...)
	return RuleSet{
		Required:   true,
		Strict:     strict,
		GradeLevel: gradeLevel,
		Rules:      rules,
	}
}

func adjustForGrade(r Rule, gradeLevel string) Rule {
	if table, ok := gradeThresholds[r.Type]; ok {
		if v, ok := table[gradeLevel]; ok {
			r.Value = v
		}
	}
	if youngGrades[gradeLevel] {
		if msg, ok := simpleMessages[r.Type]; ok {
			r.Message = msg
		}
	}
	if strings.Contains(r.Message, "%v") {
		r.Message = fmt.Sprintf(r.Message, r.Value)
	}
	return r
}

// contentRules appends validators derived from the literal instance.
func contentRules(cat Category, content CanonicalContent, gradeLevel string) []Rule {
	data := content.Data
	if data == nil {
		return nil
	}
	var out []Rule
	switch cat {
	case CategorySingleSelect, CategoryPoll:
		if ids := optionIDs(data, "options"); len(ids) > 0 {
			out = append(out, gradeMessage(Rule{
				Type: RuleOneOf, Field: "selection", Value: ids,
				Message: "Your selection must be one of the listed options.",
			}, gradeLevel))
		}
	case CategoryMultiSelect:
		if ids := optionIDs(data, "options"); len(ids) > 0 {
			out = append(out, gradeMessage(Rule{
				Type: RuleOneOf, Field: "selections", Value: ids,
				Message: "Every selection must be one of the listed options.",
			}, gradeLevel))
		}
		if n, ok := numberFromAny(data["maxSelections"]); ok && n > 0 {
			out = append(out, Rule{
				Type: RuleMaxSelections, Field: "selections", Value: int(n),
				Message: fmt.Sprintf("Choose at most %d options.", int(n)),
			})
		}
	case CategoryFillBlank, CategoryClozeDropdown:
		if n := sliceLen(data, "blanks"); n > 0 {
			out = append(out, gradeMessage(Rule{
				Type: RuleExactCount, Field: "answers", Value: n,
				Message: fmt.Sprintf("Provide exactly %d answers.", n),
			}, gradeLevel))
		}
	case CategorySequencing:
		if n := sliceLen(data, "items"); n > 0 {
			out = append(out, Rule{
				Type: RuleExactCount, Field: "order", Value: n,
				Message: fmt.Sprintf("Arrange all %d items.", n),
			})
		}
	case CategoryMatching:
		if n := sliceLen(data, "pairs"); n > 0 {
			out = append(out, Rule{
				Type: RuleExactCount, Field: "matches", Value: n,
				Message: fmt.Sprintf("Match all %d pairs.", n),
			})
		}
	}
	return out
}

func gradeMessage(r Rule, gradeLevel string) Rule {
	if youngGrades[gradeLevel] {
		if msg, ok := simpleMessages[r.Type]; ok {
			r.Message = msg
		}
	}
	return r
}

func optionIDs(data map[string]any, key string) []string {
	opts := mapSlice(data, key)
	ids := make([]string, 0, len(opts))
	for _, o := range opts {
		if id := strings.TrimSpace(stringFromAny(o["id"])); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Validate runs every validator in order. In lenient mode, failures of the
// soft rule types land in warnings instead of errors.
func (e *ValidationEngine) Validate(input map[string]any, rules RuleSet) ValidationResult {
	res := ValidationResult{
		Valid:    true,
		Errors:   []ValidationIssue{},
		Warnings: []ValidationIssue{},
	}
	if input == nil {
		input = map[string]any{}
	}
	for _, r := range rules.Rules {
		if runRule(r, input) {
			continue
		}
		issue := ValidationIssue{Type: r.Type, Field: r.Field, Message: r.Message}
		if !rules.Strict && softRules[r.Type] {
			res.Warnings = append(res.Warnings, issue)
			continue
		}
		res.Errors = append(res.Errors, issue)
	}
	res.Valid = len(res.Errors) == 0
	return res
}

// runRule reports whether the input satisfies one validator.
func runRule(r Rule, input map[string]any) bool {
	v := input[r.Field]
	switch r.Type {
	case RuleRequired:
		return presentAndNonEmpty(v)
	case RuleMinWords:
		want, _ := numberFromAny(r.Value)
		return WordCount(stringFromAny(v)) >= int(want)
	case RuleMaxWords:
		want, _ := numberFromAny(r.Value)
		return WordCount(stringFromAny(v)) <= int(want)
	case RuleParagraphs:
		want, _ := numberFromAny(r.Value)
		return paragraphCount(stringFromAny(v)) >= int(want)
	case RuleSpelling:
		return !hasGibberishRun(stringFromAny(v))
	case RuleMinLength:
		want, _ := numberFromAny(r.Value)
		return len(strings.TrimSpace(stringFromAny(v))) >= int(want)
	case RuleMaxLength:
		want, _ := numberFromAny(r.Value)
		return len(stringFromAny(v)) <= int(want)
	case RuleOneOf:
		allowed := map[string]bool{}
		for _, id := range anySlice(r.Value) {
			allowed[fmt.Sprintf("%v", id)] = true
		}
		if s, ok := v.(string); ok {
			return allowed[s]
		}
		sels := anySlice(v)
		if sels == nil {
			return false
		}
		for _, sel := range sels {
			if !allowed[fmt.Sprintf("%v", sel)] {
				return false
			}
		}
		return true
	case RuleExactCount:
		want, _ := numberFromAny(r.Value)
		return len(anySlice(v)) == int(want)
	case RuleMaxSelections:
		want, _ := numberFromAny(r.Value)
		return len(anySlice(v)) <= int(want)
	case RuleNumeric:
		_, ok := numberFromAny(v)
		return ok
	default:
		return true
	}
}

func presentAndNonEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	default:
		if s := anySlice(v); s != nil {
			return len(s) > 0
		}
		return true
	}
}
