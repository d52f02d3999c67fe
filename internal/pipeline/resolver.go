package pipeline

import (
	"regexp"

	"github.com/yungbote/renderprep-backend/internal/logger"
)

// blankMarkerRE matches the inline blank markers the generator emits:
// runs of underscores, the [blank] token, and {{placeholder}} spans.
var blankMarkerRE = regexp.MustCompile(`_{3,}|\[blank\]|\{\{[^{}]*\}\}`)

// contentTypeHints maps declared content-type strings to categories.
var contentTypeHints = map[string]Category{
	"multiple_choice":  CategorySingleSelect,
	"multiple-choice":  CategorySingleSelect,
	"mcq":              CategorySingleSelect,
	"single_select":    CategorySingleSelect,
	"multi_select":     CategoryMultiSelect,
	"checkbox":         CategoryMultiSelect,
	"true_false":       CategoryTrueFalse,
	"boolean":          CategoryTrueFalse,
	"cloze":            CategoryFillBlank,
	"fill_in_the_blank": CategoryFillBlank,
	"fill_blank":       CategoryFillBlank,
	"open_response":    CategoryShortAnswer,
	"free_text":        CategoryShortAnswer,
	"long_form":        CategoryEssay,
	"writing":          CategoryEssay,
	"drag_and_drop":    CategoryDragDrop,
	"drag_drop":        CategoryDragDrop,
	"match":            CategoryMatching,
	"matching":         CategoryMatching,
	"ordering":         CategorySequencing,
	"sequence":         CategorySequencing,
	"categorize":       CategorySorting,
	"coding":           CategoryCodeEditor,
	"programming":      CategoryCodeEditor,
	"equation":         CategoryMathInput,
	"math":             CategoryMathInput,
	"number":           CategoryNumericInput,
	"numeric":          CategoryNumericInput,
	"scale":            CategoryRatingScale,
	"survey":           CategoryPoll,
	"audio":            CategoryAudioResponse,
	"video":            CategoryVideoResponse,
	"upload":           CategoryFileUpload,
	"label":            CategoryLabeling,
	"diagram_label":    CategoryLabeling,
	"highlight":        CategoryHighlightText,
	"dictation":        CategoryDictation,
	"spelling":         CategorySpelling,
}

// detector pairs a structural predicate with the category it implies.
type detector struct {
	name     string
	category Category
	match    func(raw RawContent) bool
}

// detectors is the ordered battery of structural checks. Order is a contract:
// overlapping shapes resolve by position in this list, not by best fit.
var detectors = []detector{
	{
		name:     "blanks",
		category: CategoryFillBlank,
		match: func(raw RawContent) bool {
			if hasSlice(raw, "blanks") {
				return true
			}
			text := firstString(raw, "text", "question", "prompt", "sentence")
			return text != "" && blankMarkerRE.MatchString(text)
		},
	},
	{
		name:     "sources+targets",
		category: CategoryDragDrop,
		match: func(raw RawContent) bool {
			return hasSlice(raw, "sources") && hasSlice(raw, "targets")
		},
	},
	{
		name:     "pairs",
		category: CategoryMatching,
		match: func(raw RawContent) bool {
			if hasSlice(raw, "pairs") {
				return true
			}
			return hasSlice(raw, "left") && hasSlice(raw, "right")
		},
	},
	{
		name:     "code",
		category: CategoryCodeEditor,
		match: func(raw RawContent) bool {
			return firstString(raw, "language") != "" || hasSlice(raw, "testCases")
		},
	},
	{
		name:     "statement+boolean",
		category: CategoryTrueFalse,
		match: func(raw RawContent) bool {
			if firstString(raw, "statement") == "" {
				return false
			}
			_, isBool := raw["answer"].(bool)
			return isBool
		},
	},
	{
		name:     "options+multi",
		category: CategoryMultiSelect,
		match: func(raw RawContent) bool {
			if !hasSlice(raw, "options") {
				return false
			}
			if truthy(raw["multiSelect"]) || truthy(raw["allowMultiple"]) {
				return true
			}
			if n, ok := numberFromAny(raw["maxSelections"]); ok && n > 1 {
				return true
			}
			return false
		},
	},
	{
		name:     "options",
		category: CategorySingleSelect,
		match: func(raw RawContent) bool {
			return hasSlice(raw, "options")
		},
	},
	{
		name:     "items+correctOrder",
		category: CategorySequencing,
		match: func(raw RawContent) bool {
			return hasSlice(raw, "items") && hasSlice(raw, "correctOrder")
		},
	},
	{
		name:     "items+categories",
		category: CategorySorting,
		match: func(raw RawContent) bool {
			return hasSlice(raw, "items") && hasSlice(raw, "categories")
		},
	},
	{
		name:     "events",
		category: CategoryTimeline,
		match: func(raw RawContent) bool {
			return hasSlice(raw, "events")
		},
	},
	{
		name:     "answer+tolerance",
		category: CategoryNumericInput,
		match: func(raw RawContent) bool {
			_, hasAnswer := numberFromAny(raw["answer"])
			_, hasTol := numberFromAny(raw["tolerance"])
			return hasAnswer && hasTol
		},
	},
	{
		name:     "rubric",
		category: CategoryEssay,
		match: func(raw RawContent) bool {
			_, ok := raw["rubric"].(map[string]any)
			return ok || hasSlice(raw, "rubric")
		},
	},
	{
		name:     "front+back",
		category: CategoryFlashcard,
		match: func(raw RawContent) bool {
			return firstString(raw, "front") != "" && firstString(raw, "back") != ""
		},
	},
}

// confidence weights; normalized by their sum so the score stays in [0,1].
const (
	weightContentType = 0.5
	weightStructural  = 0.35
	weightHint        = 0.15
)

// Resolver classifies raw generator output into the closed category set.
// It never fails: the worst case is the package default with low confidence.
type Resolver struct {
	log *logger.Logger
}

func NewResolver(log *logger.Logger) *Resolver {
	if log != nil {
		log = log.With("component", "TypeResolver")
	}
	return &Resolver{log: log}
}

// Resolve returns the category and a confidence score in [0,1].
// Resolution order: explicit category field, declared content-type hint,
// ordered structural detectors, free-text fallback, package default.
func (r *Resolver) Resolve(raw RawContent) (Category, float64) {
	if raw == nil {
		raw = RawContent{}
	}
	if c, ok := ParseCategory(firstString(raw, "category")); ok {
		return c, 1.0
	}
	conf := r.confidence(raw)
	if hint := firstString(raw, "contentType", "content_type"); hint != "" {
		if c, ok := contentTypeHints[normalizeHint(hint)]; ok {
			return c, conf
		}
	}
	for _, d := range detectors {
		if d.match(raw) {
			return d.category, conf
		}
	}
	if firstString(raw, "question", "prompt", "instructions", "text") != "" {
		return CategoryShortAnswer, conf
	}
	if r.log != nil {
		r.log.Warn("no category signal, using default", "category", DefaultCategory, "confidence", conf)
	}
	return DefaultCategory, conf
}

// confidence is a weighted sum over the available signals, normalized by the
// maximum achievable weight. An explicit valid category short-circuits to 1.0
// inside Resolve and never reaches this path.
func (r *Resolver) confidence(raw RawContent) float64 {
	total := weightContentType + weightStructural + weightHint
	score := 0.0
	if hint := firstString(raw, "contentType", "content_type"); hint != "" {
		if _, ok := contentTypeHints[normalizeHint(hint)]; ok {
			score += weightContentType
		}
	}
	for _, d := range detectors {
		if d.match(raw) {
			score += weightStructural
			break
		}
	}
	if firstString(raw, "hint", "suggestedCategory", "suggested_category") != "" {
		score += weightHint
	}
	return score / total
}

func normalizeHint(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '-':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
