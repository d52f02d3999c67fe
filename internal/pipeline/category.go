package pipeline

import "strings"

// Category is the closed set of presentational modalities the renderer
// understands. Unknown values never leave the resolver.
type Category string

const (
	CategorySingleSelect    Category = "single-select"
	CategoryMultiSelect     Category = "multi-select"
	CategoryTrueFalse       Category = "true-false"
	CategoryFillBlank       Category = "fill-blank"
	CategoryShortAnswer     Category = "short-answer"
	CategoryEssay           Category = "essay"
	CategoryDragDrop        Category = "drag-drop"
	CategoryMatching        Category = "matching"
	CategorySequencing      Category = "sequencing"
	CategorySorting         Category = "sorting"
	CategoryLabeling        Category = "labeling"
	CategoryHotspot         Category = "hotspot"
	CategoryDrawing         Category = "drawing"
	CategoryCodeEditor      Category = "code-editor"
	CategoryMathInput       Category = "math-input"
	CategoryNumericInput    Category = "numeric-input"
	CategorySlider          Category = "slider"
	CategoryTableFill       Category = "table-fill"
	CategoryGraphPlot       Category = "graph-plot"
	CategoryFlashcard       Category = "flashcard"
	CategoryMemoryMatch     Category = "memory-match"
	CategoryWordSearch      Category = "word-search"
	CategoryCrossword       Category = "crossword"
	CategoryTimeline        Category = "timeline"
	CategoryAudioResponse   Category = "audio-response"
	CategoryVideoResponse   Category = "video-response"
	CategoryFileUpload      Category = "file-upload"
	CategorySimulation      Category = "simulation"
	CategoryPoll            Category = "poll"
	CategoryRatingScale     Category = "rating-scale"
	CategoryHighlightText   Category = "highlight-text"
	CategorySentenceBuilder Category = "sentence-builder"
	CategoryClozeDropdown   Category = "cloze-dropdown"
	CategorySpelling        Category = "spelling"
	CategoryDictation       Category = "dictation"
)

// DefaultCategory is the resolver's last-resort fallback.
const DefaultCategory = CategoryShortAnswer

// AllCategories lists every member of the closed set in a stable order.
var AllCategories = []Category{
	CategorySingleSelect,
	CategoryMultiSelect,
	CategoryTrueFalse,
	CategoryFillBlank,
	CategoryShortAnswer,
	CategoryEssay,
	CategoryDragDrop,
	CategoryMatching,
	CategorySequencing,
	CategorySorting,
	CategoryLabeling,
	CategoryHotspot,
	CategoryDrawing,
	CategoryCodeEditor,
	CategoryMathInput,
	CategoryNumericInput,
	CategorySlider,
	CategoryTableFill,
	CategoryGraphPlot,
	CategoryFlashcard,
	CategoryMemoryMatch,
	CategoryWordSearch,
	CategoryCrossword,
	CategoryTimeline,
	CategoryAudioResponse,
	CategoryVideoResponse,
	CategoryFileUpload,
	CategorySimulation,
	CategoryPoll,
	CategoryRatingScale,
	CategoryHighlightText,
	CategorySentenceBuilder,
	CategoryClozeDropdown,
	CategorySpelling,
	CategoryDictation,
}

var categorySet = func() map[Category]bool {
	m := make(map[Category]bool, len(AllCategories))
	for _, c := range AllCategories {
		m[c] = true
	}
	return m
}()

func (c Category) Valid() bool {
	return categorySet[c]
}

// ParseCategory normalizes a raw string into a closed-set member.
// Returns ("", false) when the value is not a member.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if categorySet[c] {
		return c, true
	}
	return "", false
}

// interactionHeavy categories add a fixed complexity bump to volume scoring.
var interactionHeavy = map[Category]bool{
	CategoryCodeEditor: true,
	CategoryDragDrop:   true,
	CategorySimulation: true,
	CategoryDrawing:    true,
}

// dragDropLike categories stack vertically at the md breakpoint and below.
var dragDropLike = map[Category]bool{
	CategoryDragDrop:   true,
	CategoryMatching:   true,
	CategorySorting:    true,
	CategorySequencing: true,
	CategoryLabeling:   true,
}

// aspectRatioLocked categories render against a fixed-ratio canvas or image.
var aspectRatioLocked = map[Category]bool{
	CategoryDrawing:   true,
	CategoryHotspot:   true,
	CategoryLabeling:  true,
	CategoryGraphPlot: true,
}
