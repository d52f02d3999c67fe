package pipeline

import "time"

// RawContent is the untyped record handed over by the content generator.
// No shape is guaranteed beyond "is a record"; synonymous field names
// (question|prompt|instructions) are permitted and resolved downstream.
type RawContent = map[string]any

// DeviceContext describes the requesting client's display surface.
type DeviceContext struct {
	Type           string `json:"type"` // mobile|tablet|desktop
	ViewportWidth  int    `json:"viewportWidth"`
	ViewportHeight int    `json:"viewportHeight"`
	TouchCapable   bool   `json:"touchCapable"`
}

// RequestContext carries per-request rendering context supplied by the caller.
type RequestContext struct {
	ContainerID   string         `json:"containerId"`
	GradeLevel    string         `json:"gradeLevel"` // K-2|3-5|6-8|9-12
	Device        *DeviceContext `json:"device,omitempty"`
	DarkMode      bool           `json:"darkMode"`
	Accessibility map[string]any `json:"accessibility,omitempty"`
	StrictMode    bool           `json:"strictMode"`
}

// CanonicalContent is the schema-conformant form of one content item.
// Immutable after construction; owned by the response for one interaction.
type CanonicalContent struct {
	Category Category       `json:"category"`
	Data     map[string]any `json:"data"`
}

// ContentMetadata records how the canonical form was produced.
type ContentMetadata struct {
	Confidence float64 `json:"confidence"`
	Repaired   bool    `json:"repaired"`
	Reusable   bool    `json:"reusable"`
	Source     string  `json:"source"`
}

// VolumeMetrics is the quantitative content profile driving layout decisions.
type VolumeMetrics struct {
	Characters      int    `json:"characters"`
	Words           int    `json:"words"`
	Paragraphs      int    `json:"paragraphs"`
	ReadingTimeSec  int    `json:"readingTimeSec"`
	Elements        int    `json:"elements"`
	VisibleElements int    `json:"visibleElements"`
	Interactions    int    `json:"interactions"`
	MediaCount      int    `json:"mediaCount"`
	MediaBytes      int64  `json:"mediaBytes"`
	TextComplexity  string `json:"textComplexity"` // simple|moderate|complex
	ComplexityScore int    `json:"complexityScore"`
	CognitiveLoad   string `json:"cognitiveLoad"` // low|medium|high
}

// Size is a width/height pair in CSS pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// OverflowThreshold names the limit that triggers the chosen strategy.
type OverflowThreshold struct {
	Items      int `json:"items,omitempty"`
	Paragraphs int `json:"paragraphs,omitempty"`
	HeightPx   int `json:"heightPx,omitempty"`
}

// OverflowPrediction says whether and how content exceeds its footprint.
type OverflowPrediction struct {
	Predicted bool              `json:"predicted"`
	Strategy  string            `json:"strategy"` // scroll|paginate|accordion|tabs|horizontal-scroll
	Threshold OverflowThreshold `json:"threshold"`
	Fallback  string            `json:"fallback"`
}

// Breakpoint is one viewport-width band with its own layout parameters.
type Breakpoint struct {
	Name        string `json:"name"`
	MinWidth    int    `json:"minWidth"`
	MaxWidth    int    `json:"maxWidth,omitempty"` // 0 = unbounded
	Padding     int    `json:"padding"`
	FontSize    int    `json:"fontSize"`
	Spacing     int    `json:"spacing"`
	Orientation string `json:"orientation"` // horizontal|vertical
}

// FitDiagnostics reports how well the recommendation fits the viewport.
type FitDiagnostics struct {
	Optimal     bool     `json:"optimal"`
	Adjustments []string `json:"adjustments"`
	Warnings    []string `json:"warnings"`
}

// DimensionPlan is the predicted render geometry for one content item.
type DimensionPlan struct {
	Recommended     Size               `json:"recommended"`
	MinWidth        int                `json:"minWidth"`
	MinHeight       int                `json:"minHeight"`
	MaxWidth        int                `json:"maxWidth"`
	MaxHeight       int                `json:"maxHeight"`
	LockAspectRatio bool               `json:"lockAspectRatio"`
	Breakpoints     []Breakpoint       `json:"breakpoints"`
	Overflow        OverflowPrediction `json:"overflow"`
	Fit             FitDiagnostics     `json:"fit"`
}

// Rule is one typed submission validator.
type Rule struct {
	Type    string `json:"type"`
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// RuleSet is the ordered validator list for one content item. Required stays
// true even with zero validators: an empty list means unconditional
// acceptance, not missing data.
type RuleSet struct {
	Required   bool   `json:"required"`
	Strict     bool   `json:"strict"`
	GradeLevel string `json:"gradeLevel,omitempty"`
	Rules      []Rule `json:"rules"`
}

// ValidationIssue is one failed validator, reported as error or warning.
type ValidationIssue struct {
	Type    string `json:"type"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the structured outcome of validating a submission.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// EvaluationEstimate bands the expected time-on-task in seconds.
type EvaluationEstimate struct {
	MinSeconds     int `json:"minSeconds"`
	OptimalSeconds int `json:"optimalSeconds"`
	MaxSeconds     int `json:"maxSeconds"`
}

// PerformanceHints tells the renderer how to budget loading and caching.
type PerformanceHints struct {
	PreloadAssets   []string `json:"preloadAssets"`
	PreloadBudgetMs int      `json:"preloadBudgetMs"`
	CacheStrategy   string   `json:"cacheStrategy"` // aggressive|normal
	VirtualScroll   bool     `json:"virtualScroll"`
	Chunking        bool     `json:"chunking"`
	ChunkSize       int      `json:"chunkSize,omitempty"`
}

// ErrorDescriptor marks a response assembled through the fallback path.
type ErrorDescriptor struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Stage    string `json:"stage,omitempty"`
	Fallback bool   `json:"fallback"`
}

// ContentBlock groups everything the renderer needs about the content itself.
type ContentBlock struct {
	Data       map[string]any  `json:"data"`
	Metadata   ContentMetadata `json:"metadata"`
	Validation RuleSet         `json:"validation"`
	Display    DisplaySettings `json:"display"`
	Volume     VolumeMetrics   `json:"volume"`
}

// DisplaySettings are renderer-facing presentation switches.
type DisplaySettings struct {
	Interaction   string `json:"interaction"` // pointer|touch
	StackedLayout bool   `json:"stackedLayout"`
	Theme         string `json:"theme"` // light|dark
}

// PipelineResponse is the render-ready envelope. Every top-level field is
// always populated; error paths substitute defaults, never omit sections.
type PipelineResponse struct {
	ID           string             `json:"id"`
	Category     Category           `json:"category"`
	Version      string             `json:"version"`
	Timestamp    time.Time          `json:"timestamp"`
	Content      ContentBlock       `json:"content"`
	Dimensions   DimensionPlan      `json:"dimensions"`
	UICompliance map[string]any     `json:"uiCompliance"`
	Context      RequestContext     `json:"context"`
	Evaluation   EvaluationEstimate `json:"evaluation"`
	Performance  PerformanceHints   `json:"performance"`
	Error        *ErrorDescriptor   `json:"error,omitempty"`
}
