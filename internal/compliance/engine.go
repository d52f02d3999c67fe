package compliance

import (
	"context"

	"github.com/yungbote/renderprep-backend/internal/logger"
	"github.com/yungbote/renderprep-backend/internal/pipeline"
)

// Engine produces the theme/typography/branding/accessibility block merged
// into every pipeline response. It is deterministic: the same request always
// yields the same block.
type Engine struct {
	log *logger.Logger
}

func NewEngine(log *logger.Logger) *Engine {
	if log != nil {
		log = log.With("component", "ComplianceEngine")
	}
	return &Engine{log: log}
}

// Font sizing steps down as grades go up; younger readers get larger type.
var gradeTypography = map[string]map[string]any{
	"K-2":  {"baseFontPx": 20, "lineHeight": 1.8, "letterSpacingEm": 0.02},
	"3-5":  {"baseFontPx": 18, "lineHeight": 1.7, "letterSpacingEm": 0.01},
	"6-8":  {"baseFontPx": 16, "lineHeight": 1.6, "letterSpacingEm": 0.0},
	"9-12": {"baseFontPx": 16, "lineHeight": 1.5, "letterSpacingEm": 0.0},
}

var defaultTypography = map[string]any{
	"baseFontPx": 16, "lineHeight": 1.5, "letterSpacingEm": 0.0,
}

func (e *Engine) Apply(ctx context.Context, req pipeline.ComplianceRequest) (map[string]any, error) {
	theme := "light"
	if req.DarkMode {
		theme = "dark"
	}

	typo := defaultTypography
	if t, ok := gradeTypography[req.GradeLevel]; ok {
		typo = t
	}
	// Copy before augmenting so the shared tables stay immutable.
	typography := make(map[string]any, len(typo)+1)
	for k, v := range typo {
		typography[k] = v
	}

	minTouchPx := 32
	if req.Device != nil && (req.Device.TouchCapable || req.Device.Type == "mobile") {
		minTouchPx = 44
	}

	accessibility := map[string]any{
		"minContrastRatio": 4.5,
		"focusVisible":     true,
		"minTouchTargetPx": minTouchPx,
	}
	for k, v := range req.Accessibility {
		accessibility[k] = v
	}
	if highContrast, _ := accessibility["highContrast"].(bool); highContrast {
		accessibility["minContrastRatio"] = 7.0
	}
	if largeText, _ := accessibility["largeText"].(bool); largeText {
		if base, ok := typography["baseFontPx"].(int); ok {
			typography["baseFontPx"] = base + 4
		}
	}
	if reduceMotion, _ := accessibility["reduceMotion"].(bool); reduceMotion {
		accessibility["animations"] = "none"
	}

	block := map[string]any{
		"theme":      theme,
		"typography": typography,
		"branding": map[string]any{
			"palette":      "default",
			"cornerRadius": 8,
		},
		"accessibility": accessibility,
	}
	if e.log != nil {
		e.log.Debug("compliance block built", "grade", req.GradeLevel, "theme", theme, "category", req.Category)
	}
	return block, nil
}
