package pipeline

import (
	"fmt"
	"math"

	"github.com/yungbote/renderprep-backend/internal/logger"
)

// Reference viewport used when the caller supplies no device context.
const (
	defaultViewportWidth  = 1920
	defaultViewportHeight = 1080
)

// Hard ceilings on recommended geometry.
const (
	maxRecommendedWidth  = 1400
	maxRecommendedHeight = 900
)

const (
	dragDropCellPx    = 120
	dragDropPaddingPx = 200
	paginateItemsPer  = 5
	chunkListSize     = 10
)

// DimensionCalculator predicts render geometry from content volume. It is
// pure and never fails: internal errors degrade to the per-category default
// geometry.
type DimensionCalculator struct {
	log *logger.Logger
}

func NewDimensionCalculator(log *logger.Logger) *DimensionCalculator {
	if log != nil {
		log = log.With("component", "DimensionCalculator")
	}
	return &DimensionCalculator{log: log}
}

// Compute returns the dimension plan and the volume metrics it was derived
// from. A nil device context falls back to the 1920x1080 reference viewport.
func (d *DimensionCalculator) Compute(content CanonicalContent, device *DeviceContext) (plan DimensionPlan, vol VolumeMetrics) {
	defer func() {
		if r := recover(); r != nil {
			if d.log != nil {
				d.log.Warn("dimension computation panicked, using defaults", "category", content.Category, "panic", fmt.Sprintf("%v", r))
			}
			plan = defaultPlanFor(content.Category)
		}
	}()
	vol = ComputeVolume(content)
	plan = d.computePlan(content, vol, device)
	return plan, vol
}

func (d *DimensionCalculator) computePlan(content CanonicalContent, vol VolumeMetrics, device *DeviceContext) DimensionPlan {
	cat := content.Category
	base := baseDimsFor(cat)

	widthScale := math.Min(1.5, 1+float64(vol.Words)/500*0.2)
	width := int(math.Round(float64(base.Width) * widthScale))
	height := base.Height

	switch cat {
	case CategoryFillBlank, CategoryClozeDropdown:
		blanks := sliceLen(content.Data, "blanks")
		height = maxInt(base.MinHeight, 200+60*blanks+100)
	case CategoryDragDrop:
		items := sliceLen(content.Data, "sources") + sliceLen(content.Data, "targets")
		if items > 0 {
			cols := int(math.Ceil(math.Sqrt(float64(items))))
			rows := (items + cols - 1) / cols
			width = maxInt(base.MinWidth, cols*dragDropCellPx+dragDropPaddingPx)
			height = maxInt(base.MinHeight, rows*dragDropCellPx+dragDropPaddingPx)
		}
	}

	if vol.MediaCount > 0 {
		height = int(math.Round(float64(height) * 1.2))
	}
	if vol.ComplexityScore > 5 {
		height = int(math.Round(float64(height) * 1.1))
	}

	width = maxInt(width, base.MinWidth)
	height = maxInt(height, base.MinHeight)

	var warnings []string
	if width > maxRecommendedWidth {
		warnings = append(warnings, fmt.Sprintf("recommended width %dpx exceeds %dpx ceiling", width, maxRecommendedWidth))
	}
	if height > maxRecommendedHeight {
		warnings = append(warnings, fmt.Sprintf("recommended height %dpx exceeds %dpx ceiling", height, maxRecommendedHeight))
	}

	maxW := minInt(maxRecommendedWidth, width*3/2)
	maxH := minInt(maxRecommendedHeight, height*3/2)
	// The recommendation always sits inside [min, max].
	width = minInt(width, maxW)
	height = minInt(height, maxH)

	overflow := predictOverflow(width, height, vol, device)
	plan := DimensionPlan{
		Recommended:     Size{Width: width, Height: height},
		MinWidth:        minInt(base.MinWidth, width),
		MinHeight:       minInt(base.MinHeight, height),
		MaxWidth:        maxW,
		MaxHeight:       maxH,
		LockAspectRatio: aspectRatioLocked[cat],
		Breakpoints:     buildBreakpoints(cat),
		Overflow:        overflow,
		Fit: FitDiagnostics{
			Optimal:     !overflow.Predicted,
			Adjustments: adjustments(width, vol),
			Warnings:    appendVolumeWarnings(warnings, vol),
		},
	}
	return plan
}

// predictOverflow decides whether content exceeds its viewport share and
// picks the handling strategy. Strategy priority: horizontal overflow wins,
// then element count, then paragraph depth, then plain scrolling.
func predictOverflow(width, height int, vol VolumeMetrics, device *DeviceContext) OverflowPrediction {
	vw, vh := defaultViewportWidth, defaultViewportHeight
	mobile := false
	if device != nil {
		if device.ViewportWidth > 0 {
			vw = device.ViewportWidth
		}
		if device.ViewportHeight > 0 {
			vh = device.ViewportHeight
		}
		mobile = device.Type == "mobile"
	}

	vertical := float64(height) > 0.8*float64(vh)
	horizontal := float64(width) > 0.9*float64(vw)
	hidden := vol.VisibleElements < vol.Elements
	predicted := vertical || horizontal || hidden

	strategy := "scroll"
	threshold := OverflowThreshold{HeightPx: int(0.8 * float64(vh))}
	switch {
	case vol.Elements > 10:
		strategy = "paginate"
		threshold = OverflowThreshold{Items: paginateItemsPer}
	case vol.Paragraphs > 5:
		strategy = "accordion"
		threshold = OverflowThreshold{Paragraphs: 5}
	}
	if horizontal {
		if mobile {
			strategy = "tabs"
		} else {
			strategy = "horizontal-scroll"
		}
	}

	return OverflowPrediction{
		Predicted: predicted,
		Strategy:  strategy,
		Threshold: threshold,
		Fallback:  "scroll",
	}
}

func buildBreakpoints(cat Category) []Breakpoint {
	ladder := breakpointLadder()
	out := make([]Breakpoint, 0, len(ladder))
	for _, b := range ladder {
		bp := Breakpoint{
			Name:        b.Name,
			MinWidth:    b.MinWidth,
			MaxWidth:    b.MaxWidth,
			Padding:     b.Padding,
			FontSize:    b.FontSize,
			Spacing:     b.Spacing,
			Orientation: b.Orientation,
		}
		// Drag-drop-like interactions stack vertically through md.
		if dragDropLike[cat] && bp.Name == "md" {
			bp.Orientation = "vertical"
		}
		out = append(out, bp)
	}
	return out
}

func adjustments(width int, vol VolumeMetrics) []string {
	var out []string
	if vol.VisibleElements < vol.Elements {
		out = append(out, "implement-scrolling")
	}
	if width > 1200 {
		out = append(out, "responsive-sizing")
	}
	if vol.CognitiveLoad == "high" {
		out = append(out, "add-scaffolding")
	}
	return out
}

func appendVolumeWarnings(warnings []string, vol VolumeMetrics) []string {
	if vol.Elements > 20 {
		warnings = append(warnings, fmt.Sprintf("%d interactive elements is above the 20-element comfort limit", vol.Elements))
	}
	if vol.MediaBytes > 5*1024*1024 {
		warnings = append(warnings, fmt.Sprintf("media payload %dB exceeds 5MB", vol.MediaBytes))
	}
	return warnings
}

// defaultPlanFor is the documented degraded geometry per category.
func defaultPlanFor(cat Category) DimensionPlan {
	base := baseDimsFor(cat)
	return DimensionPlan{
		Recommended:     Size{Width: base.Width, Height: base.Height},
		MinWidth:        base.MinWidth,
		MinHeight:       base.MinHeight,
		MaxWidth:        minInt(maxRecommendedWidth, base.Width*3/2),
		MaxHeight:       minInt(maxRecommendedHeight, base.Height*3/2),
		LockAspectRatio: aspectRatioLocked[cat],
		Breakpoints:     buildBreakpoints(cat),
		Overflow: OverflowPrediction{
			Predicted: false,
			Strategy:  "scroll",
			Fallback:  "scroll",
		},
		Fit: FitDiagnostics{Optimal: true},
	}
}
