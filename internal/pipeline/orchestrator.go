package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/renderprep-backend/internal/logger"
	"github.com/yungbote/renderprep-backend/internal/pkg/ctxutil"
)

// ResponseVersion tags the envelope contract the renderer consumes.
const ResponseVersion = "1.0"

// ErrCodeGeneration marks the uniform fallback envelope.
const ErrCodeGeneration = "GENERATION_ERROR"

const evalSecondsPerElement = 5
const preloadBudgetPerAssetMs = 200

// ComplianceRequest is the input to the external UI-compliance engine.
type ComplianceRequest struct {
	ContainerID   string         `json:"containerId"`
	GradeLevel    string         `json:"gradeLevel"`
	Category      Category       `json:"category"`
	Device        *DeviceContext `json:"device,omitempty"`
	DarkMode      bool           `json:"darkMode"`
	Accessibility map[string]any `json:"accessibility,omitempty"`
}

// ComplianceEngine is the opaque external collaborator that produces
// theme/typography/branding/accessibility metadata. Its result is merged
// verbatim into the response.
type ComplianceEngine interface {
	Apply(ctx context.Context, req ComplianceRequest) (map[string]any, error)
}

// Orchestrator sequences the pipeline stages. Every stage is wrapped so a
// failure substitutes a documented default and the run continues; callers
// always receive a structurally valid envelope.
type Orchestrator struct {
	log          *logger.Logger
	resolver     *Resolver
	standardizer *Standardizer
	calculator   *DimensionCalculator
	validator    *ValidationEngine
	compliance   ComplianceEngine
	collector    *Collector
	tracer       trace.Tracer
}

func NewOrchestrator(log *logger.Logger, compliance ComplianceEngine, collector *Collector) *Orchestrator {
	runLog := log
	if runLog != nil {
		runLog = runLog.With("component", "Orchestrator")
	}
	return &Orchestrator{
		log:          runLog,
		resolver:     NewResolver(log),
		standardizer: NewStandardizer(log),
		calculator:   NewDimensionCalculator(log),
		validator:    NewValidationEngine(log),
		compliance:   compliance,
		collector:    collector,
		tracer:       otel.Tracer("renderprep/pipeline"),
	}
}

// Run transforms one raw content record into the render-ready envelope.
// It never panics outward and never returns a partially populated response.
func (o *Orchestrator) Run(ctx context.Context, raw RawContent, reqCtx RequestContext) (resp PipelineResponse) {
	started := time.Now()
	degraded := false

	ctx, span := o.tracer.Start(ctxutil.Default(ctx), "pipeline.run")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			if o.log != nil {
				o.log.Error("pipeline run panicked", "panic", fmt.Sprintf("%v", r))
			}
			resp = o.errorEnvelope(reqCtx, "run", fmt.Sprintf("unexpected failure: %v", r))
			o.record(false, started)
			return
		}
	}()

	if raw == nil {
		raw = RawContent{}
	}

	// Stage 1: category resolution. Never raises by construction.
	var cat Category
	var confidence float64
	o.runStage(ctx, StageResolve, func() error {
		cat, confidence = o.resolver.Resolve(raw)
		span.SetAttributes(attribute.String("content.category", string(cat)))
		return nil
	}, func() {
		cat, confidence = DefaultCategory, 0
	})

	// Stage 2: standardization. A SchemaError degrades to the minimal
	// category-appropriate structure rather than aborting the run.
	var canonical CanonicalContent
	var repaired bool
	o.runStage(ctx, StageStandardize, func() error {
		var err error
		canonical, repaired, err = o.standardizer.Standardize(raw, cat)
		return err
	}, func() {
		canonical = CanonicalContent{Category: cat, Data: zeroDataFor(cat)}
		repaired = true
		degraded = true
	})

	// Stage 3: dimension planning. Internally safe; wrapped regardless.
	var plan DimensionPlan
	var vol VolumeMetrics
	o.runStage(ctx, StageDimensions, func() error {
		plan, vol = o.calculator.Compute(canonical, reqCtx.Device)
		return nil
	}, func() {
		plan = defaultPlanFor(cat)
		vol = VolumeMetrics{TextComplexity: "simple", ComplexityScore: 1, CognitiveLoad: "low"}
		degraded = true
	})

	// Stage 4: UI compliance merge (external, awaitable).
	var compliance map[string]any
	o.runStage(ctx, StageCompliance, func() error {
		if o.compliance == nil {
			compliance = defaultCompliance(reqCtx)
			return nil
		}
		out, err := o.compliance.Apply(ctx, ComplianceRequest{
			ContainerID:   reqCtx.ContainerID,
			GradeLevel:    reqCtx.GradeLevel,
			Category:      cat,
			Device:        reqCtx.Device,
			DarkMode:      reqCtx.DarkMode,
			Accessibility: reqCtx.Accessibility,
		})
		if err != nil {
			return err
		}
		if out == nil {
			return fmt.Errorf("compliance engine returned nil block")
		}
		compliance = out
		return nil
	}, func() {
		compliance = defaultCompliance(reqCtx)
		degraded = true
	})

	// Stage 5: validation rule generation.
	var rules RuleSet
	o.runStage(ctx, StageValidation, func() error {
		rules = o.validator.GenerateRules(cat, canonical, reqCtx.GradeLevel, reqCtx.StrictMode)
		return nil
	}, func() {
		rules = RuleSet{Required: true, Strict: reqCtx.StrictMode, GradeLevel: reqCtx.GradeLevel, Rules: []Rule{}}
		degraded = true
	})

	// Stage 6: evaluation-time bands.
	var eval EvaluationEstimate
	o.runStage(ctx, StageEvaluation, func() error {
		eval = evaluationEstimate(vol)
		return nil
	}, func() {
		eval = EvaluationEstimate{MinSeconds: 30, OptimalSeconds: 60, MaxSeconds: 120}
		degraded = true
	})

	// Stage 7: performance hints.
	var perf PerformanceHints
	o.runStage(ctx, StagePerformance, func() error {
		perf = performanceHints(canonical, raw, plan)
		return nil
	}, func() {
		perf = PerformanceHints{PreloadAssets: []string{}, CacheStrategy: "normal"}
		degraded = true
	})

	resp = PipelineResponse{
		ID:        uuid.New().String(),
		Category:  cat,
		Version:   ResponseVersion,
		Timestamp: time.Now().UTC(),
		Content: ContentBlock{
			Data: canonical.Data,
			Metadata: ContentMetadata{
				Confidence: confidence,
				Repaired:   repaired,
				Reusable:   truthy(raw["reusable"]),
				Source:     "generator",
			},
			Validation: rules,
			Display:    displaySettings(cat, reqCtx),
			Volume:     vol,
		},
		Dimensions:   plan,
		UICompliance: compliance,
		Context:      reqCtx,
		Evaluation:   eval,
		Performance:  perf,
	}

	// Stage 8: final structural completeness check. A failure here means
	// the envelope cannot be trusted; swap in the uniform fallback.
	if err := completenessCheck(resp); err != nil {
		if o.log != nil {
			o.log.Error("assembled response failed completeness check", "error", err)
		}
		resp = o.errorEnvelope(reqCtx, StageFinalize, err.Error())
		o.record(false, started)
		return resp
	}
	if o.collector != nil {
		o.collector.RecordStageSuccess(StageFinalize)
	}

	o.record(!degraded, started)
	return resp
}

// Stats exposes the collector snapshot (process-wide, reset on restart).
func (o *Orchestrator) Stats() Stats {
	if o.collector == nil {
		return Stats{}
	}
	return o.collector.Snapshot()
}

// runStage executes one stage with fault isolation: panics become errors,
// and any error triggers the stage's documented default instead of aborting.
func (o *Orchestrator) runStage(ctx context.Context, name string, fn func() error, onFailure func()) {
	_, span := o.tracer.Start(ctx, "pipeline."+name)
	defer span.End()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("stage %s panicked: %v", name, r)
			}
		}()
		return fn()
	}()
	if err != nil {
		if o.log != nil {
			o.log.Warn("stage failed, substituting default", "stage", name, "error", err)
		}
		span.SetAttributes(attribute.Bool("stage.degraded", true))
		onFailure()
		return
	}
	if o.collector != nil {
		o.collector.RecordStageSuccess(name)
	}
}

func (o *Orchestrator) record(succeeded bool, started time.Time) {
	if o.collector != nil {
		o.collector.RecordRun(succeeded, time.Since(started))
	}
}

// evaluationEstimate bands expected time-on-task around the reading time,
// plus a fixed per-element constant.
func evaluationEstimate(vol VolumeMetrics) EvaluationEstimate {
	base := vol.ReadingTimeSec
	elementSec := evalSecondsPerElement * vol.Interactions
	return EvaluationEstimate{
		MinSeconds:     int(math.Ceil(0.8*float64(base))) + elementSec,
		OptimalSeconds: base + elementSec,
		MaxSeconds:     2*base + elementSec,
	}
}

// performanceHints budgets asset preloading and tells the renderer when to
// virtualize or chunk long lists.
func performanceHints(content CanonicalContent, raw RawContent, plan DimensionPlan) PerformanceHints {
	assets := preloadAssets(content.Data)
	hints := PerformanceHints{
		PreloadAssets:   assets,
		PreloadBudgetMs: preloadBudgetPerAssetMs * len(assets),
		CacheStrategy:   "normal",
		VirtualScroll:   plan.Overflow.Predicted && plan.Overflow.Strategy == "scroll",
	}
	if truthy(raw["reusable"]) {
		hints.CacheStrategy = "aggressive"
	}
	for _, v := range content.Data {
		if n := len(anySlice(v)); n > 20 {
			hints.Chunking = true
			hints.ChunkSize = chunkListSize
			break
		}
	}
	return hints
}

func preloadAssets(data map[string]any) []string {
	assets := []string{}
	seen := map[string]bool{}
	add := func(url string) {
		url = strings.TrimSpace(url)
		if url != "" && !seen[url] {
			seen[url] = true
			assets = append(assets, url)
		}
	}
	for _, m := range mapSlice(data, "media") {
		add(firstString(m, "url", "src"))
	}
	for _, key := range []string{"image", "audio", "video"} {
		add(stringFromAny(data[key]))
	}
	return assets
}

func displaySettings(cat Category, reqCtx RequestContext) DisplaySettings {
	s := DisplaySettings{Interaction: "pointer", Theme: "light"}
	if reqCtx.Device != nil && (reqCtx.Device.TouchCapable || reqCtx.Device.Type == "mobile") {
		s.Interaction = "touch"
	}
	if reqCtx.Device != nil && reqCtx.Device.Type == "mobile" && dragDropLike[cat] {
		s.StackedLayout = true
	}
	if reqCtx.DarkMode {
		s.Theme = "dark"
	}
	return s
}

// defaultCompliance is the deterministic block substituted when the external
// compliance engine is absent or fails.
func defaultCompliance(reqCtx RequestContext) map[string]any {
	theme := "light"
	if reqCtx.DarkMode {
		theme = "dark"
	}
	return map[string]any{
		"theme": theme,
		"typography": map[string]any{
			"baseFontPx": 16,
			"lineHeight": 1.5,
		},
		"branding": map[string]any{
			"palette": "default",
		},
		"accessibility": map[string]any{
			"minContrastRatio": 4.5,
			"focusVisible":     true,
		},
	}
}

// completenessCheck verifies every top-level field the renderer requires.
func completenessCheck(resp PipelineResponse) error {
	switch {
	case strings.TrimSpace(resp.ID) == "":
		return fmt.Errorf("missing response id")
	case !resp.Category.Valid():
		return fmt.Errorf("category %q outside the closed set", resp.Category)
	case resp.Version == "":
		return fmt.Errorf("missing version")
	case resp.Timestamp.IsZero():
		return fmt.Errorf("missing timestamp")
	case len(resp.Content.Data) == 0:
		return fmt.Errorf("content data is empty")
	case resp.Dimensions.Recommended.Width <= 0 || resp.Dimensions.Recommended.Height <= 0:
		return fmt.Errorf("dimension plan has no recommended size")
	case len(resp.UICompliance) == 0:
		return fmt.Errorf("missing uiCompliance block")
	case resp.Content.Validation.Rules == nil:
		return fmt.Errorf("missing validation rule list")
	}
	return nil
}

// errorEnvelope is the uniform fallback: a default short-answer-shaped
// response that is always renderable without nil guards.
func (o *Orchestrator) errorEnvelope(reqCtx RequestContext, stage, message string) PipelineResponse {
	data := zeroDataFor(DefaultCategory)
	if stringFromAny(data["question"]) == "" {
		data["question"] = "We couldn't prepare this activity. Please try again."
	}
	return PipelineResponse{
		ID:        uuid.New().String(),
		Category:  DefaultCategory,
		Version:   ResponseVersion,
		Timestamp: time.Now().UTC(),
		Content: ContentBlock{
			Data: data,
			Metadata: ContentMetadata{
				Confidence: 0,
				Repaired:   true,
				Source:     "fallback",
			},
			Validation: RuleSet{Required: true, Strict: reqCtx.StrictMode, GradeLevel: reqCtx.GradeLevel, Rules: []Rule{}},
			Display:    displaySettings(DefaultCategory, reqCtx),
			Volume:     VolumeMetrics{TextComplexity: "simple", ComplexityScore: 1, CognitiveLoad: "low"},
		},
		Dimensions:   defaultPlanFor(DefaultCategory),
		UICompliance: defaultCompliance(reqCtx),
		Context:      reqCtx,
		Evaluation:   EvaluationEstimate{MinSeconds: 30, OptimalSeconds: 60, MaxSeconds: 120},
		Performance:  PerformanceHints{PreloadAssets: []string{}, CacheStrategy: "normal"},
		Error: &ErrorDescriptor{
			Code:     ErrCodeGeneration,
			Message:  message,
			Stage:    stage,
			Fallback: true,
		},
	}
}
