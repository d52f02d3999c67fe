package pipeline

import (
	"context"
	"fmt"
	"testing"
)

type stubCompliance struct {
	block map[string]any
	err   error
}

func (s stubCompliance) Apply(ctx context.Context, req ComplianceRequest) (map[string]any, error) {
	return s.block, s.err
}

type panicCompliance struct{}

func (panicCompliance) Apply(ctx context.Context, req ComplianceRequest) (map[string]any, error) {
	panic("compliance exploded")
}

func assertComplete(t *testing.T, resp PipelineResponse) {
	t.Helper()
	if err := completenessCheck(resp); err != nil {
		t.Fatalf("incomplete envelope: %v", err)
	}
}

func TestRunHappyPath(t *testing.T) {
	collector := NewCollector(nil)
	o := NewOrchestrator(nil, nil, collector)
	resp := o.Run(context.Background(), RawContent{
		"question": "Which planet is largest?",
		"options":  []any{"Mars", "Jupiter"},
		"answer":   "Jupiter",
	}, RequestContext{GradeLevel: "6-8"})

	assertComplete(t, resp)
	if resp.Error != nil {
		t.Fatalf("happy path must not carry an error descriptor: %+v", resp.Error)
	}
	if resp.Category != CategorySingleSelect {
		t.Fatalf("expected single-select, got %s", resp.Category)
	}
	if resp.Version != ResponseVersion {
		t.Fatalf("unexpected version %q", resp.Version)
	}
	if resp.Content.Metadata.Source != "generator" {
		t.Fatalf("expected generator source, got %s", resp.Content.Metadata.Source)
	}

	stats := o.Stats()
	if stats.Total != 1 || stats.Succeeded != 1 {
		t.Fatalf("expected one clean run, got %+v", stats)
	}
	if stats.StageSuccesses[StageResolve] != 1 || stats.StageSuccesses[StageFinalize] != 1 {
		t.Fatalf("stage accounting missing: %+v", stats.StageSuccesses)
	}
}

func TestRunComplianceFailureSubstitutesDefault(t *testing.T) {
	collector := NewCollector(nil)
	o := NewOrchestrator(nil, stubCompliance{err: fmt.Errorf("engine offline")}, collector)
	resp := o.Run(context.Background(), RawContent{"question": "Why?"}, RequestContext{GradeLevel: "3-5", DarkMode: true})

	assertComplete(t, resp)
	if resp.Error != nil {
		t.Fatalf("degraded stages must not surface as response errors")
	}
	if resp.UICompliance["theme"] != "dark" {
		t.Fatalf("default compliance block should honor dark mode, got %v", resp.UICompliance["theme"])
	}
	stats := o.Stats()
	if stats.Failed != 1 {
		t.Fatalf("a degraded run should count as failed, got %+v", stats)
	}
	if stats.StageSuccesses[StageCompliance] != 0 {
		t.Fatalf("failed compliance stage must not count as success")
	}
}

func TestRunPanickingComplianceIsolated(t *testing.T) {
	o := NewOrchestrator(nil, panicCompliance{}, NewCollector(nil))
	resp := o.Run(context.Background(), RawContent{"question": "Why?"}, RequestContext{})
	assertComplete(t, resp)
	if len(resp.UICompliance) == 0 {
		t.Fatalf("panicking compliance engine should fall back to the default block")
	}
}

func TestRunStandardizeFallback(t *testing.T) {
	o := NewOrchestrator(nil, nil, NewCollector(nil))
	// rubric as a string is uncoercible, which forces the standardizer to
	// fail and the orchestrator to substitute the minimal essay record.
	resp := o.Run(context.Background(), RawContent{
		"category": "essay",
		"prompt":   "Write about your summer.",
		"rubric":   "grade generously",
	}, RequestContext{GradeLevel: "9-12"})

	assertComplete(t, resp)
	if resp.Category != CategoryEssay {
		t.Fatalf("category must survive the fallback, got %s", resp.Category)
	}
	if !resp.Content.Metadata.Repaired {
		t.Fatalf("substituted content must report repaired")
	}
	if viols := validateAgainstSchema(resp.Content.Data, schemaFor(CategoryEssay)); len(viols) != 0 {
		t.Fatalf("fallback data must conform to the essay schema: %v", viols)
	}
}

func TestRunEvaluationBands(t *testing.T) {
	o := NewOrchestrator(nil, nil, NewCollector(nil))
	resp := o.Run(context.Background(), RawContent{
		"question": "Explain in detail why the sky appears blue during the day and red at sunset.",
	}, RequestContext{})

	assertComplete(t, resp)
	eval := resp.Evaluation
	if eval.MinSeconds > eval.OptimalSeconds || eval.OptimalSeconds > eval.MaxSeconds {
		t.Fatalf("bands out of order: %+v", eval)
	}
	vol := resp.Content.Volume
	wantOptimal := vol.ReadingTimeSec + evalSecondsPerElement*vol.Interactions
	if eval.OptimalSeconds != wantOptimal {
		t.Fatalf("optimal band should be reading time plus element time: got %d, want %d", eval.OptimalSeconds, wantOptimal)
	}
}

func TestRunPerformanceHints(t *testing.T) {
	o := NewOrchestrator(nil, nil, NewCollector(nil))

	opts := make([]any, 0, 25)
	for i := 0; i < 25; i++ {
		opts = append(opts, map[string]any{"id": fmt.Sprintf("opt%d", i+1), "label": "choice"})
	}
	resp := o.Run(context.Background(), RawContent{
		"question": "Pick one",
		"options":  opts,
		"reusable": true,
		"media": []any{
			map[string]any{"url": "https://cdn.example.com/a.png"},
			map[string]any{"url": "https://cdn.example.com/b.png"},
		},
	}, RequestContext{})

	assertComplete(t, resp)
	perf := resp.Performance
	if perf.CacheStrategy != "aggressive" {
		t.Fatalf("reusable content should cache aggressively, got %s", perf.CacheStrategy)
	}
	if len(perf.PreloadAssets) != 2 {
		t.Fatalf("expected 2 preload assets, got %v", perf.PreloadAssets)
	}
	if perf.PreloadBudgetMs != 2*preloadBudgetPerAssetMs {
		t.Fatalf("preload budget should be per-asset, got %d", perf.PreloadBudgetMs)
	}
	if !perf.Chunking || perf.ChunkSize != chunkListSize {
		t.Fatalf("25-entry list should chunk at %d, got %+v", chunkListSize, perf)
	}
	if !resp.Content.Metadata.Reusable {
		t.Fatalf("reusable flag should flow into metadata")
	}
}

func TestRunDisplaySettings(t *testing.T) {
	o := NewOrchestrator(nil, nil, NewCollector(nil))
	resp := o.Run(context.Background(), RawContent{
		"question": "Place each item",
		"sources":  []any{map[string]any{"id": "s1", "label": "x"}},
		"targets":  []any{map[string]any{"id": "t1", "label": "y"}},
	}, RequestContext{
		DarkMode: true,
		Device:   &DeviceContext{Type: "mobile", ViewportWidth: 390, ViewportHeight: 844, TouchCapable: true},
	})

	assertComplete(t, resp)
	d := resp.Content.Display
	if d.Interaction != "touch" {
		t.Fatalf("touch device should report touch interaction, got %s", d.Interaction)
	}
	if !d.StackedLayout {
		t.Fatalf("drag-drop on mobile should stack")
	}
	if d.Theme != "dark" {
		t.Fatalf("dark mode should flow into display settings")
	}
}

func TestRunNilContent(t *testing.T) {
	o := NewOrchestrator(nil, nil, NewCollector(nil))
	resp := o.Run(context.Background(), nil, RequestContext{})
	assertComplete(t, resp)
	if resp.Category != DefaultCategory {
		t.Fatalf("nil content should resolve to the default category, got %s", resp.Category)
	}
}

func TestErrorEnvelopeShape(t *testing.T) {
	o := NewOrchestrator(nil, nil, NewCollector(nil))
	resp := o.errorEnvelope(RequestContext{GradeLevel: "K-2"}, StageFinalize, "assembly failed")

	assertComplete(t, resp)
	if resp.Error == nil {
		t.Fatalf("error envelope must carry a descriptor")
	}
	if resp.Error.Code != ErrCodeGeneration {
		t.Fatalf("expected %s, got %s", ErrCodeGeneration, resp.Error.Code)
	}
	if !resp.Error.Fallback {
		t.Fatalf("error envelope must flag fallback")
	}
	if resp.Category != DefaultCategory {
		t.Fatalf("error envelope uses the default category, got %s", resp.Category)
	}
	if resp.Content.Metadata.Source != "fallback" {
		t.Fatalf("error envelope content source should be fallback, got %s", resp.Content.Metadata.Source)
	}
}

func TestRunConcurrentStatsAccounting(t *testing.T) {
	collector := NewCollector(nil)
	o := NewOrchestrator(nil, nil, collector)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			o.Run(context.Background(), RawContent{"question": "Why?"}, RequestContext{})
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	stats := o.Stats()
	if stats.Total != 8 {
		t.Fatalf("expected 8 runs accounted, got %+v", stats)
	}
}
