package redis

import (
	"testing"
	"time"

	"github.com/yungbote/renderprep-backend/internal/pipeline"
)

func TestCacheKeyDeterministic(t *testing.T) {
	raw := pipeline.RawContent{
		"question": "Why?",
		"options":  []any{"a", "b"},
		"nested":   map[string]any{"z": 1, "a": 2},
	}
	ctx := pipeline.RequestContext{GradeLevel: "6-8"}
	a := CacheKey(raw, ctx)
	b := CacheKey(raw, ctx)
	if a == "" || a != b {
		t.Fatalf("cache key must be stable: %q vs %q", a, b)
	}
}

func TestCacheKeySensitivity(t *testing.T) {
	raw := pipeline.RawContent{"question": "Why?"}
	base := CacheKey(raw, pipeline.RequestContext{GradeLevel: "6-8"})

	if got := CacheKey(raw, pipeline.RequestContext{GradeLevel: "K-2"}); got == base {
		t.Fatalf("grade level must change the key")
	}
	if got := CacheKey(raw, pipeline.RequestContext{GradeLevel: "6-8", DarkMode: true}); got == base {
		t.Fatalf("theme must change the key")
	}
	if got := CacheKey(raw, pipeline.RequestContext{
		GradeLevel: "6-8",
		Device:     &pipeline.DeviceContext{Type: "mobile", ViewportWidth: 390, ViewportHeight: 844},
	}); got == base {
		t.Fatalf("device context must change the key")
	}
	if got := CacheKey(pipeline.RawContent{"question": "How?"}, pipeline.RequestContext{GradeLevel: "6-8"}); got == base {
		t.Fatalf("content must change the key")
	}
}

func TestTTLByStrategy(t *testing.T) {
	aggressive := pipeline.PipelineResponse{Performance: pipeline.PerformanceHints{CacheStrategy: "aggressive"}}
	normal := pipeline.PipelineResponse{Performance: pipeline.PerformanceHints{CacheStrategy: "normal"}}
	if ttlFor(aggressive) != 24*time.Hour {
		t.Fatalf("aggressive strategy should keep entries a day")
	}
	if ttlFor(normal) != time.Hour {
		t.Fatalf("normal strategy should keep entries an hour")
	}
}

func TestTTLFromEnv(t *testing.T) {
	t.Setenv("CACHE_TTL_AGGRESSIVE_HOURS", "48")
	t.Setenv("CACHE_TTL_DEFAULT_HOURS", "2")
	aggressive := pipeline.PipelineResponse{Performance: pipeline.PerformanceHints{CacheStrategy: "aggressive"}}
	normal := pipeline.PipelineResponse{Performance: pipeline.PerformanceHints{CacheStrategy: "normal"}}
	if ttlFor(aggressive) != 48*time.Hour {
		t.Fatalf("CACHE_TTL_AGGRESSIVE_HOURS should override the aggressive TTL")
	}
	if ttlFor(normal) != 2*time.Hour {
		t.Fatalf("CACHE_TTL_DEFAULT_HOURS should override the default TTL")
	}
}
