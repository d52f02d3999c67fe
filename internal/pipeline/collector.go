package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage names used for per-stage success accounting and tracing.
const (
	StageResolve     = "resolve"
	StageStandardize = "standardize"
	StageDimensions  = "dimensions"
	StageCompliance  = "compliance"
	StageValidation  = "validation"
	StageEvaluation  = "evaluation"
	StagePerformance = "performance"
	StageFinalize    = "finalize"
)

var stageNames = []string{
	StageResolve,
	StageStandardize,
	StageDimensions,
	StageCompliance,
	StageValidation,
	StageEvaluation,
	StagePerformance,
	StageFinalize,
}

// Collector owns the pipeline's run counters. It is injected into the
// orchestrator rather than held as process-global state; increments are
// atomic so concurrent runs never race. Counters reset only on restart.
type Collector struct {
	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	stageOK map[string]*atomic.Int64

	latencyMu    sync.Mutex
	latencyTotal time.Duration
	latencyRuns  int64

	promRuns    *prometheus.CounterVec
	promStages  *prometheus.CounterVec
	promLatency prometheus.Histogram
}

// Stats is a point-in-time snapshot of the collector's counters.
type Stats struct {
	Total          int64            `json:"total"`
	Succeeded      int64            `json:"succeeded"`
	Failed         int64            `json:"failed"`
	StageSuccesses map[string]int64 `json:"stageSuccesses"`
	AvgLatencyMs   float64          `json:"avgLatencyMs"`
}

// NewCollector builds a collector. A nil registerer skips prometheus export
// and keeps only the in-process counters (useful in tests).
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{stageOK: make(map[string]*atomic.Int64, len(stageNames))}
	for _, name := range stageNames {
		c.stageOK[name] = &atomic.Int64{}
	}
	if reg == nil {
		return c
	}
	c.promRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "renderprep",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Pipeline runs by outcome.",
	}, []string{"outcome"})
	c.promStages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "renderprep",
		Subsystem: "pipeline",
		Name:      "stage_success_total",
		Help:      "Successful stage executions by stage.",
	}, []string{"stage"})
	c.promLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "renderprep",
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "End-to-end pipeline run latency.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(c.promRuns, c.promStages, c.promLatency)
	return c
}

// RecordRun accounts one completed run.
func (c *Collector) RecordRun(succeeded bool, elapsed time.Duration) {
	c.total.Add(1)
	outcome := "succeeded"
	if succeeded {
		c.succeeded.Add(1)
	} else {
		c.failed.Add(1)
		outcome = "failed"
	}
	c.latencyMu.Lock()
	c.latencyTotal += elapsed
	c.latencyRuns++
	c.latencyMu.Unlock()
	if c.promRuns != nil {
		c.promRuns.WithLabelValues(outcome).Inc()
	}
	if c.promLatency != nil {
		c.promLatency.Observe(elapsed.Seconds())
	}
}

// RecordStageSuccess accounts one stage that completed without substitution.
func (c *Collector) RecordStageSuccess(stage string) {
	if ctr, ok := c.stageOK[stage]; ok {
		ctr.Add(1)
	}
	if c.promStages != nil {
		c.promStages.WithLabelValues(stage).Inc()
	}
}

// Snapshot returns current counter values; queryable at any time.
func (c *Collector) Snapshot() Stats {
	s := Stats{
		Total:          c.total.Load(),
		Succeeded:      c.succeeded.Load(),
		Failed:         c.failed.Load(),
		StageSuccesses: make(map[string]int64, len(c.stageOK)),
	}
	for name, ctr := range c.stageOK {
		s.StageSuccesses[name] = ctr.Load()
	}
	c.latencyMu.Lock()
	if c.latencyRuns > 0 {
		s.AvgLatencyMs = float64(c.latencyTotal.Microseconds()) / float64(c.latencyRuns) / 1000
	}
	c.latencyMu.Unlock()
	return s
}
