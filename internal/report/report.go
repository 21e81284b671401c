// Package report defines the composite report, its on-disk layout, and the
// table/markdown/json renderers. A Report is immutable once built; the
// reporting layer only reads it.
package report

import (
	"time"

	"github.com/signalnine/tracebench/internal/metrics"
	"github.com/signalnine/tracebench/internal/scoring"
	"github.com/signalnine/tracebench/internal/stats"
)

// NorthStar carries the six headline indicators of instrumentation quality.
type NorthStar struct {
	OverheadPct         float64 `json:"overhead_pct"`
	DroppedSpanPct      float64 `json:"dropped_span_pct"`
	ExportP95Ms         float64 `json:"export_p95_ms"`
	TraceCoveragePct    float64 `json:"trace_coverage_pct"`
	AttrCompletenessPct float64 `json:"attr_completeness_pct"`
	MemoryOverheadPct   float64 `json:"memory_overhead_pct"`
}

// ComparisonResult pairs the Welch comparison with the CPU overhead
// estimate. SampleSize == 0 marks a degenerate or failed comparison.
type ComparisonResult struct {
	stats.Comparison
	CPUOverheadMs  float64 `json:"cpu_overhead_ms"`
	CPUOverheadPct float64 `json:"cpu_overhead_pct"`
}

// Report is the externally consumed artifact of one target comparison.
type Report struct {
	Target        string             `json:"target"`
	CreatedAt     time.Time          `json:"created_at"`
	Failed        bool               `json:"failed"`
	FailureReason string             `json:"failure_reason,omitempty"`
	Comparison    ComparisonResult   `json:"comparison"`
	NorthStar     NorthStar          `json:"north_star"`
	Scores        scoring.Summary    `json:"scores"`
	Traced        metrics.Aggregated `json:"traced"`
	Untraced      metrics.Aggregated `json:"untraced"`
	TracedLog     string             `json:"traced_log,omitempty"`
	UntracedLog   string             `json:"untraced_log,omitempty"`
}

// NewFailed builds the sentinel report for a comparison whose cohort
// process crashed or produced no usable output. Failed comparisons are
// represented, never omitted: downstream rendering shows them distinctly
// instead of silently shrinking the result set.
func NewFailed(targetName, reason string) *Report {
	return &Report{
		Target:        targetName,
		CreatedAt:     time.Now().UTC(),
		Failed:        true,
		FailureReason: reason,
		Comparison:    ComparisonResult{Comparison: stats.Degenerate()},
	}
}
