// Package metrics turns raw per-item results into derived statistics.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/signalnine/tracebench/internal/collector"
	"github.com/signalnine/tracebench/internal/result"
)

// Aggregated is the read-only derived view of one cohort run.
// For non-empty input, MinLatencyMs ≤ P50 ≤ P95 ≤ P99 ≤ MaxLatencyMs.
type Aggregated struct {
	Count             int     `json:"count"`
	SuccessRatePct    float64 `json:"success_rate_pct"`
	AvgLatencyMs      float64 `json:"avg_latency_ms"`
	MinLatencyMs      float64 `json:"min_latency_ms"`
	MaxLatencyMs      float64 `json:"max_latency_ms"`
	P50LatencyMs      float64 `json:"p50_latency_ms"`
	P95LatencyMs      float64 `json:"p95_latency_ms"`
	P99LatencyMs      float64 `json:"p99_latency_ms"`
	ThroughputOpsSec  float64 `json:"throughput_ops_sec"`
	MemoryBaselineMB  float64 `json:"memory_baseline_mb"`
	MemoryAvgMB       float64 `json:"memory_avg_mb"`
	MemoryOverheadPct float64 `json:"memory_overhead_pct"`
	ExportP95Ms       float64 `json:"export_p95_ms"`
	BytesIn           int     `json:"bytes_in"`
	BytesOut          int     `json:"bytes_out"`
}

// Aggregate derives cohort statistics from raw results and memory samples.
// Pure: the same inputs always produce the identical output, and the input
// slices are never mutated. Results may arrive in completion order; the
// percentile pass sorts an explicit copy.
func Aggregate(results []result.ExecutionResult, samples []collector.RuntimeSample,
	snaps collector.Snapshots, wall time.Duration) Aggregated {

	agg := Aggregated{
		Count:       len(results),
		ExportP95Ms: snaps.Export.P95Ms,
	}

	if len(results) > 0 {
		lats := make([]float64, 0, len(results))
		var sum float64
		for _, r := range results {
			lats = append(lats, r.LatencyMs)
			sum += r.LatencyMs
			agg.BytesIn += r.BytesIn
			agg.BytesOut += r.BytesOut
		}
		sort.Float64s(lats)

		agg.AvgLatencyMs = sum / float64(len(lats))
		agg.MinLatencyMs = lats[0]
		agg.MaxLatencyMs = lats[len(lats)-1]
		agg.P50LatencyMs = percentile(lats, 0.50)
		agg.P95LatencyMs = percentile(lats, 0.95)
		agg.P99LatencyMs = percentile(lats, 0.99)
		agg.SuccessRatePct = float64(result.SuccessCount(results)) / float64(len(results)) * 100

		if secs := wall.Seconds(); secs > 0 {
			agg.ThroughputOpsSec = float64(len(results)) / secs
		}
	}

	if len(samples) > 0 {
		agg.MemoryBaselineMB = samples[0].MemoryMB
		var sum float64
		for _, s := range samples {
			sum += s.MemoryMB
		}
		agg.MemoryAvgMB = sum / float64(len(samples))
		agg.MemoryOverheadPct = OverheadPct(agg.MemoryBaselineMB, agg.MemoryAvgMB)
	}

	return agg
}

// percentile is the nearest-rank estimator over an ascending slice:
// idx = clamp(floor(p*n), 0, n-1). Not interpolated; kept for compatibility
// with historical benchmark output.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor(p * float64(len(sorted))))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// OverheadPct computes (value-baseline)/baseline as a percentage, defined
// as 0 when the baseline is not positive.
func OverheadPct(baseline, value float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return (value - baseline) / baseline * 100
}
