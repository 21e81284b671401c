// Package result holds the per-item execution records shared by the
// executor, aggregator, and report layers.
package result

// Cohort names one side of a traced-vs-untraced comparison.
type Cohort string

const (
	CohortTraced   Cohort = "traced"
	CohortUntraced Cohort = "untraced"
)

// ExecutionResult records one executed work item. Every submitted item
// produces exactly one of these, including failures: latency covers the
// time up to the failure point and Error carries the message.
type ExecutionResult struct {
	ItemID    int     `json:"item_id"`
	Success   bool    `json:"success"`
	LatencyMs float64 `json:"latency_ms"`
	BytesIn   int     `json:"bytes_in"`
	BytesOut  int     `json:"bytes_out"`
	Error     string  `json:"error,omitempty"`
}

// Latencies extracts the latency column in slice order.
func Latencies(results []ExecutionResult) []float64 {
	out := make([]float64, 0, len(results))
	for _, r := range results {
		out = append(out, r.LatencyMs)
	}
	return out
}

// SuccessCount counts successful results.
func SuccessCount(results []ExecutionResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
