package scoring

import "fmt"

// Trigger thresholds for the recommendation generator.
const (
	cpuOverheadLimitPct   = 5.0
	latencyImpactLimitPct = 10.0
	coverageFloorPct      = 95.0
	completenessFloorPct  = 90.0
	memoryOverheadLimit   = 15.0
	droppedSpanLimitPct   = 1.0
	exportP95BudgetMs     = 200.0
)

// Recommendations inspects the inputs against fixed trigger thresholds and
// emits human-readable suggestions. The list is never empty: with no
// triggers fired it carries the single all-clear line.
func Recommendations(in Inputs) []string {
	var recs []string

	if in.CPUOverheadPct > cpuOverheadLimitPct {
		recs = append(recs, fmt.Sprintf(
			"CPU overhead %.1f%% exceeds %.0f%%: reduce per-span attribute count or enable sampling",
			in.CPUOverheadPct, cpuOverheadLimitPct))
	}
	if in.LatencyImpactPct > latencyImpactLimitPct {
		recs = append(recs, fmt.Sprintf(
			"latency impact %.1f%% exceeds %.0f%%: move span export off the request path (batch processor)",
			in.LatencyImpactPct, latencyImpactLimitPct))
	}
	if in.TraceCoveragePct < coverageFloorPct {
		recs = append(recs, fmt.Sprintf(
			"trace coverage %.1f%% below %.0f%%: check root span creation and context propagation",
			in.TraceCoveragePct, coverageFloorPct))
	}
	if in.AttrCompletenessPct < completenessFloorPct {
		recs = append(recs, fmt.Sprintf(
			"attribute completeness %.1f%% below %.0f%%: required attributes are missing on some spans",
			in.AttrCompletenessPct, completenessFloorPct))
	}
	if in.MemoryOverheadPct > memoryOverheadLimit {
		recs = append(recs, fmt.Sprintf(
			"memory overhead %.1f%% exceeds %.0f%%: lower span queue sizes or batch limits",
			in.MemoryOverheadPct, memoryOverheadLimit))
	}
	if in.DroppedSpanPct > droppedSpanLimitPct {
		recs = append(recs, fmt.Sprintf(
			"dropped span rate %.1f%% exceeds %.0f%%: exporter cannot keep up, increase queue capacity",
			in.DroppedSpanPct, droppedSpanLimitPct))
	}
	if in.ExportP95Ms > exportP95BudgetMs {
		recs = append(recs, fmt.Sprintf(
			"export p95 %.0fms exceeds %.0fms budget: collector endpoint is slow or batches are too large",
			in.ExportP95Ms, exportP95BudgetMs))
	}

	if len(recs) == 0 {
		recs = []string{"instrumentation overhead within acceptable limits; no action needed"}
	}
	return recs
}
