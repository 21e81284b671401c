// Package scoring maps aggregated comparison metrics to five category
// scores, letter grades, and one weighted overall score.
package scoring

import "math"

// Weights for the five categories. Fidelity is weighted highest: losing
// data quality is judged worse than paying raw overhead.
type Weights struct {
	Efficiency  float64 `yaml:"efficiency" json:"efficiency"`
	Fidelity    float64 `yaml:"fidelity" json:"fidelity"`
	Reliability float64 `yaml:"reliability" json:"reliability"`
	Correlation float64 `yaml:"correlation" json:"correlation"`
	Cost        float64 `yaml:"cost" json:"cost"`
}

var DefaultWeights = Weights{
	Efficiency:  0.25,
	Fidelity:    0.30,
	Reliability: 0.25,
	Correlation: 0.15,
	Cost:        0.05,
}

func (w Weights) zero() bool {
	return w.Efficiency == 0 && w.Fidelity == 0 && w.Reliability == 0 &&
		w.Correlation == 0 && w.Cost == 0
}

// Inputs are the measured quantities the categories are scored from, all in
// percent or milliseconds.
type Inputs struct {
	LatencyImpactPct    float64 `json:"latency_impact_pct"`
	CPUOverheadPct      float64 `json:"cpu_overhead_pct"`
	MemoryOverheadPct   float64 `json:"memory_overhead_pct"`
	TraceCoveragePct    float64 `json:"trace_coverage_pct"`
	AttrCompletenessPct float64 `json:"attr_completeness_pct"`
	DroppedSpanPct      float64 `json:"dropped_span_pct"`
	TracedSuccessPct    float64 `json:"traced_success_pct"`
	ExportFailurePct    float64 `json:"export_failure_pct"`
	CorrelationPct      float64 `json:"correlation_pct"`
	ExportP95Ms         float64 `json:"export_p95_ms"`
	PayloadBytesPerOp   float64 `json:"payload_bytes_per_op"`
}

// Category is one scored dimension.
type Category struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Grade string  `json:"grade"`
}

// Summary is the scored view of one comparison.
type Summary struct {
	Efficiency      Category `json:"efficiency"`
	Fidelity        Category `json:"fidelity"`
	Reliability     Category `json:"reliability"`
	Correlation     Category `json:"correlation"`
	Cost            Category `json:"cost"`
	OverallScore    float64  `json:"overall_score"`
	OverallGrade    string   `json:"overall_grade"`
	Recommendations []string `json:"recommendations"`
}

// Categories lists the five blocks in weight order.
func (s Summary) Categories() []Category {
	return []Category{s.Efficiency, s.Fidelity, s.Reliability, s.Correlation, s.Cost}
}

// Score computes the five category scores and the weighted overall value.
// Zero weights fall back to the defaults; the overall score is always
// within [0, 100].
func Score(in Inputs, w Weights) Summary {
	if w.zero() {
		w = DefaultWeights
	}

	s := Summary{
		Efficiency:  Category{Name: "efficiency", Score: efficiencyScore(in)},
		Fidelity:    Category{Name: "fidelity", Score: fidelityScore(in)},
		Reliability: Category{Name: "reliability", Score: reliabilityScore(in)},
		Correlation: Category{Name: "correlation", Score: clamp(in.CorrelationPct)},
		Cost:        Category{Name: "cost", Score: costScore(in)},
	}

	s.Efficiency.Grade = grade(s.Efficiency.Score, 90, 80)
	s.Fidelity.Grade = grade(s.Fidelity.Score, 95, 90)
	s.Reliability.Grade = grade(s.Reliability.Score, 99, 95)
	s.Correlation.Grade = grade(s.Correlation.Score, 90, 80)
	s.Cost.Grade = grade(s.Cost.Score, 90, 80)

	total := w.Efficiency + w.Fidelity + w.Reliability + w.Correlation + w.Cost
	s.OverallScore = clamp((s.Efficiency.Score*w.Efficiency +
		s.Fidelity.Score*w.Fidelity +
		s.Reliability.Score*w.Reliability +
		s.Correlation.Score*w.Correlation +
		s.Cost.Score*w.Cost) / total)
	s.OverallGrade = grade(s.OverallScore, 90, 80)

	s.Recommendations = Recommendations(in)
	return s
}

// efficiencyScore penalizes latency and CPU overhead. CPU weighs heavier:
// it is pure cost with no recovery path at the collector.
func efficiencyScore(in Inputs) float64 {
	return clamp(100 - math.Max(0, in.LatencyImpactPct)*2 - math.Max(0, in.CPUOverheadPct)*3)
}

// fidelityScore blends coverage and completeness, with dropped spans
// penalized on top since they are unrecoverable.
func fidelityScore(in Inputs) float64 {
	base := 0.6*clamp(in.TraceCoveragePct) + 0.4*clamp(in.AttrCompletenessPct)
	return clamp(base - math.Max(0, in.DroppedSpanPct)*2)
}

func reliabilityScore(in Inputs) float64 {
	return clamp(clamp(in.TracedSuccessPct) - math.Max(0, in.ExportFailurePct)*2)
}

// costScore penalizes sustained memory overhead and export tail latency.
func costScore(in Inputs) float64 {
	exportPenalty := 0.0
	if in.ExportP95Ms > exportP95BudgetMs {
		exportPenalty = (in.ExportP95Ms - exportP95BudgetMs) / 10
	}
	return clamp(100 - math.Max(0, in.MemoryOverheadPct)*2 - exportPenalty)
}

// grade assigns a letter with category-specific A/B cut points; C and D
// cuts are 70 and 60 everywhere.
func grade(score, aCut, bCut float64) string {
	switch {
	case score >= aCut:
		return "A"
	case score >= bCut:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
