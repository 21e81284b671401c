// Package stats compares two cohorts' latency distributions.
//
// The approach is Welch's unequal-variance t-test. The reported PValue is a
// coarse significance indicator bucketed by |t| thresholds rather than an
// exact CDF lookup, kept for compatibility with historical benchmark
// output; ExactPValue carries the Student's-t value for readers who want
// it. Treat both as decision support, not certified statistics.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Comparison holds the statistical outputs of one traced-vs-untraced
// latency comparison. SampleSize == 0 is the degenerate sentinel: PValue is
// 1.0 and the confidence interval is (0,0); no field is ever NaN or Inf.
type Comparison struct {
	SampleSize       int     `json:"sample_size"`
	TracedMeanMs     float64 `json:"traced_mean_ms"`
	UntracedMeanMs   float64 `json:"untraced_mean_ms"`
	LatencyImpactPct float64 `json:"latency_impact_pct"`
	TStat            float64 `json:"t_stat"`
	DegreesOfFreedom float64 `json:"degrees_of_freedom"`
	PValue           float64 `json:"p_value"`
	ExactPValue      float64 `json:"exact_p_value"`
	CILowPct         float64 `json:"ci_low_pct"`
	CIHighPct        float64 `json:"ci_high_pct"`
}

// Degenerate returns the failed-run sentinel.
func Degenerate() Comparison {
	return Comparison{PValue: 1.0, ExactPValue: 1.0}
}

// Compare runs Welch's test on two latency samples. n is the per-cohort
// sample size used for standard errors; n <= 0 falls back to the shorter
// input length. Empty input or all-zero latencies (a failed run) yield the
// degenerate sentinel rather than an error.
func Compare(traced, untraced []float64, n int) Comparison {
	if len(traced) == 0 || len(untraced) == 0 {
		return Degenerate()
	}
	if allNearZero(traced) || allNearZero(untraced) {
		return Degenerate()
	}
	if n <= 0 {
		n = min(len(traced), len(untraced))
	}
	if n < 2 {
		return Degenerate()
	}

	meanT := stat.Mean(traced, nil)
	meanU := stat.Mean(untraced, nil)
	varT := stat.Variance(traced, nil)
	varU := stat.Variance(untraced, nil)

	seT := math.Sqrt(varT / float64(n))
	seU := math.Sqrt(varU / float64(n))
	seDiff := math.Sqrt(seT*seT + seU*seU)

	cmp := Comparison{
		SampleSize:     n,
		TracedMeanMs:   meanT,
		UntracedMeanMs: meanU,
	}
	if meanU > 0 {
		cmp.LatencyImpactPct = (meanT - meanU) / meanU * 100
	}

	if seDiff == 0 {
		// Zero variance in both cohorts. No spread to test against: either
		// the means coincide (no effect) or the difference is exact.
		cmp.DegreesOfFreedom = float64(2*n - 2)
		if meanT == meanU {
			cmp.PValue = 1.0
			cmp.ExactPValue = 1.0
		} else {
			cmp.PValue = 0.001
			cmp.ExactPValue = 0.0
		}
		cmp.CILowPct = cmp.LatencyImpactPct
		cmp.CIHighPct = cmp.LatencyImpactPct
		return cmp
	}

	cmp.TStat = (meanT - meanU) / seDiff
	cmp.DegreesOfFreedom = welchDF(seT, seU, n)
	cmp.PValue = bucketPValue(math.Abs(cmp.TStat))
	cmp.ExactPValue = exactPValue(math.Abs(cmp.TStat), cmp.DegreesOfFreedom)

	// 95% CI for the latency impact, expressed as a percentage of the
	// untraced mean.
	if meanU > 0 {
		margin := 1.96 * seDiff
		diff := meanT - meanU
		cmp.CILowPct = (diff - margin) / meanU * 100
		cmp.CIHighPct = (diff + margin) / meanU * 100
	}
	return cmp
}

// welchDF is the Welch–Satterthwaite approximation when both standard
// errors are non-zero, else the pooled 2n-2.
func welchDF(seT, seU float64, n int) float64 {
	if seT == 0 || seU == 0 {
		return float64(2*n - 2)
	}
	num := math.Pow(seT*seT+seU*seU, 2)
	den := math.Pow(seT, 4)/float64(n-1) + math.Pow(seU, 4)/float64(n-1)
	if den == 0 {
		return float64(2*n - 2)
	}
	return num / den
}

// bucketPValue maps |t| to the historical coarse significance buckets.
func bucketPValue(absT float64) float64 {
	switch {
	case absT < 0.5:
		return 0.70
	case absT < 1.0:
		return 0.40
	case absT < 1.5:
		return 0.20
	case absT < 2.0:
		return 0.10
	case absT < 2.5:
		return 0.05
	case absT < 3.0:
		return 0.01
	default:
		return 0.001
	}
}

// exactPValue is the two-sided Student's-t p-value.
func exactPValue(absT, df float64) float64 {
	if df < 1 {
		df = 1
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - dist.CDF(absT))
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 1.0
	}
	return math.Max(0, math.Min(1, p))
}

func allNearZero(xs []float64) bool {
	for _, x := range xs {
		if math.Abs(x) > 1e-9 {
			return false
		}
	}
	return true
}
