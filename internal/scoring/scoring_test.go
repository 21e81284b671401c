package scoring

import (
	"math/rand/v2"
	"strings"
	"testing"
)

func cleanInputs() Inputs {
	return Inputs{
		TraceCoveragePct:    100,
		AttrCompletenessPct: 100,
		TracedSuccessPct:    100,
		CorrelationPct:      100,
	}
}

func TestScorePerfectRun(t *testing.T) {
	s := Score(cleanInputs(), Weights{})
	if s.OverallScore != 100 {
		t.Errorf("overall: got %f, want 100", s.OverallScore)
	}
	if s.OverallGrade != "A" {
		t.Errorf("grade: got %s, want A", s.OverallGrade)
	}
	for _, c := range s.Categories() {
		if c.Score != 100 || c.Grade != "A" {
			t.Errorf("category %s: got score=%f grade=%s, want 100/A", c.Name, c.Score, c.Grade)
		}
	}
	if len(s.Recommendations) != 1 || !strings.Contains(s.Recommendations[0], "no action needed") {
		t.Errorf("recommendations: got %v, want single all-clear", s.Recommendations)
	}
}

func TestScoreBoundsFuzz(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 500; i++ {
		in := Inputs{
			LatencyImpactPct:    rng.Float64()*200 - 50,
			CPUOverheadPct:      rng.Float64() * 100,
			MemoryOverheadPct:   rng.Float64()*150 - 25,
			TraceCoveragePct:    rng.Float64() * 120,
			AttrCompletenessPct: rng.Float64() * 120,
			DroppedSpanPct:      rng.Float64() * 100,
			TracedSuccessPct:    rng.Float64() * 100,
			ExportFailurePct:    rng.Float64() * 100,
			CorrelationPct:      rng.Float64() * 120,
			ExportP95Ms:         rng.Float64() * 2000,
		}
		s := Score(in, Weights{})
		if s.OverallScore < 0 || s.OverallScore > 100 {
			t.Fatalf("overall score %f outside [0,100] for %+v", s.OverallScore, in)
		}
		for _, c := range s.Categories() {
			if c.Score < 0 || c.Score > 100 {
				t.Fatalf("category %s score %f outside [0,100]", c.Name, c.Score)
			}
		}
		if len(s.Recommendations) == 0 {
			t.Fatal("recommendations list is empty")
		}
	}
}

func TestScoreWeightsApplied(t *testing.T) {
	in := cleanInputs()
	in.TraceCoveragePct = 0
	in.AttrCompletenessPct = 0

	// Zero fidelity weight must make fidelity irrelevant to the overall.
	all := Score(in, Weights{Efficiency: 1, Fidelity: 1, Reliability: 1, Correlation: 1, Cost: 1})
	none := Score(in, Weights{Efficiency: 1, Reliability: 1, Correlation: 1, Cost: 1})
	if none.OverallScore <= all.OverallScore {
		t.Errorf("dropping fidelity weight should raise score: %f vs %f",
			none.OverallScore, all.OverallScore)
	}
	if none.OverallScore != 100 {
		t.Errorf("overall without fidelity: got %f, want 100", none.OverallScore)
	}
}

func TestGradeCutPoints(t *testing.T) {
	cases := []struct {
		score      float64
		aCut, bCut float64
		want       string
	}{
		{95, 90, 80, "A"},
		{85, 90, 80, "B"},
		{75, 90, 80, "C"},
		{65, 90, 80, "D"},
		{50, 90, 80, "F"},
		// Reliability's stricter cuts: 98 is only a B.
		{98, 99, 95, "B"},
		{99, 99, 95, "A"},
		// Fidelity's cuts: 92 is only a B.
		{92, 95, 90, "B"},
	}
	for _, tc := range cases {
		if got := grade(tc.score, tc.aCut, tc.bCut); got != tc.want {
			t.Errorf("grade(%f, %f, %f): got %s, want %s",
				tc.score, tc.aCut, tc.bCut, got, tc.want)
		}
	}
}

func TestRecommendationTriggers(t *testing.T) {
	in := cleanInputs()
	in.CPUOverheadPct = 8
	in.TraceCoveragePct = 80
	in.MemoryOverheadPct = 30

	recs := Recommendations(in)
	if len(recs) != 3 {
		t.Fatalf("recommendations: got %d (%v), want 3", len(recs), recs)
	}
	joined := strings.Join(recs, "\n")
	for _, want := range []string{"CPU overhead", "trace coverage", "memory overhead"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing recommendation about %q in %v", want, recs)
		}
	}
}

func TestRecommendationsNeverEmpty(t *testing.T) {
	if recs := Recommendations(Inputs{TraceCoveragePct: 100, AttrCompletenessPct: 100}); len(recs) == 0 {
		t.Fatal("empty recommendation list")
	}
}

func TestFidelityDroppedSpanPenalty(t *testing.T) {
	in := cleanInputs()
	clean := Score(in, Weights{})
	in.DroppedSpanPct = 5
	dropped := Score(in, Weights{})
	if dropped.Fidelity.Score >= clean.Fidelity.Score {
		t.Errorf("dropped spans did not lower fidelity: %f vs %f",
			dropped.Fidelity.Score, clean.Fidelity.Score)
	}
}
