package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalnine/tracebench/internal/scoring"
	"github.com/signalnine/tracebench/internal/stats"
)

func sample(targetName string) *Report {
	return &Report{
		Target:    targetName,
		CreatedAt: time.Now().UTC(),
		Comparison: ComparisonResult{
			Comparison: stats.Comparison{
				SampleSize:       100,
				LatencyImpactPct: 9.5,
				PValue:           0.05,
			},
			CPUOverheadPct: 2.1,
		},
		NorthStar: NorthStar{
			OverheadPct:         9.5,
			TraceCoveragePct:    99.0,
			AttrCompletenessPct: 97.0,
			MemoryOverheadPct:   4.0,
		},
		Scores: scoring.Summary{
			OverallScore:    91.2,
			OverallGrade:    "A",
			Recommendations: []string{"instrumentation overhead within acceptable limits; no action needed"},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	runDir := t.TempDir()
	r := sample("otel-sdk")
	if err := Write(runDir, r); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := Read(filepath.Join(runDir, "reports", "otel-sdk.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if back.Target != "otel-sdk" || back.Comparison.SampleSize != 100 {
		t.Errorf("round trip: got %+v", back)
	}
	if back.Comparison.LatencyImpactPct != 9.5 {
		t.Errorf("embedded comparison field lost: %+v", back.Comparison)
	}
}

func TestCollectSorted(t *testing.T) {
	runDir := t.TempDir()
	for _, name := range []string{"zulu", "alpha", "mike"} {
		if err := Write(runDir, sample(name)); err != nil {
			t.Fatal(err)
		}
	}
	reports, err := Collect(runDir)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("count: got %d, want 3", len(reports))
	}
	if reports[0].Target != "alpha" || reports[2].Target != "zulu" {
		t.Errorf("not sorted: %s, %s, %s", reports[0].Target, reports[1].Target, reports[2].Target)
	}
}

func TestCreateRunDir(t *testing.T) {
	base := t.TempDir()
	runDir, err := CreateRunDir(base)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := os.Stat(runDir); err != nil {
		t.Errorf("run dir missing: %v", err)
	}
	link, err := os.Readlink(filepath.Join(base, "latest"))
	if err != nil {
		t.Fatalf("latest symlink: %v", err)
	}
	if link != runDir {
		t.Errorf("latest points to %s, want %s", link, runDir)
	}
}

func TestGenerateTable(t *testing.T) {
	runDir := t.TempDir()
	if err := Write(runDir, sample("otel-sdk")); err != nil {
		t.Fatal(err)
	}
	if err := Write(runDir, NewFailed("broken-target", "cohort traced process: exit status 2")); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Generate(runDir, "table", &buf); err != nil {
		t.Fatalf("generate: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "otel-sdk") {
		t.Error("table missing healthy target")
	}
	// A failed comparison is rendered distinctly, never dropped.
	if !strings.Contains(out, "FAILED (0 samples)") {
		t.Errorf("table does not mark failed comparison:\n%s", out)
	}
	if !strings.Contains(out, "exit status 2") {
		t.Error("failure reason not shown")
	}
	if !strings.Contains(out, "no action needed") {
		t.Error("recommendations not shown")
	}
}

func TestGenerateMarkdownAndJSON(t *testing.T) {
	runDir := t.TempDir()
	if err := Write(runDir, sample("otel-sdk")); err != nil {
		t.Fatal(err)
	}

	var md bytes.Buffer
	if err := Generate(runDir, "markdown", &md); err != nil {
		t.Fatalf("markdown: %v", err)
	}
	if !strings.Contains(md.String(), "| otel-sdk |") {
		t.Errorf("markdown output:\n%s", md.String())
	}

	var js bytes.Buffer
	if err := Generate(runDir, "json", &js); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(js.String(), "\"target\": \"otel-sdk\"") {
		t.Errorf("json output:\n%s", js.String())
	}
}

func TestNewFailedSentinel(t *testing.T) {
	r := NewFailed("x", "boom")
	if !r.Failed {
		t.Error("not marked failed")
	}
	if r.Comparison.SampleSize != 0 || r.Comparison.PValue != 1.0 {
		t.Errorf("comparison not degenerate: %+v", r.Comparison)
	}
}

func TestSanitizeName(t *testing.T) {
	if got := sanitizeName("otel sdk/v2"); got != "otel_sdk_v2" {
		t.Errorf("sanitize: got %q", got)
	}
}
