//go:build integration

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalnine/tracebench/internal/report"
)

// buildBinary compiles tracebench into a temp dir so the process isolation
// backend has a real executable to re-exec.
func buildBinary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "tracebench")
	cmd := exec.Command("go", "build", "-o", bin, ".")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("%v: %s", err, out)
	}
	return bin
}

func writeFixtureConfig(t *testing.T, resultsDir string) string {
	t.Helper()
	cfg := `targets:
  - name: otel-reference
    kind: otel
    base_latency_us: 200
workload:
  seed: 42
  items: 10
  size_mode: small
run:
  mode: sequential
  item_timeout_s: 10
isolation:
  backend: process
results:
  dir: ` + resultsDir + `
required_attributes:
  - operation.id
  - scenario.tag
`
	path := filepath.Join(t.TempDir(), "tracebench.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessBackendIntegration(t *testing.T) {
	if os.Getenv("TRACEBENCH_PROCESS_TESTS") == "" {
		t.Skip("set TRACEBENCH_PROCESS_TESTS=1 to run integration tests")
	}

	bin := buildBinary(t)
	resultsDir := t.TempDir()
	cfgPath := writeFixtureConfig(t, resultsDir)

	cmd := exec.Command(bin, "run", "--config", cfgPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "otel-reference") {
		t.Errorf("output missing target row:\n%s", out)
	}

	latest, err := filepath.EvalSymlinks(filepath.Join(resultsDir, "latest"))
	if err != nil {
		t.Fatalf("latest symlink: %v", err)
	}
	reports, err := report.Collect(latest)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("reports: got %d, want 1", len(reports))
	}
	r := reports[0]
	if r.Failed {
		t.Fatalf("comparison failed: %s", r.FailureReason)
	}
	if r.Comparison.SampleSize != 10 {
		t.Errorf("sample size: got %d, want 10", r.Comparison.SampleSize)
	}
	if r.NorthStar.TraceCoveragePct != 100 {
		t.Errorf("coverage: got %f, want 100", r.NorthStar.TraceCoveragePct)
	}
	if r.TracedLog == "" || r.UntracedLog == "" {
		t.Error("cohort logs not captured")
	}
}
