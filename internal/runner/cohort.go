// Package runner orchestrates traced-vs-untraced comparisons: it dispatches
// cohort runs through the chosen isolation backend, pairs the two responses
// into a statistical comparison, and assembles the final report.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/signalnine/tracebench/internal/collector"
	"github.com/signalnine/tracebench/internal/executor"
	"github.com/signalnine/tracebench/internal/isolation"
	"github.com/signalnine/tracebench/internal/metrics"
	"github.com/signalnine/tracebench/internal/target"
)

// ExecuteCohort runs one cohort in the current process. This is the service
// behind the hidden cohort subcommand; the parent reaches it through
// isolation.Spawn, or calls it directly under the "none" backend.
func ExecuteCohort(ctx context.Context, req isolation.Request) (*isolation.Response, error) {
	exec, err := target.New(req.Target)
	if err != nil {
		return nil, fmt.Errorf("cohort %s: %w", req.Cohort, err)
	}
	defer exec.Close(ctx)

	set := collector.NewSet(req.RequiredAttributes)
	run, err := executor.Run(ctx, executor.Options{
		Cohort:      req.Cohort,
		Items:       req.Workload.Items(),
		Mode:        executor.Mode(req.Mode),
		Concurrency: req.Concurrency,
		ItemTimeout: time.Duration(req.ItemTimeoutMs) * time.Millisecond,
		Target:      exec,
		Collectors:  set,
	})
	if err != nil {
		return nil, err
	}

	return &isolation.Response{
		Cohort:    run.Cohort,
		Metrics:   metrics.Aggregate(run.Results, run.Samples, run.Snapshots, run.Wall),
		Results:   run.Results,
		Samples:   run.Samples,
		Snapshots: run.Snapshots,
		WallMs:    float64(run.Wall) / float64(time.Millisecond),
	}, nil
}
