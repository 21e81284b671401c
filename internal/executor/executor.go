// Package executor runs one cohort of work items against a target, wiring
// the instrumentation collectors around each item. It owns its collector
// set exclusively for the duration of one run.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/signalnine/tracebench/internal/collector"
	"github.com/signalnine/tracebench/internal/result"
	"github.com/signalnine/tracebench/internal/target"
	"github.com/signalnine/tracebench/internal/workload"
)

type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeConcurrent Mode = "concurrent"
)

// Options configures one cohort run.
type Options struct {
	Cohort      result.Cohort
	Items       []workload.Item
	Mode        Mode
	Concurrency int
	ItemTimeout time.Duration
	Target      target.Executor
	Collectors  *collector.Set
}

// CohortRun is the raw output of one cohort: one ExecutionResult per
// submitted item (never fewer), the ordered memory samples, and the
// collector snapshots.
type CohortRun struct {
	Cohort    result.Cohort             `json:"cohort"`
	Results   []result.ExecutionResult  `json:"results"`
	Samples   []collector.RuntimeSample `json:"samples"`
	Snapshots collector.Snapshots       `json:"snapshots"`
	Wall      time.Duration             `json:"wall"`
}

// Run executes all items and returns exactly one result per item. Item
// failures and timeouts become failed results; only a misconfiguration
// returns an error.
func Run(ctx context.Context, opts Options) (*CohortRun, error) {
	if opts.Target == nil {
		return nil, fmt.Errorf("cohort %s: no target executor", opts.Cohort)
	}
	if opts.Collectors == nil {
		return nil, fmt.Errorf("cohort %s: no collector set", opts.Cohort)
	}
	if opts.Mode == ModeConcurrent && opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	opts.Collectors.StartAll()

	// Span completions feed the validator and the CPU estimator; the
	// export path gets the measuring wrapper. Both hooks are optional on
	// the target side.
	if hooked, ok := opts.Target.(target.SpanHooked); ok {
		hooked.OnSpanEnd(func(rec collector.SpanRecord) {
			opts.Collectors.Trace.RecordSpan(rec)
			opts.Collectors.CPU.RecordSpan(len(rec.Attributes))
		})
	}
	if hooked, ok := opts.Target.(target.ExportHooked); ok {
		hooked.WrapExport(opts.Collectors.Export.Intercept)
		defer hooked.UnwrapExport()
	}

	runID := uuid.NewString()[:8]
	opIDs := make([]string, len(opts.Items))
	for i, item := range opts.Items {
		opIDs[i] = fmt.Sprintf("%s-%06d", runID, item.ID)
		opts.Collectors.Trace.ExpectOperation(opIDs[i])
	}

	start := time.Now()
	var results []result.ExecutionResult
	if opts.Mode == ModeConcurrent {
		results = runConcurrent(ctx, opts, opIDs)
	} else {
		results = runSequential(ctx, opts, opIDs)
	}
	wall := time.Since(start)

	snaps, samples := opts.Collectors.StopAll()
	return &CohortRun{
		Cohort:    opts.Cohort,
		Results:   results,
		Samples:   samples,
		Snapshots: snaps,
		Wall:      wall,
	}, nil
}

// runSequential executes items one at a time in submission order, sampling
// memory immediately before and after each item.
func runSequential(ctx context.Context, opts Options, opIDs []string) []result.ExecutionResult {
	results := make([]result.ExecutionResult, 0, len(opts.Items))
	for i, item := range opts.Items {
		opts.Collectors.Memory.Sample(fmt.Sprintf("pre_operation_%d", i))
		results = append(results, runOne(ctx, opts, item, opIDs[i]))
		opts.Collectors.Memory.Sample(fmt.Sprintf("post_operation_%d", i))
	}
	return results
}

// runConcurrent submits items to a bounded worker pool and collects results
// in completion order. Per-item memory attribution is impossible under
// concurrency, so the sampler captures pool-level envelope checkpoints
// instead.
func runConcurrent(ctx context.Context, opts Options, opIDs []string) []result.ExecutionResult {
	opts.Collectors.Memory.Sample("pool_entry")

	var (
		wg        sync.WaitGroup
		firstDone sync.Once
	)
	sem := make(chan struct{}, opts.Concurrency)
	done := make(chan result.ExecutionResult, len(opts.Items))

	for i, item := range opts.Items {
		wg.Add(1)
		sem <- struct{}{}
		if i == 0 {
			opts.Collectors.Memory.Sample("first_submission")
		}
		go func(item workload.Item, opID string) {
			defer wg.Done()
			defer func() { <-sem }()
			res := runOne(ctx, opts, item, opID)
			firstDone.Do(func() {
				opts.Collectors.Memory.Sample("first_completion")
			})
			done <- res
		}(item, opIDs[i])
	}
	opts.Collectors.Memory.Sample("all_submitted")

	wg.Wait()
	close(done)
	opts.Collectors.Memory.Sample("last_completion")

	results := make([]result.ExecutionResult, 0, len(opts.Items))
	for res := range done {
		results = append(results, res)
	}
	return results
}

// runOne executes a single item with the per-item timeout. A slow item
// becomes a failed result, never a stalled batch; a panicking target
// becomes a failed result, never a crashed cohort.
func runOne(ctx context.Context, opts Options, item workload.Item, opID string) result.ExecutionResult {
	start := time.Now()

	type outcome struct {
		out target.Outcome
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("target panic: %v", r)}
			}
		}()
		out, err := opts.Target.Execute(ctx, item, opID)
		ch <- outcome{out: out, err: err}
	}()

	var timeout <-chan time.Time
	if opts.ItemTimeout > 0 {
		timer := time.NewTimer(opts.ItemTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case o := <-ch:
		res := result.ExecutionResult{
			ItemID:    item.ID,
			Success:   o.err == nil,
			LatencyMs: float64(time.Since(start)) / float64(time.Millisecond),
			BytesIn:   o.out.BytesIn,
			BytesOut:  o.out.BytesOut,
		}
		if o.err != nil {
			res.Error = o.err.Error()
		}
		return res
	case <-timeout:
		return result.ExecutionResult{
			ItemID:    item.ID,
			Success:   false,
			LatencyMs: float64(time.Since(start)) / float64(time.Millisecond),
			Error:     fmt.Sprintf("timed out after %s", opts.ItemTimeout),
		}
	case <-ctx.Done():
		return result.ExecutionResult{
			ItemID:    item.ID,
			Success:   false,
			LatencyMs: float64(time.Since(start)) / float64(time.Millisecond),
			Error:     ctx.Err().Error(),
		}
	}
}
