package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalnine/tracebench/internal/collector"
	"github.com/signalnine/tracebench/internal/config"
	"github.com/signalnine/tracebench/internal/isolation"
	"github.com/signalnine/tracebench/internal/metrics"
	"github.com/signalnine/tracebench/internal/report"
	"github.com/signalnine/tracebench/internal/result"
	"github.com/signalnine/tracebench/internal/scoring"
	"github.com/signalnine/tracebench/internal/stats"
	"github.com/signalnine/tracebench/internal/target"
	"github.com/signalnine/tracebench/internal/workload"
)

// Backend selects how cohorts are isolated from the orchestrator and from
// each other.
type Backend string

const (
	BackendProcess   Backend = "process"
	BackendContainer Backend = "container"
	BackendNone      Backend = "none"
)

// Options configures one target comparison.
type Options struct {
	Target             target.Config
	Workload           workload.Spec
	Mode               string
	Concurrency        int
	ItemTimeout        time.Duration
	RequiredAttributes []string
	Weights            scoring.Weights
	Backend            Backend
	Image              string
	ContainerTimeout   time.Duration
	Logger             *slog.Logger
}

// RunComparison benchmarks one target: the untraced cohort first to settle
// the baseline, then the traced cohort, each in its own isolated run. It
// never returns an error; a cohort failure becomes a failed report so the
// suite keeps its full target roster.
func RunComparison(ctx context.Context, opts Options) *report.Report {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("target", opts.Target.Name)

	untraced, err := runCohort(ctx, opts, result.CohortUntraced)
	if err != nil {
		log.Error("untraced cohort failed", "error", err)
		return report.NewFailed(opts.Target.Name, err.Error())
	}
	log.Info("untraced cohort complete",
		"items", untraced.Metrics.Count,
		"avg_latency_ms", untraced.Metrics.AvgLatencyMs,
		"wall_ms", untraced.WallMs)

	traced, err := runCohort(ctx, opts, result.CohortTraced)
	if err != nil {
		log.Error("traced cohort failed", "error", err)
		return report.NewFailed(opts.Target.Name, err.Error())
	}
	log.Info("traced cohort complete",
		"items", traced.Metrics.Count,
		"avg_latency_ms", traced.Metrics.AvgLatencyMs,
		"spans", traced.Snapshots.Trace.SpanCount,
		"wall_ms", traced.WallMs)

	rep := buildReport(opts, traced, untraced)
	log.Info("comparison scored",
		"score", rep.Scores.OverallScore,
		"grade", rep.Scores.OverallGrade,
		"latency_impact_pct", rep.Comparison.LatencyImpactPct,
		"p_value", rep.Comparison.PValue)
	return rep
}

func runCohort(ctx context.Context, opts Options, cohort result.Cohort) (*isolation.Response, error) {
	req := isolation.Request{
		Cohort:             cohort,
		Target:             opts.Target,
		Workload:           opts.Workload,
		Mode:               opts.Mode,
		Concurrency:        opts.Concurrency,
		ItemTimeoutMs:      int(opts.ItemTimeout / time.Millisecond),
		RequiredAttributes: opts.RequiredAttributes,
	}
	req.Target.Traced = cohort == result.CohortTraced

	switch opts.Backend {
	case BackendContainer:
		return isolation.SpawnContainer(ctx, req, isolation.ContainerOpts{
			Image:   opts.Image,
			Timeout: opts.ContainerTimeout,
		})
	case BackendNone:
		return ExecuteCohort(ctx, req)
	default:
		return isolation.Spawn(ctx, req)
	}
}

// buildReport pairs the two cohort responses into the final artifact.
// Fidelity and export indicators come from the traced cohort's collectors;
// overhead indicators compare traced against the untraced baseline.
func buildReport(opts Options, traced, untraced *isolation.Response) *report.Report {
	cmp := stats.Compare(
		result.Latencies(traced.Results),
		result.Latencies(untraced.Results), 0)

	comparison := report.ComparisonResult{
		Comparison:    cmp,
		CPUOverheadMs: traced.Snapshots.CPU.EstimatedMs,
	}
	if total := untraced.Metrics.AvgLatencyMs * float64(untraced.Metrics.Count); total > 0 {
		comparison.CPUOverheadPct = comparison.CPUOverheadMs / total * 100
	}

	ns := report.NorthStar{
		OverheadPct:         cmp.LatencyImpactPct,
		DroppedSpanPct:      traced.Snapshots.Trace.DroppedPct,
		ExportP95Ms:         traced.Snapshots.Export.P95Ms,
		TraceCoveragePct:    traced.Snapshots.Trace.CoveragePct,
		AttrCompletenessPct: traced.Snapshots.Trace.CompletenessPct,
		MemoryOverheadPct:   metrics.OverheadPct(untraced.Metrics.MemoryAvgMB, traced.Metrics.MemoryAvgMB),
	}

	in := scoring.Inputs{
		LatencyImpactPct:    cmp.LatencyImpactPct,
		CPUOverheadPct:      comparison.CPUOverheadPct,
		MemoryOverheadPct:   ns.MemoryOverheadPct,
		TraceCoveragePct:    ns.TraceCoveragePct,
		AttrCompletenessPct: ns.AttrCompletenessPct,
		DroppedSpanPct:      ns.DroppedSpanPct,
		TracedSuccessPct:    traced.Metrics.SuccessRatePct,
		ExportFailurePct:    exportFailurePct(traced.Snapshots.Export),
		CorrelationPct:      traced.Snapshots.Trace.LinkedPct,
		ExportP95Ms:         ns.ExportP95Ms,
		PayloadBytesPerOp:   payloadPerOp(traced.Snapshots.Export, traced.Metrics.Count),
	}

	return &report.Report{
		Target:      opts.Target.Name,
		CreatedAt:   time.Now().UTC(),
		Comparison:  comparison,
		NorthStar:   ns,
		Scores:      scoring.Score(in, opts.Weights),
		Traced:      traced.Metrics,
		Untraced:    untraced.Metrics,
		TracedLog:   traced.Log,
		UntracedLog: untraced.Log,
	}
}

func exportFailurePct(snap collector.ExportSnapshot) float64 {
	if snap.Calls == 0 {
		return 0
	}
	return float64(snap.Failures) / float64(snap.Calls) * 100
}

func payloadPerOp(snap collector.ExportSnapshot, ops int) float64 {
	if ops == 0 {
		return 0
	}
	return float64(snap.PayloadBytes) / float64(ops)
}

// RunAll benchmarks every configured target, in parallel up to the CPU
// count, writing each report into runDir as it lands. filter narrows the
// roster to one target by name.
func RunAll(ctx context.Context, cfg *config.Config, runDir, filter string, logger *slog.Logger) ([]*report.Report, error) {
	targets := cfg.Targets
	if filter != "" {
		targets = nil
		for _, tc := range cfg.Targets {
			if tc.Name == filter {
				targets = append(targets, tc)
			}
		}
		if len(targets) == 0 {
			return nil, fmt.Errorf("no target named %q in config", filter)
		}
	}

	reports := make([]*report.Report, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(len(targets), runtime.NumCPU()))
	for i, tc := range targets {
		g.Go(func() error {
			rep := RunComparison(gctx, optionsFor(cfg, tc, logger))
			reports[i] = rep
			return report.Write(runDir, rep)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func optionsFor(cfg *config.Config, tc target.Config, logger *slog.Logger) Options {
	return Options{
		Target:             tc,
		Workload:           cfg.Workload.Spec(),
		Mode:               cfg.Run.Mode,
		Concurrency:        cfg.Run.Concurrency,
		ItemTimeout:        time.Duration(cfg.Run.ItemTimeout) * time.Second,
		RequiredAttributes: cfg.RequiredAttributes,
		Weights:            cfg.Weights,
		Backend:            Backend(cfg.Isolation.Backend),
		Image:              cfg.Isolation.Image,
		Logger:             logger,
	}
}
