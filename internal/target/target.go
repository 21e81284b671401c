// Package target defines the system-under-test contracts and the built-in
// reference targets. A target is the thing being benchmarked: it executes
// one work item per call and, when instrumented, produces telemetry the
// collectors can observe through two optional hooks.
package target

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/signalnine/tracebench/internal/collector"
	"github.com/signalnine/tracebench/internal/workload"
)

// Outcome carries the byte accounting for one executed item. Latency is
// measured by the cohort executor around the call, not by the target.
type Outcome struct {
	BytesIn  int
	BytesOut int
}

// Executor is the workload executor contract. Execute must be safe to call
// concurrently from multiple worker goroutines.
type Executor interface {
	Execute(ctx context.Context, item workload.Item, opID string) (Outcome, error)
	Close(ctx context.Context) error
}

// ExportHooked is implemented by targets whose outbound telemetry send can
// be intercepted. WrapExport replaces the send hook with wrap(original);
// wrapping twice is a no-op until UnwrapExport restores the original.
type ExportHooked interface {
	WrapExport(wrap func(collector.SendFunc) collector.SendFunc)
	UnwrapExport()
}

// SpanHooked is implemented by targets that announce completed spans.
type SpanHooked interface {
	OnSpanEnd(fn func(collector.SpanRecord))
}

// Config describes one target. It is explicit and immutable: the whole
// struct crosses the process boundary as JSON at cohort spawn time, so
// there is no shared tracer singleton or global registry to contaminate
// measurements across cohorts.
type Config struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`

	// Traced selects the cohort condition: instrumentation on or off.
	Traced bool `json:"traced" yaml:"-"`

	// Simulated work shape. Zero values fall back to defaults.
	BaseLatencyUs int `json:"base_latency_us" yaml:"base_latency_us"`
	JitterUs      int `json:"jitter_us" yaml:"jitter_us"`
	SpinFactor    int `json:"spin_factor" yaml:"spin_factor"`
	FailEvery     int `json:"fail_every" yaml:"fail_every"`
}

type factory func(cfg Config) (Executor, error)

// factories is the static kind→constructor table. Adding a target means
// adding a row here; nothing is resolved by reflection at runtime.
var factories = map[string]factory{
	"otel":  newOTel,
	"sleep": newSleep,
}

// New builds the executor for cfg.Kind.
func New(cfg Config) (Executor, error) {
	f, ok := factories[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown target kind %q", cfg.Kind)
	}
	return f(cfg)
}

// Kinds lists the registered target kinds.
func Kinds() []string {
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	return kinds
}

// itemJitterUs derives a stable pseudo-random jitter for an item so both
// cohorts see identical simulated work. Never wall-clock based.
func itemJitterUs(itemID, jitterUs int) int {
	if jitterUs <= 0 {
		return 0
	}
	h := fnv.New32a()
	fmt.Fprintf(h, "jitter-%d", itemID)
	return int(h.Sum32() % uint32(jitterUs))
}

// spinWork burns deterministic CPU proportional to payload size.
func spinWork(payload string, spins int) uint64 {
	if spins <= 0 {
		spins = 20
	}
	var acc uint64 = 14695981039346656037
	for i := 0; i < spins; i++ {
		for j := 0; j < len(payload); j++ {
			acc ^= uint64(payload[j])
			acc *= 1099511628211
		}
	}
	return acc
}
