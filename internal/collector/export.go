package collector

import (
	"context"
	"sort"
	"sync"
	"time"
)

// SendFunc is the system-under-test's outbound telemetry-send hook. The
// interceptor wraps one of these; payloadBytes is the estimated serialized
// size of the batch being sent.
type SendFunc func(ctx context.Context, payloadBytes int) error

// ExportSnapshot summarizes intercepted send calls. Percentiles cover the
// real send duration only; InterceptorMs is the bookkeeping time the
// interceptor itself added, reported separately so measured overhead is
// never conflated with measurement overhead.
type ExportSnapshot struct {
	Calls         int     `json:"calls"`
	Failures      int     `json:"failures"`
	PayloadBytes  int     `json:"payload_bytes"`
	P50Ms         float64 `json:"p50_ms"`
	P95Ms         float64 `json:"p95_ms"`
	P99Ms         float64 `json:"p99_ms"`
	TotalMs       float64 `json:"total_ms"`
	InterceptorMs float64 `json:"interceptor_ms"`
}

// Export measures wall-clock duration and payload size of telemetry sends.
type Export struct {
	mu          sync.Mutex
	durations   []float64 // ms
	failures    int
	bytes       int
	bookkeeping time.Duration
	started     bool
}

func NewExport() *Export {
	return &Export{}
}

func (e *Export) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.durations = nil
	e.failures = 0
	e.bytes = 0
	e.bookkeeping = 0
	e.started = true
}

// Intercept wraps next so every call is timed and recorded. The returned
// function is what gets injected into the system under test; the caller is
// responsible for restoring next on cleanup (see target.ExportHooked).
func (e *Export) Intercept(next SendFunc) SendFunc {
	return func(ctx context.Context, payloadBytes int) error {
		start := time.Now()
		err := next(ctx, payloadBytes)
		elapsed := time.Since(start)

		bookStart := time.Now()
		e.Record(elapsed, payloadBytes, err)
		e.addBookkeeping(time.Since(bookStart))
		return err
	}
}

// Record adds one send observation directly.
func (e *Export) Record(d time.Duration, payloadBytes int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return
	}
	e.durations = append(e.durations, float64(d)/float64(time.Millisecond))
	e.bytes += payloadBytes
	if err != nil {
		e.failures++
	}
}

func (e *Export) addBookkeeping(d time.Duration) {
	e.mu.Lock()
	e.bookkeeping += d
	e.mu.Unlock()
}

// Stop returns the snapshot and marks the interceptor stopped. With no
// calls recorded it returns zero values.
func (e *Export) Stop() ExportSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = false

	if len(e.durations) == 0 {
		return ExportSnapshot{}
	}

	sorted := make([]float64, len(e.durations))
	copy(sorted, e.durations)
	sort.Float64s(sorted)

	var total float64
	for _, d := range sorted {
		total += d
	}

	return ExportSnapshot{
		Calls:         len(sorted),
		Failures:      e.failures,
		PayloadBytes:  e.bytes,
		P50Ms:         nearestRank(sorted, 0.50),
		P95Ms:         nearestRank(sorted, 0.95),
		P99Ms:         nearestRank(sorted, 0.99),
		TotalMs:       total,
		InterceptorMs: float64(e.bookkeeping) / float64(time.Millisecond),
	}
}

func (e *Export) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.durations = nil
	e.failures = 0
	e.bytes = 0
	e.bookkeeping = 0
	e.started = false
}

// nearestRank picks index clamp(floor(p*n), 0, n-1) from an ascending slice.
// Simple nearest-rank estimator, not interpolated; kept for compatibility
// with historical benchmark output.
func nearestRank(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
