// Package collector holds the four runtime instrumentation collectors:
// memory sampler, export interceptor, trace validator, and CPU estimator.
// Each is independently lifecycled (Start / record / Stop), safe for
// concurrent recording behind a single mutex, and returns a zero-valued
// snapshot when stopped with nothing recorded. Probe failures are absorbed:
// measurement must never crash the workload under test.
package collector

import (
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// RuntimeSample is one point-in-time memory measurement tagged with a
// caller-supplied label such as "pre_operation_7".
type RuntimeSample struct {
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
	MemoryMB  float64   `json:"memory_mb"`
}

// MemorySnapshot summarizes one run's memory samples. Overhead downstream is
// computed against AverageMB rather than PeakMB: transient spikes are not
// representative of sustained instrumentation cost.
type MemorySnapshot struct {
	BaselineMB float64 `json:"baseline_mb"`
	PeakMB     float64 `json:"peak_mb"`
	AverageMB  float64 `json:"average_mb"`
	Samples    int     `json:"samples"`
}

// Memory records resident-set size at caller-chosen checkpoints.
type Memory struct {
	mu      sync.Mutex
	proc    *process.Process
	samples []RuntimeSample
	started bool
}

func NewMemory() *Memory {
	return &Memory{}
}

// Start resets the sampler and records the baseline sample.
func (m *Memory) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = nil
	m.proc, _ = process.NewProcess(int32(os.Getpid()))
	m.started = true
	m.sampleLocked("baseline")
}

// Sample records the current RSS under the given label. Safe to call from
// multiple worker goroutines. A no-op before Start.
func (m *Memory) Sample(label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	m.sampleLocked(label)
}

func (m *Memory) sampleLocked(label string) {
	m.samples = append(m.samples, RuntimeSample{
		Label:     label,
		Timestamp: time.Now().UTC(),
		MemoryMB:  m.rssMB(),
	})
}

// rssMB reads the process resident set in MB. Returns 0 if the process is
// no longer queryable; a zero sample is data, not an error.
func (m *Memory) rssMB() float64 {
	if m.proc == nil {
		return 0
	}
	info, err := m.proc.MemoryInfo()
	if err != nil || info == nil {
		return 0
	}
	return float64(info.RSS) / (1024 * 1024)
}

// Stop returns the snapshot and the ordered sample sequence, then marks the
// sampler stopped. With no samples recorded it returns zero values.
func (m *Memory) Stop() (MemorySnapshot, []RuntimeSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false

	if len(m.samples) == 0 {
		return MemorySnapshot{}, nil
	}

	snap := MemorySnapshot{
		BaselineMB: m.samples[0].MemoryMB,
		Samples:    len(m.samples),
	}
	var sum float64
	for _, s := range m.samples {
		sum += s.MemoryMB
		if s.MemoryMB > snap.PeakMB {
			snap.PeakMB = s.MemoryMB
		}
	}
	snap.AverageMB = sum / float64(len(m.samples))

	samples := make([]RuntimeSample, len(m.samples))
	copy(samples, m.samples)
	return snap, samples
}

// Reset discards all state so the sampler can be reused for a fresh run.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = nil
	m.proc = nil
	m.started = false
}
