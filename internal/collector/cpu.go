package collector

import "sync"

// Per-span CPU cost coefficients in microseconds. True CPU-only timing
// needs OS-level instrumentation the engine cannot assume, so the estimate
// is a deliberately conservative function of span complexity: a fixed cost
// for span lifecycle plus a per-attribute cost for allocation and encoding.
const (
	spanBaseUs = 2.0
	perAttrUs  = 0.5
)

// CPUSnapshot summarizes estimated CPU-only instrumentation cost,
// excluding network wait.
type CPUSnapshot struct {
	Spans         int     `json:"spans"`
	Attributes    int     `json:"attributes"`
	EstimatedMs   float64 `json:"estimated_ms"`
	PerSpanAvgUs  float64 `json:"per_span_avg_us"`
	AvgAttributes float64 `json:"avg_attributes"`
}

// CPU estimates per-span processing cost from span completion events.
type CPU struct {
	mu      sync.Mutex
	spans   int
	attrs   int
	totalUs float64
	started bool
}

func NewCPU() *CPU {
	return &CPU{}
}

func (c *CPU) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spans = 0
	c.attrs = 0
	c.totalUs = 0
	c.started = true
}

// RecordSpan adds one completed span with the given attribute count.
func (c *CPU) RecordSpan(attrCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	if attrCount < 0 {
		attrCount = 0
	}
	c.spans++
	c.attrs += attrCount
	c.totalUs += spanBaseUs + perAttrUs*float64(attrCount)
}

// Stop returns the snapshot. Zero values when no spans were recorded.
func (c *CPU) Stop() CPUSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false

	if c.spans == 0 {
		return CPUSnapshot{}
	}
	return CPUSnapshot{
		Spans:         c.spans,
		Attributes:    c.attrs,
		EstimatedMs:   c.totalUs / 1000,
		PerSpanAvgUs:  c.totalUs / float64(c.spans),
		AvgAttributes: float64(c.attrs) / float64(c.spans),
	}
}

func (c *CPU) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spans = 0
	c.attrs = 0
	c.totalUs = 0
	c.started = false
}
