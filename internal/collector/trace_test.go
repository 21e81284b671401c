package collector

import (
	"fmt"
	"testing"
)

func span(op, parent string, attrs map[string]string) SpanRecord {
	return SpanRecord{
		TraceID:     "trace-" + op,
		SpanID:      "span-" + op,
		ParentID:    parent,
		Name:        "execute",
		OperationID: op,
		Attributes:  attrs,
	}
}

func TestTraceValidatorFullCoverage(t *testing.T) {
	v := NewTraceValidator([]string{"service.name", "operation.id"})
	v.Start()

	attrs := map[string]string{"service.name": "bench", "operation.id": "x"}
	for i := 0; i < 10; i++ {
		op := fmt.Sprintf("op-%d", i)
		v.ExpectOperation(op)
		v.RecordSpan(span(op, "", attrs))
	}

	snap := v.Stop()
	if snap.CoveragePct != 100 {
		t.Errorf("coverage: got %f, want 100", snap.CoveragePct)
	}
	if snap.CompletenessPct != 100 {
		t.Errorf("completeness: got %f, want 100", snap.CompletenessPct)
	}
	if snap.DroppedPct != 0 {
		t.Errorf("dropped: got %f, want 0", snap.DroppedPct)
	}
}

func TestTraceValidatorDroppedRate(t *testing.T) {
	v := NewTraceValidator(nil)
	v.Start()

	// 100 operations, spans arrive for 95: dropped rate is 5%.
	for i := 0; i < 100; i++ {
		op := fmt.Sprintf("op-%d", i)
		v.ExpectOperation(op)
		if i < 95 {
			v.RecordSpan(span(op, "", nil))
		}
	}

	snap := v.Stop()
	if snap.DroppedPct != 5.0 {
		t.Errorf("dropped: got %f, want 5.0", snap.DroppedPct)
	}
	if snap.CoveragePct != 95.0 {
		t.Errorf("coverage: got %f, want 95.0", snap.CoveragePct)
	}
}

func TestTraceValidatorIncompleteAttributes(t *testing.T) {
	v := NewTraceValidator([]string{"service.name"})
	v.Start()
	v.ExpectOperation("a")
	v.RecordSpan(span("a", "", map[string]string{"service.name": "bench"}))
	v.ExpectOperation("b")
	v.RecordSpan(span("b", "", map[string]string{"other": "x"}))

	snap := v.Stop()
	if snap.CompletenessPct != 50 {
		t.Errorf("completeness: got %f, want 50", snap.CompletenessPct)
	}
}

func TestTraceValidatorChildSpansNotRoots(t *testing.T) {
	v := NewTraceValidator(nil)
	v.Start()
	v.ExpectOperation("a")
	// Only a child span arrives: operation is seen (not dropped) but has no
	// root, so coverage is 0.
	v.RecordSpan(span("a", "parent-span", nil))

	snap := v.Stop()
	if snap.CoveragePct != 0 {
		t.Errorf("coverage: got %f, want 0", snap.CoveragePct)
	}
	if snap.DroppedPct != 0 {
		t.Errorf("dropped: got %f, want 0", snap.DroppedPct)
	}
}

func TestTraceValidatorLinkedRate(t *testing.T) {
	v := NewTraceValidator(nil)
	v.Start()
	v.ExpectOperation("a")
	v.RecordSpan(span("a", "", nil))
	// An orphan span with no operation ID cannot be tied to any request.
	v.RecordSpan(SpanRecord{TraceID: "t", SpanID: "s", Name: "orphan"})

	snap := v.Stop()
	if snap.LinkedPct != 50 {
		t.Errorf("linked: got %f, want 50", snap.LinkedPct)
	}
}

func TestTraceValidatorStopEmpty(t *testing.T) {
	v := NewTraceValidator([]string{"k"})
	v.Start()
	if snap := v.Stop(); snap != (TraceSnapshot{}) {
		t.Errorf("empty stop: got %+v, want zero snapshot", snap)
	}
}

func TestCPUEstimator(t *testing.T) {
	c := NewCPU()
	c.Start()
	for i := 0; i < 100; i++ {
		c.RecordSpan(8)
	}
	snap := c.Stop()
	if snap.Spans != 100 {
		t.Errorf("spans: got %d, want 100", snap.Spans)
	}
	wantUs := spanBaseUs + perAttrUs*8
	if snap.PerSpanAvgUs != wantUs {
		t.Errorf("per-span: got %f, want %f", snap.PerSpanAvgUs, wantUs)
	}
	if snap.AvgAttributes != 8 {
		t.Errorf("avg attrs: got %f, want 8", snap.AvgAttributes)
	}
}

func TestCPUEstimatorEmpty(t *testing.T) {
	c := NewCPU()
	c.Start()
	if snap := c.Stop(); snap != (CPUSnapshot{}) {
		t.Errorf("empty stop: got %+v, want zero snapshot", snap)
	}
}

func TestCPUEstimatorNegativeAttrCount(t *testing.T) {
	c := NewCPU()
	c.Start()
	c.RecordSpan(-3)
	snap := c.Stop()
	if snap.PerSpanAvgUs != spanBaseUs {
		t.Errorf("per-span: got %f, want base cost %f", snap.PerSpanAvgUs, spanBaseUs)
	}
}

func TestSetLifecycle(t *testing.T) {
	s := NewSet([]string{"service.name"})
	s.StartAll()
	s.Memory.Sample("checkpoint")
	s.CPU.RecordSpan(4)

	snaps, samples := s.StopAll()
	if snaps.Memory.Samples != 2 {
		t.Errorf("memory samples: got %d, want 2", snaps.Memory.Samples)
	}
	if len(samples) != 2 {
		t.Errorf("sample list: got %d, want 2", len(samples))
	}
	if snaps.CPU.Spans != 1 {
		t.Errorf("cpu spans: got %d, want 1", snaps.CPU.Spans)
	}

	s.ResetAll()
	snaps, _ = s.StopAll()
	if snaps.CPU.Spans != 0 {
		t.Errorf("after reset: got %d cpu spans, want 0", snaps.CPU.Spans)
	}
}
