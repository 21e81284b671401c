package collector

import "sync"

// SpanRecord is an engine-neutral view of one completed span. Targets
// translate their native telemetry (e.g. OTel ReadOnlySpan) into this form
// before handing it to the validator and the CPU estimator.
type SpanRecord struct {
	TraceID     string            `json:"trace_id"`
	SpanID      string            `json:"span_id"`
	ParentID    string            `json:"parent_id,omitempty"`
	Name        string            `json:"name"`
	OperationID string            `json:"operation_id"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Root reports whether the record is a trace root.
func (r SpanRecord) Root() bool {
	return r.ParentID == ""
}

// TraceSnapshot summarizes trace data quality for one cohort run.
// CoveragePct is the share of expected operations whose root span arrived;
// CompletenessPct is the share of spans carrying every required attribute;
// DroppedPct is the share of expected operations that produced no span at
// all.
// LinkedPct is the share of spans that carry an operation ID tying them
// back to a request.
type TraceSnapshot struct {
	ExpectedOps     int     `json:"expected_ops"`
	SpanCount       int     `json:"span_count"`
	RootCount       int     `json:"root_count"`
	CoveragePct     float64 `json:"coverage_pct"`
	CompletenessPct float64 `json:"completeness_pct"`
	DroppedPct      float64 `json:"dropped_pct"`
	LinkedPct       float64 `json:"linked_pct"`
}

// TraceValidator checks completed span records against a required attribute
// set and tracks which expected operations actually produced traces.
type TraceValidator struct {
	mu       sync.Mutex
	required []string
	expected map[string]bool
	rooted   map[string]bool
	seen     map[string]bool
	spans    int
	complete int
	linked   int
	started  bool
}

// NewTraceValidator builds a validator for the given required attribute
// keys. A nil or empty set means every span counts as complete.
func NewTraceValidator(requiredAttrs []string) *TraceValidator {
	return &TraceValidator{required: requiredAttrs}
}

func (v *TraceValidator) Start() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expected = make(map[string]bool)
	v.rooted = make(map[string]bool)
	v.seen = make(map[string]bool)
	v.spans = 0
	v.complete = 0
	v.linked = 0
	v.started = true
}

// ExpectOperation registers an operation ID the run is about to execute, so
// coverage can be computed against what should have been traced.
func (v *TraceValidator) ExpectOperation(opID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.started {
		return
	}
	v.expected[opID] = true
}

// RecordSpan ingests one completed span record.
func (v *TraceValidator) RecordSpan(rec SpanRecord) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.started {
		return
	}
	v.spans++
	if rec.OperationID != "" {
		v.linked++
		v.seen[rec.OperationID] = true
		if rec.Root() {
			v.rooted[rec.OperationID] = true
		}
	}
	if v.hasRequired(rec) {
		v.complete++
	}
}

func (v *TraceValidator) hasRequired(rec SpanRecord) bool {
	for _, key := range v.required {
		if _, ok := rec.Attributes[key]; !ok {
			return false
		}
	}
	return true
}

// Stop computes the snapshot. With nothing expected and nothing recorded it
// returns zero values.
func (v *TraceValidator) Stop() TraceSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.started = false

	snap := TraceSnapshot{
		ExpectedOps: len(v.expected),
		SpanCount:   v.spans,
		RootCount:   len(v.rooted),
	}
	if v.spans > 0 {
		snap.CompletenessPct = float64(v.complete) / float64(v.spans) * 100
		snap.LinkedPct = float64(v.linked) / float64(v.spans) * 100
	}
	if len(v.expected) > 0 {
		snap.CoveragePct = float64(len(v.rooted)) / float64(len(v.expected)) * 100
		missing := 0
		for op := range v.expected {
			if !v.seen[op] {
				missing++
			}
		}
		snap.DroppedPct = float64(missing) / float64(len(v.expected)) * 100
	}
	return snap
}

func (v *TraceValidator) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expected = nil
	v.rooted = nil
	v.seen = nil
	v.spans = 0
	v.complete = 0
	v.linked = 0
	v.started = false
}
