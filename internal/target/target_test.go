package target

import (
	"context"
	"sync"
	"testing"

	"github.com/signalnine/tracebench/internal/collector"
	"github.com/signalnine/tracebench/internal/workload"
)

func TestNewUnknownKind(t *testing.T) {
	if _, err := New(Config{Kind: "mystery"}); err == nil {
		t.Error("expected error for unknown target kind")
	}
}

func TestSleepTargetExecute(t *testing.T) {
	exec, err := New(Config{Kind: "sleep", BaseLatencyUs: 10})
	if err != nil {
		t.Fatal(err)
	}
	item := workload.Generate(1, 0, workload.SizeSmall)
	out, err := exec.Execute(context.Background(), item, "op-0")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.BytesIn != len(item.Payload) {
		t.Errorf("bytes in: got %d, want %d", out.BytesIn, len(item.Payload))
	}
}

func TestSleepTargetFailEvery(t *testing.T) {
	exec, _ := New(Config{Kind: "sleep", FailEvery: 2})
	items := workload.GenerateBatch(1, 4, workload.SizeSmall, 0)
	failures := 0
	for _, item := range items {
		if _, err := exec.Execute(context.Background(), item, "op"); err != nil {
			failures++
		}
	}
	if failures != 2 {
		t.Errorf("failures: got %d, want 2 of 4 with fail_every=2", failures)
	}
}

func TestItemJitterStable(t *testing.T) {
	for i := 0; i < 20; i++ {
		a := itemJitterUs(i, 500)
		b := itemJitterUs(i, 500)
		if a != b {
			t.Fatalf("item %d: jitter not stable: %d vs %d", i, a, b)
		}
		if a < 0 || a >= 500 {
			t.Fatalf("item %d: jitter %d outside [0, 500)", i, a)
		}
	}
	if itemJitterUs(1, 0) != 0 {
		t.Error("zero jitter budget must yield zero jitter")
	}
}

func TestOTelTracedProducesSpans(t *testing.T) {
	exec, err := New(Config{Kind: "otel", Traced: true, SpinFactor: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Close(context.Background())

	var mu sync.Mutex
	var records []collector.SpanRecord
	exec.(SpanHooked).OnSpanEnd(func(rec collector.SpanRecord) {
		mu.Lock()
		records = append(records, rec)
		mu.Unlock()
	})

	items := workload.GenerateBatch(5, 3, workload.SizeSmall, 0)
	for _, item := range items {
		opID := "op-" + item.ScenarioTag
		if _, err := exec.Execute(context.Background(), item, opID); err != nil {
			t.Fatalf("execute: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(records) != 3 {
		t.Fatalf("span records: got %d, want 3", len(records))
	}
	for _, rec := range records {
		if !rec.Root() {
			t.Errorf("span %s is not a root", rec.SpanID)
		}
		if rec.OperationID == "" {
			t.Error("span missing operation.id attribute")
		}
		if rec.Attributes["service.name"] != "tracebench-target" {
			t.Errorf("service.name: got %q", rec.Attributes["service.name"])
		}
	}
}

func TestOTelUntracedProducesNoSpans(t *testing.T) {
	exec, err := New(Config{Kind: "otel", Traced: false, SpinFactor: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Close(context.Background())

	seen := 0
	exec.(SpanHooked).OnSpanEnd(func(collector.SpanRecord) { seen++ })

	item := workload.Generate(5, 0, workload.SizeSmall)
	if _, err := exec.Execute(context.Background(), item, "op-0"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if seen != 0 {
		t.Errorf("untraced run produced %d spans, want 0", seen)
	}
}

func TestOTelExportWrapIdempotent(t *testing.T) {
	exec, err := New(Config{Kind: "otel", Traced: true, SpinFactor: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Close(context.Background())
	hooked := exec.(ExportHooked)

	wraps := 0
	wrap := func(next collector.SendFunc) collector.SendFunc {
		wraps++
		return func(ctx context.Context, payloadBytes int) error {
			return next(ctx, payloadBytes)
		}
	}
	hooked.WrapExport(wrap)
	hooked.WrapExport(wrap) // second wrap must be ignored
	if wraps != 1 {
		t.Errorf("wrap count: got %d, want 1", wraps)
	}

	hooked.UnwrapExport()
	hooked.WrapExport(wrap)
	if wraps != 2 {
		t.Errorf("wrap count after unwrap: got %d, want 2", wraps)
	}
}

func TestOTelExportInterception(t *testing.T) {
	exec, err := New(Config{Kind: "otel", Traced: true, SpinFactor: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Close(context.Background())

	e := collector.NewExport()
	e.Start()
	exec.(ExportHooked).WrapExport(e.Intercept)

	items := workload.GenerateBatch(9, 5, workload.SizeSmall, 0)
	for _, item := range items {
		if _, err := exec.Execute(context.Background(), item, "op"); err != nil {
			t.Fatalf("execute: %v", err)
		}
	}

	snap := e.Stop()
	if snap.Calls != 5 {
		t.Errorf("intercepted sends: got %d, want 5 (syncer exports per span)", snap.Calls)
	}
	if snap.PayloadBytes <= 0 {
		t.Error("payload estimate should be positive")
	}
}

func TestOTelWorkIdenticalAcrossConditions(t *testing.T) {
	item := workload.Generate(3, 7, workload.SizeMedium)

	traced, _ := New(Config{Kind: "otel", Traced: true, SpinFactor: 1})
	defer traced.Close(context.Background())
	untraced, _ := New(Config{Kind: "otel", Traced: false, SpinFactor: 1})

	a, err1 := traced.Execute(context.Background(), item, "op")
	b, err2 := untraced.Execute(context.Background(), item, "op")
	if err1 != nil || err2 != nil {
		t.Fatalf("execute errors: %v, %v", err1, err2)
	}
	if a != b {
		t.Errorf("outcomes differ across conditions: %+v vs %+v", a, b)
	}
}
