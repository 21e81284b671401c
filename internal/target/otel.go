package target

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalnine/tracebench/internal/collector"
	"github.com/signalnine/tracebench/internal/workload"
)

// otelTarget executes deterministic simulated work inside real OpenTelemetry
// SDK spans. It is its own span exporter (wired with a syncer, so every span
// end exports immediately), which is where both hooks attach: the send hook
// is the export path the collectors may wrap, and completed spans are
// translated to SpanRecords for the span-end subscribers.
//
// In the untraced condition no tracer provider exists at all; Execute runs
// the bare work function.
type otelTarget struct {
	cfg    Config
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer

	mu       sync.Mutex
	send     collector.SendFunc
	baseSend collector.SendFunc
	wrapped  bool
	onSpan   []func(collector.SpanRecord)
}

func newOTel(cfg Config) (Executor, error) {
	t := &otelTarget{cfg: cfg}
	// Default sink swallows the batch; payload size is still computed so a
	// wrapping interceptor sees realistic byte counts.
	t.baseSend = func(ctx context.Context, payloadBytes int) error { return nil }
	t.send = t.baseSend

	if cfg.Traced {
		res := resource.NewSchemaless(
			attribute.String("service.name", "tracebench-target"),
		)
		t.tp = sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(t),
			sdktrace.WithResource(res),
		)
		t.tracer = t.tp.Tracer("tracebench/target")
	}
	return t, nil
}

func (t *otelTarget) Execute(ctx context.Context, item workload.Item, opID string) (Outcome, error) {
	if !t.cfg.Traced {
		return t.doWork(item)
	}

	_, span := t.tracer.Start(ctx, "target.execute",
		trace.WithAttributes(
			attribute.String("service.name", "tracebench-target"),
			attribute.String("operation.id", opID),
			attribute.String("scenario.tag", item.ScenarioTag),
			attribute.Int("item.id", item.ID),
			attribute.Int("payload.bytes", len(item.Payload)),
		))
	defer span.End()

	out, err := t.doWork(item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

// doWork burns deterministic CPU proportional to the payload and sleeps a
// stable per-item duration, so traced and untraced cohorts execute
// identical work.
func (t *otelTarget) doWork(item workload.Item) (Outcome, error) {
	digest := spinWork(item.Payload, t.cfg.SpinFactor)

	delayUs := t.cfg.BaseLatencyUs + itemJitterUs(item.ID, t.cfg.JitterUs)
	if delayUs > 0 {
		time.Sleep(time.Duration(delayUs) * time.Microsecond)
	}

	if t.cfg.FailEvery > 0 && (item.ID+1)%t.cfg.FailEvery == 0 {
		return Outcome{BytesIn: len(item.Payload)},
			fmt.Errorf("simulated failure on item %d (digest %x)", item.ID, digest&0xff)
	}
	return Outcome{BytesIn: len(item.Payload), BytesOut: 8}, nil
}

func (t *otelTarget) Close(ctx context.Context) error {
	if t.tp == nil {
		return nil
	}
	if err := t.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down tracer provider: %w", err)
	}
	return nil
}

// WrapExport swaps the send hook for wrap(original). Idempotent: a second
// wrap without an unwrap is ignored so interceptor bookkeeping is never
// double-counted.
func (t *otelTarget) WrapExport(wrap func(collector.SendFunc) collector.SendFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.wrapped {
		return
	}
	t.send = wrap(t.baseSend)
	t.wrapped = true
}

// UnwrapExport restores the original send hook.
func (t *otelTarget) UnwrapExport() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.send = t.baseSend
	t.wrapped = false
}

func (t *otelTarget) OnSpanEnd(fn func(collector.SpanRecord)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSpan = append(t.onSpan, fn)
}

// ExportSpans implements sdktrace.SpanExporter. The real send happens
// through the (possibly wrapped) hook; completed spans then fan out to the
// span-end subscribers.
func (t *otelTarget) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	t.mu.Lock()
	send := t.send
	hooks := t.onSpan
	t.mu.Unlock()

	err := send(ctx, estimatePayload(spans))

	for _, s := range spans {
		rec := toRecord(s)
		for _, fn := range hooks {
			fn(rec)
		}
	}
	return err
}

// Shutdown implements sdktrace.SpanExporter.
func (t *otelTarget) Shutdown(ctx context.Context) error { return nil }

// estimatePayload approximates the serialized batch size: fixed span
// envelope plus key/value text lengths.
func estimatePayload(spans []sdktrace.ReadOnlySpan) int {
	total := 0
	for _, s := range spans {
		total += 64
		for _, kv := range s.Attributes() {
			total += len(string(kv.Key)) + len(kv.Value.Emit())
		}
	}
	return total
}

func toRecord(s sdktrace.ReadOnlySpan) collector.SpanRecord {
	rec := collector.SpanRecord{
		TraceID:    s.SpanContext().TraceID().String(),
		SpanID:     s.SpanContext().SpanID().String(),
		Name:       s.Name(),
		Attributes: make(map[string]string, len(s.Attributes())),
	}
	if s.Parent().HasSpanID() {
		rec.ParentID = s.Parent().SpanID().String()
	}
	for _, kv := range s.Attributes() {
		rec.Attributes[string(kv.Key)] = kv.Value.Emit()
	}
	rec.OperationID = rec.Attributes["operation.id"]
	return rec
}
