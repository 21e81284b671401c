package target

import (
	"context"
	"fmt"
	"time"

	"github.com/signalnine/tracebench/internal/workload"
)

// sleepTarget is a synthetic executor with no instrumentation at all. It
// exists for tests and for demo runs that don't need the OTel SDK.
type sleepTarget struct {
	cfg Config
}

func newSleep(cfg Config) (Executor, error) {
	return &sleepTarget{cfg: cfg}, nil
}

func (t *sleepTarget) Execute(ctx context.Context, item workload.Item, opID string) (Outcome, error) {
	delayUs := t.cfg.BaseLatencyUs + itemJitterUs(item.ID, t.cfg.JitterUs)
	if delayUs > 0 {
		select {
		case <-time.After(time.Duration(delayUs) * time.Microsecond):
		case <-ctx.Done():
			return Outcome{BytesIn: len(item.Payload)}, ctx.Err()
		}
	}
	if t.cfg.FailEvery > 0 && (item.ID+1)%t.cfg.FailEvery == 0 {
		return Outcome{BytesIn: len(item.Payload)},
			fmt.Errorf("simulated failure on item %d", item.ID)
	}
	return Outcome{BytesIn: len(item.Payload), BytesOut: 8}, nil
}

func (t *sleepTarget) Close(ctx context.Context) error { return nil }
