// Package isolation runs cohorts in fresh OS processes so one cohort's
// allocations and timing never pollute another's baseline. The parent
// communicates with the child only through serialized messages: a Request
// in, a Response out. Nothing mutable is shared across the boundary.
package isolation

import (
	"encoding/json"
	"fmt"

	"github.com/signalnine/tracebench/internal/collector"
	"github.com/signalnine/tracebench/internal/metrics"
	"github.com/signalnine/tracebench/internal/result"
	"github.com/signalnine/tracebench/internal/target"
	"github.com/signalnine/tracebench/internal/workload"
)

// Request tells a cohort process what to run. It carries everything the
// child needs: there is no shared configuration registry to consult.
type Request struct {
	Cohort             result.Cohort `json:"cohort"`
	Target             target.Config `json:"target"`
	Workload           workload.Spec `json:"workload"`
	Mode               string        `json:"mode"`
	Concurrency        int           `json:"concurrency"`
	ItemTimeoutMs      int           `json:"item_timeout_ms"`
	RequiredAttributes []string      `json:"required_attributes,omitempty"`
}

// Response is the cohort's complete measurement output: aggregated metrics
// plus the raw per-item results and memory samples, and the child's
// captured structured log.
type Response struct {
	Cohort    result.Cohort             `json:"cohort"`
	Metrics   metrics.Aggregated        `json:"metrics"`
	Results   []result.ExecutionResult  `json:"results"`
	Samples   []collector.RuntimeSample `json:"samples"`
	Snapshots collector.Snapshots       `json:"snapshots"`
	WallMs    float64                   `json:"wall_ms"`
	Log       string                    `json:"-"`
}

// DecodeResponse parses a child's stdout and checks it answers the cohort
// that was asked for.
func DecodeResponse(data []byte, want result.Cohort) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding cohort response: %w", err)
	}
	if resp.Cohort != want {
		return nil, fmt.Errorf("cohort response mismatch: got %q, want %q", resp.Cohort, want)
	}
	return &resp, nil
}
