package isolation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// CohortCommand is the hidden subcommand the spawned process runs.
const CohortCommand = "cohort"

var (
	exeOnce sync.Once
	exePath string
	exeErr  error
)

// executable resolves the current binary path once per process.
func executable() (string, error) {
	exeOnce.Do(func() {
		exePath, exeErr = os.Executable()
	})
	if exeErr != nil {
		return "", fmt.Errorf("resolving executable: %w", exeErr)
	}
	return exePath, nil
}

// Spawn re-executes the current binary as a cohort worker: request JSON on
// stdin, response JSON on stdout. The child's stderr carries its structured
// log and is attached to the Response rather than discarded, so a noisy
// target can never corrupt the measurement stream on stdout.
func Spawn(ctx context.Context, req Request) (*Response, error) {
	exe, err := executable()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding cohort request: %w", err)
	}

	cmd := exec.CommandContext(ctx, exe, CohortCommand)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("cohort %s process: %w; log tail: %s",
			req.Cohort, err, logTail(stderr.String(), 512))
	}

	resp, err := DecodeResponse(stdout.Bytes(), req.Cohort)
	if err != nil {
		return nil, fmt.Errorf("cohort %s: %w; log tail: %s",
			req.Cohort, err, logTail(stderr.String(), 512))
	}
	resp.Log = stderr.String()
	return resp, nil
}

func logTail(log string, n int) string {
	log = strings.TrimSpace(log)
	if log == "" {
		return "<empty>"
	}
	if len(log) <= n {
		return log
	}
	return "..." + log[len(log)-n:]
}
