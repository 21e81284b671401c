package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/signalnine/tracebench/internal/isolation"
	"github.com/signalnine/tracebench/internal/runner"
	"github.com/spf13/cobra"
)

var (
	flagCohortInput  string
	flagCohortOutput string
)

// newCohortCmd is the hidden worker entry point the isolation backends
// re-execute. Request JSON arrives on stdin (or --input under the container
// backend), the response leaves on stdout (or --output). Stdout carries
// nothing else; the worker's log goes to stderr as JSON for the parent to
// capture.
func newCohortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    isolation.CohortCommand,
		Short:  "Run one cohort as an isolated worker (internal)",
		Hidden: true,
		RunE:   runCohortWorker,
	}
	cmd.Flags().StringVar(&flagCohortInput, "input", "", "read request JSON from a file instead of stdin")
	cmd.Flags().StringVar(&flagCohortOutput, "output", "", "write response JSON to a file instead of stdout")
	return cmd
}

func runCohortWorker(cmd *cobra.Command, args []string) error {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		data []byte
		err  error
	)
	if flagCohortInput != "" {
		data, err = os.ReadFile(flagCohortInput)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("reading cohort request: %w", err)
	}

	var req isolation.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decoding cohort request: %w", err)
	}
	log.Info("cohort start",
		"cohort", req.Cohort,
		"target", req.Target.Name,
		"traced", req.Target.Traced,
		"items", req.Workload.Count)

	resp, err := runner.ExecuteCohort(ctx, req)
	if err != nil {
		return err
	}
	log.Info("cohort done",
		"cohort", resp.Cohort,
		"results", len(resp.Results),
		"wall_ms", resp.WallMs)

	out, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding cohort response: %w", err)
	}
	if flagCohortOutput != "" {
		return os.WriteFile(flagCohortOutput, out, 0o644)
	}
	_, err = os.Stdout.Write(out)
	return err
}
