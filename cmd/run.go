package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/signalnine/tracebench/internal/config"
	"github.com/signalnine/tracebench/internal/report"
	"github.com/signalnine/tracebench/internal/runner"
	"github.com/spf13/cobra"
)

var (
	flagTarget string
	flagSet    []string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a traced-vs-untraced comparison for each target",
		RunE:  runSuite,
	}
	cmd.Flags().StringVar(&flagTarget, "target", "", "filter to a single target")
	cmd.Flags().StringArrayVar(&flagSet, "set", nil, "config override key=value (repeatable)")
	return cmd
}

func runSuite(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := config.ApplyOverrides(cfg, flagSet); err != nil {
		return err
	}
	log := newLogger()

	runDir, err := report.CreateRunDir(cfg.Results.Dir)
	if err != nil {
		return err
	}
	fmt.Printf("Run directory: %s\n", runDir)

	reports, err := runner.RunAll(context.Background(), cfg, runDir, flagTarget, log)
	if err != nil {
		return err
	}

	fmt.Println("\n--- Results ---")
	if err := report.Generate(runDir, "table", os.Stdout); err != nil {
		return err
	}

	if n := failedCount(reports); n > 0 {
		log.Warn("comparisons failed", "count", n, "total", len(reports))
	}
	return nil
}

func failedCount(reports []*report.Report) int {
	n := 0
	for _, r := range reports {
		if r.Failed {
			n++
		}
	}
	return n
}
