package cmd

import (
	"fmt"

	"github.com/signalnine/tracebench/internal/config"
	"github.com/signalnine/tracebench/internal/target"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the config file and report the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := config.ApplyOverrides(cfg, flagSet); err != nil {
				return err
			}
			// Every target kind must be constructible before a run burns
			// minutes on a half-valid roster.
			for _, tc := range cfg.Targets {
				exec, err := target.New(tc)
				if err != nil {
					return fmt.Errorf("target %q: %w", tc.Name, err)
				}
				exec.Close(cmd.Context())
			}

			fmt.Printf("Config OK: %d targets, %d items (%s, seed %d), %s mode, %s isolation\n",
				len(cfg.Targets), cfg.Workload.Items, cfg.Workload.SizeMode,
				cfg.Workload.Seed, cfg.Run.Mode, cfg.Isolation.Backend)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&flagSet, "set", nil, "config override key=value (repeatable)")
	return cmd
}
