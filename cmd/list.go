package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/signalnine/tracebench/internal/config"
	"github.com/signalnine/tracebench/internal/target"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured targets and registered target kinds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Println("Targets:")
			for _, t := range cfg.Targets {
				fmt.Printf("  - %s (kind: %s, base latency: %dus)\n",
					t.Name, t.Kind, t.BaseLatencyUs)
			}

			kinds := target.Kinds()
			sort.Strings(kinds)
			fmt.Printf("\nRegistered kinds: %s\n", strings.Join(kinds, ", "))
			fmt.Printf("Override keys: %s\n", strings.Join(config.OverrideKeys(), ", "))
			return nil
		},
	}
}
