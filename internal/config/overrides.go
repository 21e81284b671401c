package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// overrideTable is the static field→setter routing for --set flags. Every
// overridable key is an explicit row; nothing is resolved by probing struct
// fields at runtime.
var overrideTable = map[string]func(cfg *Config, value string) error{
	"workload.seed": func(cfg *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("workload.seed: %w", err)
		}
		cfg.Workload.Seed = n
		return nil
	},
	"workload.items": func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("workload.items: %w", err)
		}
		cfg.Workload.Items = n
		return nil
	},
	"workload.size_mode": func(cfg *Config, v string) error {
		cfg.Workload.SizeMode = v
		return nil
	},
	"run.mode": func(cfg *Config, v string) error {
		cfg.Run.Mode = v
		return nil
	},
	"run.concurrency": func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("run.concurrency: %w", err)
		}
		cfg.Run.Concurrency = n
		return nil
	},
	"run.item_timeout_s": func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("run.item_timeout_s: %w", err)
		}
		cfg.Run.ItemTimeout = n
		return nil
	},
	"isolation.backend": func(cfg *Config, v string) error {
		cfg.Isolation.Backend = v
		return nil
	},
	"isolation.image": func(cfg *Config, v string) error {
		cfg.Isolation.Image = v
		return nil
	},
	"results.dir": func(cfg *Config, v string) error {
		cfg.Results.Dir = v
		return nil
	},
}

// ApplyOverrides applies key=value pairs through the static table, then
// re-validates. Unknown keys are errors listing the valid set.
func ApplyOverrides(cfg *Config, pairs []string) error {
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("override %q: expected key=value", pair)
		}
		set, known := overrideTable[key]
		if !known {
			return fmt.Errorf("override %q: unknown key (valid: %s)",
				key, strings.Join(OverrideKeys(), ", "))
		}
		if err := set(cfg, value); err != nil {
			return fmt.Errorf("override %q: %w", pair, err)
		}
	}
	if len(pairs) > 0 {
		if err := validate(cfg); err != nil {
			return fmt.Errorf("after overrides: %w", err)
		}
	}
	return nil
}

// OverrideKeys lists the overridable keys in sorted order.
func OverrideKeys() []string {
	keys := make([]string, 0, len(overrideTable))
	for k := range overrideTable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
