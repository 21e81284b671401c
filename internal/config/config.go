// Package config loads and validates the benchmark suite configuration.
// The loaded Config is immutable by convention: it is passed by value into
// each spawned cohort process, so no global registry or shared singleton
// exists to contaminate measurements across cohorts.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/signalnine/tracebench/internal/scoring"
	"github.com/signalnine/tracebench/internal/target"
	"github.com/signalnine/tracebench/internal/workload"
)

type Config struct {
	Targets            []target.Config `yaml:"targets"`
	Workload           Workload        `yaml:"workload"`
	Run                Run             `yaml:"run"`
	Isolation          Isolation       `yaml:"isolation"`
	Results            Results         `yaml:"results"`
	Weights            scoring.Weights `yaml:"weights"`
	RequiredAttributes []string        `yaml:"required_attributes"`
}

type Workload struct {
	Seed     int64  `yaml:"seed"`
	Items    int    `yaml:"items"`
	SizeMode string `yaml:"size_mode"`
}

type Run struct {
	Mode        string `yaml:"mode"`
	Concurrency int    `yaml:"concurrency"`
	ItemTimeout int    `yaml:"item_timeout_s"`
}

type Isolation struct {
	Backend string `yaml:"backend"`
	Image   string `yaml:"image"`
}

type Results struct {
	Dir string `yaml:"dir"`
}

// Spec converts the workload section to the generator's spec form.
func (w Workload) Spec() workload.Spec {
	return workload.Spec{
		Seed:     w.Seed,
		Count:    w.Items,
		SizeMode: workload.SizeMode(w.SizeMode),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

var sizeModes = map[string]bool{
	string(workload.SizeSmall):  true,
	string(workload.SizeMedium): true,
	string(workload.SizeLarge):  true,
	string(workload.SizeMixed):  true,
}

var isolationBackends = map[string]bool{
	"process":   true,
	"container": true,
	"none":      true,
}

func validate(cfg *Config) error {
	if len(cfg.Targets) == 0 {
		return fmt.Errorf("no targets defined")
	}
	for i, t := range cfg.Targets {
		if t.Name == "" {
			return fmt.Errorf("target %d: name is required", i)
		}
		if t.Kind == "" {
			return fmt.Errorf("target %q: kind is required", t.Name)
		}
	}

	if cfg.Workload.Items < 1 {
		return fmt.Errorf("workload.items must be at least 1")
	}
	if cfg.Workload.SizeMode == "" {
		cfg.Workload.SizeMode = string(workload.SizeMixed)
	}
	if !sizeModes[cfg.Workload.SizeMode] {
		return fmt.Errorf("workload.size_mode %q: must be small, medium, large, or mixed",
			cfg.Workload.SizeMode)
	}

	if cfg.Run.Mode == "" {
		cfg.Run.Mode = "sequential"
	}
	if cfg.Run.Mode != "sequential" && cfg.Run.Mode != "concurrent" {
		return fmt.Errorf("run.mode %q: must be sequential or concurrent", cfg.Run.Mode)
	}
	if cfg.Run.Mode == "concurrent" && cfg.Run.Concurrency < 1 {
		cfg.Run.Concurrency = 4
	}
	if cfg.Run.ItemTimeout < 1 {
		cfg.Run.ItemTimeout = 30
	}

	if cfg.Isolation.Backend == "" {
		cfg.Isolation.Backend = "process"
	}
	if !isolationBackends[cfg.Isolation.Backend] {
		return fmt.Errorf("isolation.backend %q: must be process, container, or none",
			cfg.Isolation.Backend)
	}
	if cfg.Isolation.Backend == "container" && cfg.Isolation.Image == "" {
		return fmt.Errorf("isolation.image is required for the container backend")
	}

	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "results"
	}
	return nil
}
