// Package config handles .jurisrc.yml project-level configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jurisagi/core/internal/controller"
	"github.com/jurisagi/core/internal/synth"
)

// ProjectConfig represents the .jurisrc.yml configuration file.
type ProjectConfig struct {
	Version   int               `yaml:"version"`
	Synth     synthOverrides    `yaml:"synth"`
	Scheduler schedOverrides    `yaml:"scheduler"`
	Refusal   refusalOverrides  `yaml:"refusal"`
	Memory    memoryOverrides   `yaml:"memory"`
	Sketcher  sketcherOverrides `yaml:"sketcher"`
	Ablation  ablationOverrides `yaml:"ablation"`
}

// synthOverrides allows overriding a subset of synth.Config.
type synthOverrides struct {
	MaxDepth          *int     `yaml:"max_depth"`
	BeamWidth         *int     `yaml:"beam_width"`
	MaxIterations     *int     `yaml:"max_iterations"`
	EnableRefinement  *bool    `yaml:"enable_refinement"`
	NearMissThreshold *float64 `yaml:"near_miss_threshold"`
}

// schedOverrides allows overriding the scheduler's total budgets.
type schedOverrides struct {
	TotalTimeSeconds *float64 `yaml:"total_time_seconds"`
	TotalIterations  *int     `yaml:"total_iterations"`
}

// refusalOverrides allows overriding a subset of RefusalChecker limits.
type refusalOverrides struct {
	MaxGridSize   *int `yaml:"max_grid_size"`
	MaxTrainPairs *int `yaml:"max_train_pairs"`
	MaxTestPairs  *int `yaml:"max_test_pairs"`
}

// memoryOverrides allows overriding the memory gate's thresholds.
type memoryOverrides struct {
	MemoryThreshold *float64 `yaml:"memory_threshold"`
	AdaptThreshold  *float64 `yaml:"adapt_threshold"`
	MacroMinFreq    *int     `yaml:"macro_min_frequency"`
}

// sketcherOverrides controls whether the neural sketcher backend runs.
type sketcherOverrides struct {
	Enabled *bool `yaml:"enabled"`
}

// ablationOverrides names solve phases to skip entirely, for configs
// pinned to a specific ablation study (e.g. "does priors ranking
// actually help on this task set?").
type ablationOverrides struct {
	DisablePhases []string `yaml:"disable_phases"`
}

// LoadProjectConfig loads project configuration from .jurisrc.yml or
// .jurisrc.yaml. If explicitPath is provided (from a --config flag),
// that file is loaded instead. Returns nil, nil if no config file is
// found, so callers fall back to every component's own defaults.
func LoadProjectConfig(dir string, explicitPath string) (*ProjectConfig, error) {
	var configPath string

	if explicitPath != "" {
		configPath = explicitPath
	} else {
		ymlPath := filepath.Join(dir, ".jurisrc.yml")
		yamlPath := filepath.Join(dir, ".jurisrc.yaml")

		if _, err := os.Stat(ymlPath); err == nil {
			configPath = ymlPath
		} else if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			return nil, nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read project config %s: %w", configPath, err)
	}

	cfg := &ProjectConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse project config %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project config %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate checks that the ProjectConfig values are sane.
func (c *ProjectConfig) Validate() error {
	if c.Version != 0 && c.Version != 1 {
		return fmt.Errorf("unsupported config version %d (expected 1)", c.Version)
	}
	if c.Synth.MaxDepth != nil && *c.Synth.MaxDepth < 1 {
		return fmt.Errorf("synth.max_depth must be >= 1, got %d", *c.Synth.MaxDepth)
	}
	if c.Synth.BeamWidth != nil && *c.Synth.BeamWidth < 1 {
		return fmt.Errorf("synth.beam_width must be >= 1, got %d", *c.Synth.BeamWidth)
	}
	if c.Memory.MemoryThreshold != nil && (*c.Memory.MemoryThreshold < 0 || *c.Memory.MemoryThreshold > 1) {
		return fmt.Errorf("memory.memory_threshold must be in [0, 1], got %f", *c.Memory.MemoryThreshold)
	}
	if c.Memory.AdaptThreshold != nil && (*c.Memory.AdaptThreshold < 0 || *c.Memory.AdaptThreshold > 1) {
		return fmt.Errorf("memory.adapt_threshold must be in [0, 1], got %f", *c.Memory.AdaptThreshold)
	}
	for _, name := range c.Ablation.DisablePhases {
		if _, ok := parsePhase(name); !ok {
			return fmt.Errorf("ablation.disable_phases: unknown phase %q", name)
		}
	}
	return nil
}

// parsePhase maps a config phase name to its controller.SolvePhase.
func parsePhase(name string) (controller.SolvePhase, bool) {
	switch strings.ToLower(name) {
	case "priors":
		return controller.PhasePriors, true
	case "synthesis":
		return controller.PhaseSynthesis, true
	case "refinement":
		return controller.PhaseRefinement, true
	case "robustness":
		return controller.PhaseRobustness, true
	default:
		return controller.SolvePhase(-1), false
	}
}

// ApplyToSynthConfig overrides sc's fields with whichever ones c.Synth
// sets explicitly, leaving every unset field at its existing value
// (ordinarily synth.DefaultConfig()'s).
func (c *ProjectConfig) ApplyToSynthConfig(sc *synth.Config) {
	if c == nil || sc == nil {
		return
	}
	if c.Synth.MaxDepth != nil {
		sc.MaxDepth = *c.Synth.MaxDepth
	}
	if c.Synth.BeamWidth != nil {
		sc.BeamWidth = *c.Synth.BeamWidth
	}
	if c.Synth.MaxIterations != nil {
		sc.MaxIterations = *c.Synth.MaxIterations
	}
	if c.Synth.EnableRefinement != nil {
		sc.EnableRefinement = *c.Synth.EnableRefinement
	}
	if c.Synth.NearMissThreshold != nil {
		sc.NearMissThreshold = *c.Synth.NearMissThreshold
	}
}

// ApplyToController overrides a subset of an already-constructed
// Controller's sub-component fields in place: the scheduler's totals,
// the refusal checker's limits, the memory gate's thresholds, and
// whether the sketcher is enabled. It does not reconstruct any
// sub-component, so it must run after controller.New().
func (c *ProjectConfig) ApplyToController(ctrl *controller.Controller) {
	if c == nil || ctrl == nil {
		return
	}
	if c.Scheduler.TotalTimeSeconds != nil {
		ctrl.Scheduler.TotalTimeBudget = *c.Scheduler.TotalTimeSeconds
	}
	if c.Scheduler.TotalIterations != nil {
		ctrl.Scheduler.TotalIterationBudget = *c.Scheduler.TotalIterations
	}
	if c.Refusal.MaxGridSize != nil {
		ctrl.Refusal.MaxGridSize = *c.Refusal.MaxGridSize
	}
	if c.Refusal.MaxTrainPairs != nil {
		ctrl.Refusal.MaxTrainPairs = *c.Refusal.MaxTrainPairs
	}
	if c.Refusal.MaxTestPairs != nil {
		ctrl.Refusal.MaxTestPairs = *c.Refusal.MaxTestPairs
	}
	if c.Memory.MemoryThreshold != nil {
		ctrl.MemoryGate.MemoryThreshold = *c.Memory.MemoryThreshold
	}
	if c.Memory.AdaptThreshold != nil {
		ctrl.MemoryGate.AdaptThreshold = *c.Memory.AdaptThreshold
	}
	if c.Sketcher.Enabled != nil && !*c.Sketcher.Enabled {
		ctrl.Sketcher.SetBackend(nil)
	}
	for _, name := range c.Ablation.DisablePhases {
		if phase, ok := parsePhase(name); ok {
			ctrl.Config.DisablePhases = append(ctrl.Config.DisablePhases, phase)
		}
	}
}

// MacroMinFrequency returns the configured minimum-frequency threshold
// for macro induction, or fallback if the config leaves it unset.
// MacroLibrary takes this at construction time (it has no setter), so
// callers read it before calling memory.NewMacroLibrary.
func (c *ProjectConfig) MacroMinFrequency(fallback int) int {
	if c != nil && c.Memory.MacroMinFreq != nil {
		return *c.Memory.MacroMinFreq
	}
	return fallback
}
