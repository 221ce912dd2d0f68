// Package config holds the resolved run configuration and its
// defaulting/validation rules, split the way the plugin lineage this
// project grew out of splits defaults.go from validation.go.
package config

import (
	"fmt"
	"os"

	"github.com/brodin-oss/familysched/internal/warmstart"
)

// Search-parameter defaults, carried over from the original CLI's
// fallback values.
const (
	DefaultNThreads      = 1
	DefaultMoveDepth     = 3
	DefaultPerturbations = 15
	DefaultOutDir        = "./data/output/"
	DefaultFamiliesPath  = "./data/input/family_data.csv"
	DefaultMetricsAddr   = ""
	DefaultInitStrategy  = warmstart.StrategyGreedy
)

// Config is the fully resolved set of parameters a run needs; it is
// built from CLI flags by cmd/familysched and never re-reads flags
// itself.
type Config struct {
	FamiliesPath string
	NThreads     int
	NInit        int // 0 means "default to NThreads"
	RepsPerSol   int // 0 means "default to NThreads"
	SolutionPath string // non-empty overrides NInit entirely
	MoveDepth    int
	Perturbations int
	OutDir       string

	MetricsAddr   string // empty disables the metrics server
	PlotPath      string // empty disables convergence plotting
	InitStrategy  string
	Diagnostics   bool
	Verbosity     int
}

// Default returns a Config with every field at its documented default.
func Default() *Config {
	return &Config{
		FamiliesPath:  DefaultFamiliesPath,
		NThreads:      DefaultNThreads,
		MoveDepth:     DefaultMoveDepth,
		Perturbations: DefaultPerturbations,
		OutDir:        DefaultOutDir,
		MetricsAddr:   DefaultMetricsAddr,
		InitStrategy:  DefaultInitStrategy,
	}
}

// Resolve fills in the zero-valued NInit/RepsPerSol fields from
// NThreads, matching the original CLI's "defaults to nthreads"
// behavior for both flags.
func (c *Config) Resolve() {
	if c.NInit == 0 {
		c.NInit = c.NThreads
	}
	if c.RepsPerSol == 0 {
		c.RepsPerSol = c.NThreads
	}
}

// Validate checks the invariants Config must hold before a run starts.
func Validate(c *Config) error {
	if c.NThreads <= 0 {
		return fmt.Errorf("config: nthreads must be positive, got %d", c.NThreads)
	}
	if c.MoveDepth <= 0 {
		return fmt.Errorf("config: depth must be positive, got %d", c.MoveDepth)
	}
	if c.Perturbations < 0 {
		return fmt.Errorf("config: npert must be non-negative, got %d", c.Perturbations)
	}
	if c.SolutionPath == "" && c.NInit <= 0 {
		return fmt.Errorf("config: ninit must be positive when no --sol is given, got %d", c.NInit)
	}
	if c.RepsPerSol <= 0 {
		return fmt.Errorf("config: nreps must be positive, got %d", c.RepsPerSol)
	}
	switch c.InitStrategy {
	case warmstart.StrategyGreedy, warmstart.StrategyRandom:
	default:
		return fmt.Errorf("config: unknown init-strategy %q", c.InitStrategy)
	}
	if _, err := os.Stat(c.OutDir); err != nil {
		return fmt.Errorf("config: output directory: %w", err)
	}
	return nil
}
