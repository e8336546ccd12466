package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/glushko-lab/combeq/internal/equilibrium"
)

const (
	DefaultConstraintTol   = 1e-8
	DefaultGradientTol     = 1e-6
	DefaultInnerIterations = 5000
	DefaultInitialMoles    = 1.0
	DefaultMoleFloor       = 1e-12
	DefaultEnthalpyTol     = 1.0
	DefaultTemperatureTol  = 1e-9
	DefaultOuterIterations = 200
	DefaultBracketMargin   = 1e-3
	DefaultBracketScan     = 16
)

type Config struct {
	Inner InnerConfig `yaml:"inner"`
	Outer OuterConfig `yaml:"outer"`
}

// InnerConfig tunes the constrained Gibbs minimization at fixed temperature.
type InnerConfig struct {
	ConstraintTol float64 `yaml:"constraint_tol"`
	GradientTol   float64 `yaml:"gradient_tol"`
	MaxIterations int     `yaml:"max_iterations"`
	InitialMoles  float64 `yaml:"initial_moles"`
	MoleFloor     float64 `yaml:"mole_floor"`
}

// OuterConfig tunes the temperature root-find on the energy residual.
type OuterConfig struct {
	EnthalpyTol    float64 `yaml:"enthalpy_tol"`
	TemperatureTol float64 `yaml:"temperature_tol"`
	MaxIterations  int     `yaml:"max_iterations"`
	BracketMargin  float64 `yaml:"bracket_margin"`
	BracketScan    int     `yaml:"bracket_scan"`
}

func DefaultConfig() *Config {
	return &Config{
		Inner: InnerConfig{
			ConstraintTol: DefaultConstraintTol,
			GradientTol:   DefaultGradientTol,
			MaxIterations: DefaultInnerIterations,
			InitialMoles:  DefaultInitialMoles,
			MoleFloor:     DefaultMoleFloor,
		},
		Outer: OuterConfig{
			EnthalpyTol:    DefaultEnthalpyTol,
			TemperatureTol: DefaultTemperatureTol,
			MaxIterations:  DefaultOuterIterations,
			BracketMargin:  DefaultBracketMargin,
			BracketScan:    DefaultBracketScan,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SolverOptions translates the configuration into the solver's option set.
func (c *Config) SolverOptions() equilibrium.Options {
	return equilibrium.Options{
		Inner: equilibrium.InnerOptions{
			ConstraintTol: c.Inner.ConstraintTol,
			GradientTol:   c.Inner.GradientTol,
			MaxIterations: c.Inner.MaxIterations,
			InitialMoles:  c.Inner.InitialMoles,
			MoleFloor:     c.Inner.MoleFloor,
		},
		EnthalpyTol:    c.Outer.EnthalpyTol,
		TemperatureTol: c.Outer.TemperatureTol,
		MaxIterations:  c.Outer.MaxIterations,
		BracketMargin:  c.Outer.BracketMargin,
		BracketScan:    c.Outer.BracketScan,
	}
}
