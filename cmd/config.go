package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/MiguelAlmeida05/Ruta-Op/sim/factors"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/kpi"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/predictor"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/routing"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/validate"
)

// RoutingConfig tunes the path finder.
type RoutingConfig struct {
	MaxSpeedMPS float64                           `yaml:"max_speed_mps"`
	Penalties   map[string]map[string]float64     `yaml:"penalties"` // event -> road class -> multiplier
	Vehicles    map[string]routing.VehicleProfile `yaml:"vehicles"`
}

// SimulationConfig tunes the Monte Carlo simulator.
type SimulationConfig struct {
	Iterations int   `yaml:"iterations"`
	Seed       int64 `yaml:"seed"`
}

// ValidationConfig tunes the validation harness.
type ValidationConfig struct {
	StabilityIterations int `yaml:"stability_iterations"`
}

// PredictorsConfig points at the linear model coefficient files. Empty paths disable
// the corresponding predictor.
type PredictorsConfig struct {
	ETAModel    string `yaml:"eta_model"`
	ImpactModel string `yaml:"impact_model"`
}

// Config represents the full config file structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Routing    RoutingConfig    `yaml:"routing"`
	Simulation SimulationConfig `yaml:"simulation"`
	Validation ValidationConfig `yaml:"validation"`
	Predictors PredictorsConfig `yaml:"predictors"`
}

// DefaultConfig is used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Routing:    RoutingConfig{MaxSpeedMPS: routing.DefaultMaxSpeedMPS},
		Simulation: SimulationConfig{Iterations: factors.DefaultIterations, Seed: 42},
		Validation: ValidationConfig{StabilityIterations: validate.DefaultStabilityIterations},
	}
}

// LoadConfig reads path over DefaultConfig. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Routing.MaxSpeedMPS <= 0 {
		return fmt.Errorf("routing.max_speed_mps must be positive, got %v", c.Routing.MaxSpeedMPS)
	}
	if c.Simulation.Iterations <= 0 {
		return fmt.Errorf("simulation.iterations must be positive, got %d", c.Simulation.Iterations)
	}
	if c.Validation.StabilityIterations <= 0 {
		return fmt.Errorf("validation.stability_iterations must be positive, got %d", c.Validation.StabilityIterations)
	}
	for name, p := range c.Routing.Vehicles {
		if p.SpeedPenalty < 0 || p.AvoidPenalty < 0 {
			return fmt.Errorf("routing.vehicles.%s: penalties must not be negative", name)
		}
	}
	return nil
}

// Penalties returns the built-in penalty table with the configured overrides applied.
func (c Config) Penalties() (routing.PenaltyTable, error) {
	if len(c.Routing.Penalties) == 0 {
		return routing.DefaultPenalties(), nil
	}
	return routing.DefaultPenalties().Override(c.Routing.Penalties)
}

// Vehicle looks up a named profile. The empty name means no profile.
func (c Config) Vehicle(name string) (*routing.VehicleProfile, error) {
	if name == "" {
		return nil, nil
	}
	p, ok := c.Routing.Vehicles[name]
	if !ok {
		return nil, fmt.Errorf("unknown vehicle profile %q", name)
	}
	return &p, nil
}

// Simulator builds the factor simulator, with the ETA model when one is configured.
func (c Config) Simulator() *factors.Simulator {
	if c.Predictors.ETAModel == "" {
		return factors.NewSimulator(nil)
	}
	return factors.NewSimulator(predictor.NewLinearETA(c.Predictors.ETAModel))
}

// Aggregator builds the KPI aggregator, with the impact model when one is configured.
func (c Config) Aggregator() *kpi.Aggregator {
	if c.Predictors.ImpactModel == "" {
		return kpi.NewAggregator(nil)
	}
	return kpi.NewAggregator(predictor.NewLinearImpact(c.Predictors.ImpactModel))
}

// loadConfigOrDefault is the command-side wrapper: an empty path yields defaults and a
// bad file is fatal.
func loadConfigOrDefault(path string) Config {
	if path == "" {
		return DefaultConfig()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logrus.Infof("Loaded config from %s", path)
	return cfg
}
