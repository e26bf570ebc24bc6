// Package config loads the YAML file that drives the CLI. Keys left out of the
// file keep their defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/ja7ad/greensched/pkg/consumption"
	"github.com/ja7ad/greensched/pkg/engine/aco"
	"github.com/ja7ad/greensched/pkg/engine/ga"
	"github.com/ja7ad/greensched/pkg/search"
	"github.com/ja7ad/greensched/pkg/sim"
	"github.com/ja7ad/greensched/pkg/strategy"
	"github.com/ja7ad/greensched/pkg/workload"
)

// Engine holds the options shared by every strategy.
type Engine struct {
	Workers          int     `yaml:"workers" json:"workers"`
	Seed             uint64  `yaml:"seed" json:"seed"`
	ThroughputWeight float64 `yaml:"throughput_weight" json:"throughput_weight"`
}

// Sweep lists the strategies compared by `greensched sweep`.
type Sweep struct {
	Strategies []string `yaml:"strategies" json:"strategies"`
	Workers    int      `yaml:"workers" json:"workers"`
	Search     bool     `yaml:"search" json:"search"`
}

type Config struct {
	Strategy string              `yaml:"strategy" json:"strategy"`
	Engine   Engine              `yaml:"engine" json:"engine"`
	ACO      aco.Config          `yaml:"aco" json:"aco"`
	GA       ga.Config           `yaml:"ga" json:"ga"`
	Search   search.Config       `yaml:"search" json:"search"`
	Sim      sim.Config          `yaml:"sim" json:"sim"`
	Energy   consumption.Config  `yaml:"energy" json:"energy"`
	Workload workload.Config     `yaml:"workload" json:"workload"`
	Pool     workload.PoolConfig `yaml:"pool" json:"pool"`
	Sweep    Sweep               `yaml:"sweep" json:"sweep"`
}

// Default returns the configuration of the reference experiments.
func Default() *Config {
	return &Config{
		Strategy: aco.Name,
		ACO:      aco.DefaultConfig(),
		GA:       ga.DefaultConfig(),
		Search: search.Config{
			AcceptableViolationRatio: 0.01,
			Policy:                   search.LowestUtilization,
		},
		Sim:      sim.DefaultConfig(),
		Energy:   consumption.DefaultConfig(),
		Workload: workload.DefaultConfig(),
		Pool:     workload.DefaultPoolConfig(),
		Sweep: Sweep{
			Strategies: strategy.NewRegistry().Names(),
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads YAML from r over the defaults and validates the result.
// Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	cfg := Default()
	if len(bytes.TrimSpace(b)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs error
	names := strategy.NewRegistry().Names()

	if !slices.Contains(names, c.Strategy) {
		errs = multierr.Append(errs, fmt.Errorf("%w: strategy %q (known: %v)", ErrInvalid, c.Strategy, names))
	}
	for _, s := range c.Sweep.Strategies {
		if !slices.Contains(names, s) {
			errs = multierr.Append(errs, fmt.Errorf("%w: sweep strategy %q", ErrInvalid, s))
		}
	}
	if c.Engine.Workers < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: engine.workers %d", ErrInvalid, c.Engine.Workers))
	}
	if c.Engine.ThroughputWeight < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: engine.throughput_weight %g", ErrInvalid, c.Engine.ThroughputWeight))
	}
	if err := c.ACO.Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("aco: %w", err))
	}
	if err := c.GA.Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("ga: %w", err))
	}
	if r := c.Search.AcceptableViolationRatio; r < 0 || r > 1 {
		errs = multierr.Append(errs, fmt.Errorf("%w: %g", search.ErrInvalidThreshold, r))
	}
	if _, err := search.PolicyByName(c.Search.Policy); err != nil {
		errs = multierr.Append(errs, err)
	}
	if c.Search.MaxRounds < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: search.max_rounds %d", ErrInvalid, c.Search.MaxRounds))
	}
	if c.Sim.Interval < 0 || c.Sim.Smoothing <= 0 || c.Sim.Smoothing > 1 {
		errs = multierr.Append(errs, fmt.Errorf("%w: sim interval=%g smoothing=%g", ErrInvalid, c.Sim.Interval, c.Sim.Smoothing))
	}
	if err := c.Workload.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := c.Pool.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}
