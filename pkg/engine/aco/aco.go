// Package aco places jobs with an ant colony.
//
// Every iteration a fixed number of ants each build a complete assignment from
// the pheromone field, have it simulated and scored. The field stays read-only
// while ants run; once all of them are done it evaporates and the best ant of
// the iteration deposits
//
//	depositScale * (jobs - violations)
//
// on every cell it used. After the last iteration one more ant builds the
// reported assignment on the converged field.
package aco

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ja7ad/greensched/pkg/engine"
	"github.com/ja7ad/greensched/pkg/heuristic"
	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/pheromone"
)

const Name = "aco"

// Config holds the colony hyperparameters.
//   - Ants, Iterations and the pheromone band: <= 0 keeps the default
//   - EvaporationRate: taken as given when >= 0 (0 never decays the field),
//     negative keeps the default
//   - Heuristic: nil uses heuristic.DefaultConfig, a partial one is merged
//     over it field by field
type Config struct {
	Ants             int               `yaml:"ants" json:"ants"`
	Iterations       int               `yaml:"iterations" json:"iterations"`
	EvaporationRate  float64           `yaml:"evaporation_rate" json:"evaporation_rate"`
	MinPheromone     float64           `yaml:"min_pheromone" json:"min_pheromone"`
	MaxPheromone     float64           `yaml:"max_pheromone" json:"max_pheromone"`
	InitialPheromone float64           `yaml:"initial_pheromone" json:"initial_pheromone"`
	DepositScale     float64           `yaml:"deposit_scale" json:"deposit_scale"`
	Heuristic        *heuristic.Config `yaml:"heuristic,omitempty" json:"heuristic,omitempty"`
}

// DefaultConfig returns the colony used in the reference experiments.
func DefaultConfig() Config {
	h := heuristic.DefaultConfig()
	return Config{
		Ants:             200,
		Iterations:       100,
		EvaporationRate:  0.2,
		MinPheromone:     0.8,
		MaxPheromone:     10,
		InitialPheromone: 1,
		DepositScale:     3,
		Heuristic:        &h,
	}
}

// Merge fills every unset field of c from base. The result never shares its
// Heuristic with c or base.
func (c Config) Merge(base Config) Config {
	if c.Ants <= 0 {
		c.Ants = base.Ants
	}
	if c.Iterations <= 0 {
		c.Iterations = base.Iterations
	}
	if c.EvaporationRate < 0 {
		c.EvaporationRate = base.EvaporationRate
	}
	if c.MinPheromone <= 0 {
		c.MinPheromone = base.MinPheromone
	}
	if c.MaxPheromone <= 0 {
		c.MaxPheromone = base.MaxPheromone
	}
	if c.InitialPheromone <= 0 {
		c.InitialPheromone = base.InitialPheromone
	}
	if c.DepositScale <= 0 {
		c.DepositScale = base.DepositScale
	}
	switch {
	case c.Heuristic == nil && base.Heuristic != nil:
		h := *base.Heuristic
		c.Heuristic = &h
	case c.Heuristic != nil && base.Heuristic != nil:
		h := c.Heuristic.Merge(*base.Heuristic)
		c.Heuristic = &h
	case c.Heuristic != nil:
		h := *c.Heuristic
		c.Heuristic = &h
	}
	return c
}

// Validate checks a merged config.
func (c Config) Validate() error {
	switch {
	case c.Ants <= 0:
		return fmt.Errorf("%w: ants %d", ErrInvalidConfig, c.Ants)
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations %d", ErrInvalidConfig, c.Iterations)
	case c.EvaporationRate < 0 || c.EvaporationRate >= 1:
		return fmt.Errorf("%w: evaporation rate %.3f outside [0,1)", ErrInvalidConfig, c.EvaporationRate)
	case c.MinPheromone > c.MaxPheromone:
		return fmt.Errorf("%w: pheromone band [%.3f, %.3f]", ErrInvalidConfig, c.MinPheromone, c.MaxPheromone)
	case c.InitialPheromone < c.MinPheromone || c.InitialPheromone > c.MaxPheromone:
		return fmt.Errorf("%w: initial pheromone %.3f outside [%.3f, %.3f]",
			ErrInvalidConfig, c.InitialPheromone, c.MinPheromone, c.MaxPheromone)
	case c.Heuristic == nil:
		return fmt.Errorf("%w: heuristic is required", ErrInvalidConfig)
	}
	return nil
}

// Engine is the ant colony. It holds no per-run state and may run
// concurrently on different inputs.
type Engine struct {
	cfg  Config
	opts engine.Options
}

var _ engine.Engine = (*Engine)(nil)

// New merges cfg over DefaultConfig and validates it.
func New(cfg *Config, opts engine.Options) (*Engine, error) {
	merged := DefaultConfig()
	if cfg != nil {
		merged = cfg.Merge(merged)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: merged, opts: opts.WithDefaults()}, nil
}

func (e *Engine) Name() string { return Name }

// Config returns the merged hyperparameters.
func (e *Engine) Config() Config { return e.cfg }

// Run places jobs on resources. Any simulator failure aborts the run.
func (e *Engine) Run(ctx context.Context, jobs []model.Job, resources []model.Resource, hosts []model.Host) (tr *model.TrialResult, err error) {
	ctx, span := engine.StartSpan(ctx, "aco.Run",
		attribute.Int("jobs", len(jobs)),
		attribute.Int("resources", len(resources)),
		attribute.Int("ants", e.cfg.Ants),
		attribute.Int("iterations", e.cfg.Iterations),
	)
	defer func() { engine.EndSpan(span, err) }()

	if err := engine.Validate(e.opts, jobs, resources); err != nil {
		return nil, fmt.Errorf("aco: %w", err)
	}

	start := time.Now()
	ev := engine.NewEvaluator(e.opts, jobs, resources, hosts)
	field, err := pheromone.New(len(jobs), len(resources), e.cfg.InitialPheromone)
	if err != nil {
		return nil, fmt.Errorf("aco: %w", err)
	}

	for iter := 0; iter < e.cfg.Iterations; iter++ {
		best, err := e.iterate(ctx, ev, field, iter)
		if err != nil {
			return nil, fmt.Errorf("aco: iteration %d: %w", iter, err)
		}

		field.Evaporate(e.cfg.EvaporationRate, e.cfg.MinPheromone)
		amount := e.cfg.DepositScale * float64(len(jobs)-best.Violations)
		if err := field.Deposit(best.Assignment, amount, e.cfg.MaxPheromone); err != nil {
			return nil, fmt.Errorf("aco: iteration %d: %w", iter, err)
		}

		e.opts.Observer.Iteration(Name, iter, best)
		e.opts.Logger.Debug("aco iteration",
			"iteration", iter,
			"fitness", best.Fitness,
			"violations", best.Violations,
			"makespan", best.Makespan,
		)
	}

	s, err := heuristic.NewSampler(ev.Resources(), *e.cfg.Heuristic)
	if err != nil {
		return nil, fmt.Errorf("aco: %w", err)
	}
	final, err := s.Construct(field, ev.Jobs(), engine.Stream(e.opts.Seed, e.cfg.Iterations*e.cfg.Ants))
	if err != nil {
		return nil, fmt.Errorf("aco: finalize: %w", err)
	}

	tr, err = ev.Trial(ctx, Name, final)
	if err != nil {
		return nil, fmt.Errorf("aco: finalize: %w", err)
	}

	span.SetAttributes(engine.TrialAttributes(tr.Violations, tr.ViolationRatio, tr.Makespan, float64(tr.Energy))...)
	e.opts.Observer.Trial(Name, tr, time.Since(start))
	e.opts.Logger.Info("aco done",
		"violations", tr.Violations,
		"makespan", tr.Makespan,
		"energy", tr.Energy.Humanized(),
		"elapsed", time.Since(start),
	)
	return tr, nil
}

// iterate runs every ant of one iteration against a read-only field and
// returns the best of them.
func (e *Engine) iterate(ctx context.Context, ev *engine.Evaluator, field *pheromone.Field, iter int) (engine.Candidate, error) {
	ants := make([]engine.Candidate, e.cfg.Ants)
	err := ev.Parallel(ctx, e.cfg.Ants, func(ctx context.Context, i int) error {
		s, err := heuristic.NewSampler(ev.Resources(), *e.cfg.Heuristic)
		if err != nil {
			return err
		}
		a, err := s.Construct(field, ev.Jobs(), engine.Stream(e.opts.Seed, iter*e.cfg.Ants+i))
		if err != nil {
			return err
		}
		c, err := ev.Score(ctx, a)
		if err != nil {
			return fmt.Errorf("ant %d: %w", i, err)
		}
		ants[i] = c
		return nil
	})
	if err != nil {
		return engine.Candidate{}, err
	}
	return ants[engine.Best(ants)], nil
}
