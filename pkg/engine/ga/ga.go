// Package ga places jobs with a generational genetic algorithm.
//
// A chromosome maps job index to resource index. Each generation every
// individual is simulated once, the population is ranked by fitness, the top
// two survive unchanged and the rest are bred from tournament winners with
// single-point crossover and per-gene mutation. The best chromosome ever seen
// is simulated once more for the report.
package ga

import (
	"cmp"
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ja7ad/greensched/pkg/engine"
	"github.com/ja7ad/greensched/pkg/model"
)

const (
	Name   = "ga"
	elites = 2
)

// Config holds the evolution hyperparameters.
//   - PopulationSize, Generations: <= 0 keeps the default
//   - CrossoverProb, MutationProb: taken as given when >= 0 (0 disables the
//     operator), negative keeps the default
type Config struct {
	PopulationSize int     `yaml:"population_size" json:"population_size"`
	Generations    int     `yaml:"generations" json:"generations"`
	CrossoverProb  float64 `yaml:"crossover_prob" json:"crossover_prob"`
	MutationProb   float64 `yaml:"mutation_prob" json:"mutation_prob"`
}

// DefaultConfig returns the population used in the reference experiments.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 30,
		Generations:    50,
		CrossoverProb:  0.9,
		MutationProb:   0.02,
	}
}

// Merge fills every unset field of c from base.
func (c Config) Merge(base Config) Config {
	if c.PopulationSize <= 0 {
		c.PopulationSize = base.PopulationSize
	}
	if c.Generations <= 0 {
		c.Generations = base.Generations
	}
	if c.CrossoverProb < 0 {
		c.CrossoverProb = base.CrossoverProb
	}
	if c.MutationProb < 0 {
		c.MutationProb = base.MutationProb
	}
	return c
}

// Validate checks a merged config.
func (c Config) Validate() error {
	switch {
	case c.PopulationSize < elites:
		return fmt.Errorf("%w: population %d smaller than %d elites", ErrInvalidConfig, c.PopulationSize, elites)
	case c.Generations <= 0:
		return fmt.Errorf("%w: generations %d", ErrInvalidConfig, c.Generations)
	case c.CrossoverProb < 0 || c.CrossoverProb > 1:
		return fmt.Errorf("%w: crossover probability %.3f", ErrInvalidConfig, c.CrossoverProb)
	case c.MutationProb < 0 || c.MutationProb > 1:
		return fmt.Errorf("%w: mutation probability %.3f", ErrInvalidConfig, c.MutationProb)
	}
	return nil
}

// Engine is the genetic algorithm. It holds no per-run state.
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

func (e *Engine) Config() Config { return e.cfg }

// Run evolves a placement of jobs on resources.
func (e *Engine) Run(ctx context.Context, jobs []model.Job, resources []model.Resource, hosts []model.Host) (tr *model.TrialResult, err error) {
	ctx, span := engine.StartSpan(ctx, "ga.Run",
		attribute.Int("jobs", len(jobs)),
		attribute.Int("resources", len(resources)),
		attribute.Int("population", e.cfg.PopulationSize),
		attribute.Int("generations", e.cfg.Generations),
	)
	defer func() { engine.EndSpan(span, err) }()

	if err := engine.Validate(e.opts, jobs, resources); err != nil {
		return nil, fmt.Errorf("ga: %w", err)
	}

	start := time.Now()
	ev := engine.NewEvaluator(e.opts, jobs, resources, hosts)
	n, m := len(jobs), len(resources)

	// breeding draws from one stream so a seed fixes the whole run
	rng := engine.Stream(e.opts.Seed, 0)
	pop := make([]model.Assignment, e.cfg.PopulationSize)
	for i := range pop {
		pop[i] = randomChromosome(rng, n, m)
	}

	var best engine.Candidate
	haveBest := false
	for gen := 0; gen < e.cfg.Generations; gen++ {
		ranked, err := ev.Evaluate(ctx, pop)
		if err != nil {
			return nil, fmt.Errorf("ga: generation %d: %w", gen, err)
		}
		slices.SortStableFunc(ranked, func(a, b engine.Candidate) int {
			return cmp.Compare(b.Fitness, a.Fitness)
		})

		if !haveBest || ranked[0].Fitness > best.Fitness {
			best = ranked[0]
			best.Assignment = best.Assignment.Clone()
			haveBest = true
		}

		e.opts.Observer.Iteration(Name, gen, ranked[0])
		e.opts.Logger.Debug("ga generation",
			"generation", gen,
			"fitness", ranked[0].Fitness,
			"violations", ranked[0].Violations,
			"best_ever", best.Fitness,
		)

		pop = e.breed(rng, ranked, m)
	}

	tr, err = ev.Trial(ctx, Name, best.Assignment)
	if err != nil {
		return nil, fmt.Errorf("ga: finalize: %w", err)
	}

	span.SetAttributes(engine.TrialAttributes(tr.Violations, tr.ViolationRatio, tr.Makespan, float64(tr.Energy))...)
	e.opts.Observer.Trial(Name, tr, time.Since(start))
	e.opts.Logger.Info("ga done",
		"violations", tr.Violations,
		"makespan", tr.Makespan,
		"energy", tr.Energy.Humanized(),
		"elapsed", time.Since(start),
	)
	return tr, nil
}

// breed builds the next generation from a population ranked best first.
func (e *Engine) breed(rng *rand.Rand, ranked []engine.Candidate, resources int) []model.Assignment {
	next := make([]model.Assignment, 0, e.cfg.PopulationSize)
	for i := 0; i < elites; i++ {
		next = append(next, ranked[i].Assignment.Clone())
	}

	for len(next) < e.cfg.PopulationSize {
		c1 := tournament(rng, ranked).Clone()
		c2 := tournament(rng, ranked).Clone()
		if rng.Float64() < e.cfg.CrossoverProb {
			crossover(c1, c2, rng.IntN(len(c1)))
		}
		mutate(rng, c1, resources, e.cfg.MutationProb)
		mutate(rng, c2, resources, e.cfg.MutationProb)

		next = append(next, c1)
		if len(next) < e.cfg.PopulationSize {
			next = append(next, c2)
		}
	}
	return next
}

func randomChromosome(rng *rand.Rand, jobs, resources int) model.Assignment {
	a := make(model.Assignment, jobs)
	for i := range a {
		a[i] = rng.IntN(resources)
	}
	return a
}

// tournament picks the fitter of two uniformly drawn individuals, the second
// one on ties.
func tournament(rng *rand.Rand, pop []engine.Candidate) model.Assignment {
	a, b := pop[rng.IntN(len(pop))], pop[rng.IntN(len(pop))]
	if a.Fitness > b.Fitness {
		return a.Assignment
	}
	return b.Assignment
}

// crossover swaps the tails of a and b from cut on.
func crossover(a, b model.Assignment, cut int) {
	for g := cut; g < len(a); g++ {
		a[g], b[g] = b[g], a[g]
	}
}

// mutate reassigns each gene to a uniform resource with probability p.
func mutate(rng *rand.Rand, a model.Assignment, resources int, p float64) {
	for g := range a {
		if rng.Float64() < p {
			a[g] = rng.IntN(resources)
		}
	}
}
