// Package engine holds what every placement strategy shares: the Engine
// contract, the scalar fitness, a bounded evaluation pool and the assembly of
// the final TrialResult.
//
// An engine never changes host power states. It receives templates, works on
// deep copies and hands back one simulated trial.
package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/ja7ad/greensched/pkg/consumption"
	"github.com/ja7ad/greensched/pkg/heuristic"
	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/sim"
)

//go:generate mockgen -destination=mocks/mock_engine.go -package=mocks github.com/ja7ad/greensched/pkg/engine Engine,Observer

// Engine places every job on exactly one resource and reports the simulated
// result of that placement.
type Engine interface {
	Name() string
	Run(ctx context.Context, jobs []model.Job, resources []model.Resource, hosts []model.Host) (*model.TrialResult, error)
}

// Observer receives engine progress. Implementations must be safe for
// concurrent use when engines run in parallel.
type Observer interface {
	Iteration(engine string, iteration int, best Candidate)
	Trial(engine string, tr *model.TrialResult, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) Iteration(string, int, Candidate)                {}
func (nopObserver) Trial(string, *model.TrialResult, time.Duration) {}

// Options are the collaborators and knobs common to all engines.
//   - Workers: ants or individuals evaluated at once, <= 0 means GOMAXPROCS
//   - Seed: root of every random stream, 0 picks a random seed
//   - ThroughputWeight: k of the fitness, <= 0 means DefaultThroughputWeight
//   - Energy: transition costs for the trial energy, nil means defaults
type Options struct {
	Simulator        sim.Simulator
	Workers          int
	Seed             uint64
	ThroughputWeight float64
	Energy           *consumption.Config
	Logger           *slog.Logger
	Observer         Observer
}

// WithDefaults returns a copy with every unset field filled.
func (o Options) WithDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Seed == 0 {
		o.Seed = rand.Uint64()
	}
	if o.ThroughputWeight <= 0 {
		o.ThroughputWeight = DefaultThroughputWeight
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	return o
}

// Stream returns the random stream of worker i under seed. Streams depend on
// (seed, i) only, so results do not depend on goroutine scheduling.
func Stream(seed uint64, i int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(i)))
}

// Validate checks the inputs every engine needs.
func Validate(opts Options, jobs []model.Job, resources []model.Resource) error {
	if opts.Simulator == nil {
		return ErrNoSimulator
	}
	if len(resources) == 0 {
		return heuristic.ErrEmptyResourcePool
	}
	if len(jobs) == 0 {
		return ErrNoJobs
	}
	return nil
}
