package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ja7ad/greensched/pkg/consumption"
	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/sim"
)

// Evaluator scores assignments against one fixed set of templates. The
// templates are only read, so one Evaluator serves many goroutines.
type Evaluator struct {
	sim       sim.Simulator
	workers   int
	k, ref    float64
	energy    *consumption.Config
	jobs      []model.Job
	resources []model.Resource
	hosts     []model.Host
}

// NewEvaluator snapshots the templates. opts must already carry defaults.
func NewEvaluator(opts Options, jobs []model.Job, resources []model.Resource, hosts []model.Host) *Evaluator {
	return &Evaluator{
		sim:       opts.Simulator,
		workers:   max(opts.Workers, 1),
		k:         opts.ThroughputWeight,
		ref:       Reference(jobs),
		energy:    opts.Energy,
		jobs:      model.CloneJobs(jobs),
		resources: model.CloneResources(resources),
		hosts:     model.CloneHosts(hosts),
	}
}

// Jobs returns the job templates in placement order.
func (e *Evaluator) Jobs() []model.Job { return e.jobs }

// Resources returns the resource templates.
func (e *Evaluator) Resources() []model.Resource { return e.resources }

func (e *Evaluator) simulate(ctx context.Context, a model.Assignment) (sim.Outcome, error) {
	if len(a) != len(e.jobs) || !a.Complete(len(e.resources)) {
		return sim.Outcome{}, fmt.Errorf("%w: %d of %d jobs", ErrBadAssignment, len(a), len(e.jobs))
	}
	jobs := model.CloneJobs(e.jobs)
	a.Bind(jobs, e.resources)

	out, err := e.sim.Simulate(ctx, e.hosts, e.resources, jobs)
	if err != nil {
		if errors.Is(err, sim.ErrSimulatorFailure) {
			return sim.Outcome{}, err
		}
		return sim.Outcome{}, fmt.Errorf("%w: %w", sim.ErrSimulatorFailure, err)
	}
	return out, nil
}

// Score simulates a and computes its fitness.
func (e *Evaluator) Score(ctx context.Context, a model.Assignment) (Candidate, error) {
	out, err := e.simulate(ctx, a)
	if err != nil {
		return Candidate{}, err
	}
	v := model.Violations(out.Jobs)
	ms := model.Makespan(out.Jobs)
	return Candidate{
		Assignment: a,
		Fitness:    Fitness(v, ms, e.ref, e.k),
		Violations: v,
		Makespan:   ms,
	}, nil
}

// Parallel runs fn for i in [0,n) on at most Workers goroutines and returns
// the first error. Remaining calls see a canceled context.
func (e *Evaluator) Parallel(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error { return fn(gctx, i) })
	}
	return g.Wait()
}

// Evaluate scores every assignment concurrently. The result is index-aligned
// with population.
func (e *Evaluator) Evaluate(ctx context.Context, population []model.Assignment) ([]Candidate, error) {
	out := make([]Candidate, len(population))
	err := e.Parallel(ctx, len(population), func(ctx context.Context, i int) error {
		c, err := e.Score(ctx, population[i])
		if err != nil {
			return err
		}
		out[i] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Trial binds a on fresh copies, simulates once more and assembles the full
// report, energy included.
func (e *Evaluator) Trial(ctx context.Context, name string, a model.Assignment) (*model.TrialResult, error) {
	out, err := e.simulate(ctx, a)
	if err != nil {
		return nil, err
	}

	hosts := model.CloneHosts(e.hosts)
	states := make([]int, len(hosts))
	for i, h := range hosts {
		if h.Power != nil {
			states[i] = h.Power.State()
		}
	}

	v := model.Violations(out.Jobs)
	ms := model.Makespan(out.Jobs)
	tr := &model.TrialResult{
		Engine:         name,
		Hosts:          hosts,
		HostStates:     states,
		Resources:      model.CloneResources(e.resources),
		Jobs:           out.Jobs,
		Assignment:     a.Clone(),
		Utilization:    out.Utilization,
		Makespan:       ms,
		Violations:     v,
		ViolationRatio: model.ViolationRatio(out.Jobs),
		Fitness:        Fitness(v, ms, e.ref, e.k),
		Tardiness:      model.SummarizeTardiness(out.Jobs),
	}

	energy, err := consumption.Trial(e.energy, hosts, tr.HostUtilization(), ms)
	if err != nil {
		return nil, fmt.Errorf("energy: %w", err)
	}
	tr.Energy = energy
	return tr, nil
}
