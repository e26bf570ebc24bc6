// Package baseline has the single-pass placements that the search engines are
// compared against.
package baseline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ja7ad/greensched/pkg/engine"
	"github.com/ja7ad/greensched/pkg/model"
)

const (
	FCFSName       = "fcfs"
	RoundRobinName = "round-robin"
)

type placeFunc func(jobs []model.Job, resources []model.Resource) model.Assignment

// Engine runs one placement rule and simulates it once.
type Engine struct {
	name  string
	place placeFunc
	opts  engine.Options
}

var _ engine.Engine = (*Engine)(nil)

// NewFCFS hands each job, in arrival order, to the resource that frees up
// first, the lower index on ties.
func NewFCFS(opts engine.Options) *Engine {
	return &Engine{name: FCFSName, place: FCFS, opts: opts.WithDefaults()}
}

// NewRoundRobin binds job i to resource i mod M.
func NewRoundRobin(opts engine.Options) *Engine {
	return &Engine{name: RoundRobinName, place: RoundRobin, opts: opts.WithDefaults()}
}

func (e *Engine) Name() string { return e.name }

func (e *Engine) Run(ctx context.Context, jobs []model.Job, resources []model.Resource, hosts []model.Host) (tr *model.TrialResult, err error) {
	ctx, span := engine.StartSpan(ctx, e.name+".Run",
		attribute.Int("jobs", len(jobs)),
		attribute.Int("resources", len(resources)),
	)
	defer func() { engine.EndSpan(span, err) }()

	if err := engine.Validate(e.opts, jobs, resources); err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}

	start := time.Now()
	ev := engine.NewEvaluator(e.opts, jobs, resources, hosts)
	tr, err = ev.Trial(ctx, e.name, e.place(ev.Jobs(), ev.Resources()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}

	e.opts.Observer.Trial(e.name, tr, time.Since(start))
	e.opts.Logger.Info(e.name+" done", "violations", tr.Violations, "makespan", tr.Makespan)
	return tr, nil
}

// FCFS places jobs in order on the resource with the earliest projected free
// time.
func FCFS(jobs []model.Job, resources []model.Resource) model.Assignment {
	free := make([]float64, len(resources))
	a := make(model.Assignment, len(jobs))
	for i, j := range jobs {
		best := 0
		for r := 1; r < len(resources); r++ {
			if free[r] < free[best] {
				best = r
			}
		}
		a[i] = best
		free[best] = max(free[best], j.SubmissionDelay) + resources[best].ExecTime(j.Length)
	}
	return a
}

// RoundRobin places job i on resource i mod M.
func RoundRobin(jobs []model.Job, resources []model.Resource) model.Assignment {
	a := make(model.Assignment, len(jobs))
	for i := range jobs {
		a[i] = i % len(resources)
	}
	return a
}
