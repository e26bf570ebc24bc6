// Package sweep runs independent trials side by side, typically the same
// workload under several engines or hyperparameter sets.
package sweep

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/ja7ad/greensched/pkg/engine"
	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/search"
)

// Trial is one unit of a sweep. With Search nil the engine runs once,
// otherwise the full energy-aware search runs with it.
type Trial struct {
	Name      string
	Engine    engine.Engine
	Jobs      []model.Job
	Resources []model.Resource
	Hosts     []model.Host
	Search    *search.Config
}

// Report is the outcome of one trial.
type Report struct {
	Name    string             `json:"name"`
	Engine  string             `json:"engine"`
	Result  *model.TrialResult `json:"result"`
	Search  *search.Result     `json:"search,omitempty"`
	Elapsed time.Duration      `json:"elapsed"`
}

// Run executes trials on at most workers goroutines (<= 0 means GOMAXPROCS).
// Each trial works on its own copies of the templates. The first failure
// cancels the remaining trials and is returned. Reports keep input order.
func Run(ctx context.Context, trials []Trial, workers int) (reports []Report, err error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	for i, t := range trials {
		if t.Engine == nil {
			return nil, fmt.Errorf("%w: trial %d (%s)", ErrNoEngine, i, t.Name)
		}
	}

	ctx, span := engine.StartSpan(ctx, "sweep.Run",
		attribute.Int("trials", len(trials)),
		attribute.Int("workers", workers),
	)
	defer func() { engine.EndSpan(span, err) }()

	reports = make([]Report, len(trials))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range trials {
		t := trials[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := runTrial(gctx, t)
			if err != nil {
				return fmt.Errorf("sweep: trial %q: %w", t.Name, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func runTrial(ctx context.Context, t Trial) (Report, error) {
	jobs := model.CloneJobs(t.Jobs)
	resources := model.CloneResources(t.Resources)
	hosts := model.CloneHosts(t.Hosts)

	name := t.Name
	if name == "" {
		name = t.Engine.Name()
	}
	rep := Report{Name: name, Engine: t.Engine.Name()}
	start := time.Now()

	if t.Search == nil {
		tr, err := t.Engine.Run(ctx, jobs, resources, hosts)
		if err != nil {
			return Report{}, err
		}
		rep.Result = tr
		rep.Elapsed = time.Since(start)
		return rep, nil
	}

	res, err := search.Search(ctx, t.Engine, jobs, resources, hosts, *t.Search)
	if err != nil {
		return Report{}, err
	}
	rep.Search = res
	rep.Result = res.OperatingPoint()
	if rep.Result == nil && len(res.History) > 0 {
		rep.Result = res.History[0]
	}
	rep.Elapsed = time.Since(start)
	return rep, nil
}
