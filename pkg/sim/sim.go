// Package sim runs one bound assignment to completion and reports finish
// times and per-resource CPU utilization.
//
// The engines and the search loop only see the Simulator interface. The
// SpaceShared implementation is a deterministic discrete simulator: each
// resource runs one job at a time in arrival order, a job starts when it has
// arrived and the resource is free, and it holds the resource for
// length/mips seconds.
package sim

import (
	"context"
	"fmt"
	"sort"

	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/util"
)

//go:generate mockgen -destination=mocks/mock_sim.go -package=mocks github.com/ja7ad/greensched/pkg/sim Simulator

// Simulator executes jobs that are already bound to resources.
//
// Implementations must fill FinishTime and Finished on a copy of jobs and leave
// every other field untouched.
type Simulator interface {
	Simulate(ctx context.Context, hosts []model.Host, resources []model.Resource, jobs []model.Job) (Outcome, error)
}

// Outcome is what one trial produced.
type Outcome struct {
	Jobs        []model.Job
	Utilization map[int]model.Utilization // by resource ID
	Makespan    float64
}

// Config tunes utilization sampling.
//   - Interval: window length in seconds for the utilization series, 0 disables the series
//   - Smoothing: EMA alpha applied over the series, in (0,1]
type Config struct {
	Interval  float64 `yaml:"interval" json:"interval"`
	Smoothing float64 `yaml:"smoothing" json:"smoothing"`
}

func DefaultConfig() Config { return *_defaultConfig() }

func _defaultConfig() *Config {
	return &Config{
		Interval:  0,
		Smoothing: 0.5,
	}
}

// SpaceShared is stateless and safe for concurrent use.
type SpaceShared struct {
	cfg Config
}

var _ Simulator = (*SpaceShared)(nil)

// New creates a simulator. Zero or negative fields keep their defaults.
func New(cfg *Config) *SpaceShared {
	merged := *_defaultConfig()
	if cfg != nil {
		if cfg.Interval > 0 {
			merged.Interval = cfg.Interval
		}
		if cfg.Smoothing > 0 && cfg.Smoothing <= 1 {
			merged.Smoothing = cfg.Smoothing
		}
	}
	return &SpaceShared{cfg: merged}
}

type span struct{ start, end float64 }

// Simulate runs jobs on their bound resources.
func (s *SpaceShared) Simulate(ctx context.Context, hosts []model.Host, resources []model.Resource, jobs []model.Job) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrSimulatorFailure, err)
	}
	if len(resources) == 0 {
		return Outcome{}, fmt.Errorf("%w: no resources", ErrSimulatorFailure)
	}

	hostIDs := make(map[int]struct{}, len(hosts))
	for _, h := range hosts {
		hostIDs[h.ID] = struct{}{}
	}
	byID := make(map[int]int, len(resources))
	for i, r := range resources {
		if _, ok := hostIDs[r.HostID]; !ok {
			return Outcome{}, fmt.Errorf("%w: resource %d on unknown host %d", ErrSimulatorFailure, r.ID, r.HostID)
		}
		if r.MIPS <= 0 {
			return Outcome{}, fmt.Errorf("%w: resource %d has mips %.2f", ErrSimulatorFailure, r.ID, r.MIPS)
		}
		byID[r.ID] = i
	}

	out := make([]model.Job, len(jobs))
	copy(out, jobs)

	queues := make([][]int, len(resources))
	for i, j := range out {
		ri, ok := byID[j.ResourceID]
		if !ok {
			return Outcome{}, fmt.Errorf("%w: job %d bound to unknown resource %d", ErrSimulatorFailure, j.ID, j.ResourceID)
		}
		queues[ri] = append(queues[ri], i)
	}

	spans := make([][]span, len(resources))
	makespan := 0.0
	for ri, q := range queues {
		sort.SliceStable(q, func(a, b int) bool {
			return out[q[a]].SubmissionDelay < out[q[b]].SubmissionDelay
		})
		free := 0.0
		for _, ji := range q {
			j := &out[ji]
			start := max(j.SubmissionDelay, free)
			end := start + resources[ri].ExecTime(j.Length)
			j.FinishTime = end
			j.Finished = true
			free = end
			spans[ri] = append(spans[ri], span{start, end})
		}
		makespan = max(makespan, free)
	}

	usage := make(map[int]model.Utilization, len(resources))
	for ri, r := range resources {
		usage[r.ID] = s.utilization(spans[ri], makespan)
	}

	return Outcome{Jobs: out, Utilization: usage, Makespan: makespan}, nil
}

func (s *SpaceShared) utilization(spans []span, horizon float64) model.Utilization {
	busy := 0.0
	for _, sp := range spans {
		busy += sp.end - sp.start
	}
	u := model.Utilization{Busy: busy, Mean: util.Clamp01(util.SafeDiv(busy, horizon))}
	u.Smoothed = u.Mean

	if s.cfg.Interval <= 0 || horizon <= 0 {
		return u
	}

	ema := util.NewEMA(s.cfg.Smoothing)
	k := 0
	for w := 0.0; w < horizon; w += s.cfg.Interval {
		end := min(w+s.cfg.Interval, horizon)
		// spans are ordered and disjoint; skip those entirely before the window
		for k < len(spans) && spans[k].end <= w {
			k++
		}
		b := 0.0
		for i := k; i < len(spans) && spans[i].start < end; i++ {
			b += min(spans[i].end, end) - max(spans[i].start, w)
		}
		v := util.Clamp01(util.SafeDiv(b, end-w))
		u.Series = append(u.Series, v)
		ema.Next(v)
	}
	u.Smoothed = ema.Value()
	return u
}
