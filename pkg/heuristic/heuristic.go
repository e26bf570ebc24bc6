// Package heuristic turns a pheromone row into a choice of resource for one job.
//
// Each candidate resource gets the weight
//
//	w = pher^alpha * desirability^beta
//
// where desirability comes from the backlog this ant has already queued on the
// resource. With last the projected finish of that backlog and T the sum of
// last over all resources:
//
//	desirability = 0.1                 if last + len/mips > deadline
//	desirability = 1 + 3*(last/T)      otherwise
//	desirability = 1                   while T == 0
//
// Among resources that still meet the deadline, the busier one weighs more.
package heuristic

import (
	"fmt"
	"math/rand/v2"

	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/util"
)

const (
	infeasibleDesirability = 0.1
	backlogBoost           = 3.0
)

// Config weights the two signals.
//   - Alpha: exponent on the pheromone level, <= 0 keeps the default
//   - Beta: exponent on the backlog desirability, <= 0 keeps the default
//   - PheromoneOnly: ignores the backlog and samples on pheromone alone
type Config struct {
	Alpha         float64 `yaml:"alpha" json:"alpha"`
	Beta          float64 `yaml:"beta" json:"beta"`
	PheromoneOnly bool    `yaml:"pheromone_only" json:"pheromone_only"`
}

// DefaultConfig is the weighting of the energy-aware colony.
func DefaultConfig() Config {
	return Config{Alpha: 1, Beta: 2}
}

// Merge fills the unset exponents of c from base.
func (c Config) Merge(base Config) Config {
	if c.Alpha <= 0 {
		c.Alpha = base.Alpha
	}
	if c.Beta <= 0 {
		c.Beta = base.Beta
	}
	return c
}

// Sampler builds one ant's assignment job by job. It keeps the ant's own
// backlog view and is not safe for concurrent use; give every ant its own.
type Sampler struct {
	cfg       Config
	resources []model.Resource
	last      []float64
	weights   []float64
}

func NewSampler(resources []model.Resource, cfg Config) (*Sampler, error) {
	if len(resources) == 0 {
		return nil, ErrEmptyResourcePool
	}
	return &Sampler{
		cfg:       cfg,
		resources: resources,
		last:      make([]float64, len(resources)),
		weights:   make([]float64, len(resources)),
	}, nil
}

// Reset clears the backlog so the sampler can build another assignment.
func (s *Sampler) Reset() {
	clear(s.last)
}

// Weights fills and returns the selection weights of job against row. The
// returned slice is reused by the next call.
func (s *Sampler) Weights(job model.Job, row []float64) ([]float64, error) {
	if len(row) != len(s.resources) {
		return nil, fmt.Errorf("%w: %d cells for %d resources", ErrRowLength, len(row), len(s.resources))
	}

	total := 0.0
	if !s.cfg.PheromoneOnly {
		for _, l := range s.last {
			total += l
		}
	}

	for j, r := range s.resources {
		d := 1.0
		if !s.cfg.PheromoneOnly && total > 0 {
			if s.last[j]+r.ExecTime(job.Length) > job.Deadline {
				d = infeasibleDesirability
			} else {
				d = 1 + backlogBoost*(s.last[j]/total)
			}
		}
		s.weights[j] = util.Pow(row[j], s.cfg.Alpha) * util.Pow(d, s.cfg.Beta)
	}
	return s.weights, nil
}

// Choose samples a resource index for job and queues the job there.
func (s *Sampler) Choose(job model.Job, row []float64, rng *rand.Rand) (int, error) {
	w, err := s.Weights(job, row)
	if err != nil {
		return model.Unbound, err
	}
	idx := Roulette(w, rng.Float64())
	s.Place(job, idx)
	return idx, nil
}

// Place queues job on resource idx and advances that resource's backlog.
func (s *Sampler) Place(job model.Job, idx int) {
	exec := s.resources[idx].ExecTime(job.Length)
	if s.last[idx] > job.SubmissionDelay {
		s.last[idx] += exec
	} else {
		s.last[idx] = job.SubmissionDelay + exec
	}
}

// Backlog returns the projected last finish per resource.
func (s *Sampler) Backlog() []float64 {
	out := make([]float64, len(s.last))
	copy(out, s.last)
	return out
}

// Rows yields the pheromone row of one job.
type Rows interface {
	Row(job int) []float64
}

// Construct resets the sampler and builds a full assignment for jobs in order.
func (s *Sampler) Construct(field Rows, jobs []model.Job, rng *rand.Rand) (model.Assignment, error) {
	s.Reset()
	a := make(model.Assignment, len(jobs))
	for i, j := range jobs {
		idx, err := s.Choose(j, field.Row(i), rng)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", j.ID, err)
		}
		a[i] = idx
	}
	return a, nil
}
