// Package workload generates the job batches and host pools used by the
// experiments: arrivals are grouped in 10 second frames, lengths are in MI and
// deadlines are absolute seconds.
package workload

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ja7ad/greensched/pkg/model"
)

const (
	Uniform = "uniform"
	Bursty  = "bursty"

	frameSec = 10.0
)

// Config describes a job batch.
//   - Frames: number of 10 s arrival frames
//   - PerFrame: mean arrivals per frame, the actual count is PerFrame-2..PerFrame+2
//   - BurstSize: jobs in a long-job burst, usually the number of hosts
//   - Seed: 0 picks a random seed
type Config struct {
	Kind      string  `yaml:"kind" json:"kind"`
	Frames    int     `yaml:"frames" json:"frames"`
	PerFrame  int     `yaml:"per_frame" json:"per_frame"`
	LengthMin float64 `yaml:"length_min" json:"length_min"`
	LengthMax float64 `yaml:"length_max" json:"length_max"`
	BurstSize int     `yaml:"burst_size" json:"burst_size"`
	Seed      uint64  `yaml:"seed" json:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Kind:      Uniform,
		Frames:    30,
		PerFrame:  5,
		LengthMin: 1000,
		LengthMax: 5000,
		BurstSize: 5,
	}
}

// Merge fills every unset field of c from base.
func (c Config) Merge(base Config) Config {
	if c.Kind == "" {
		c.Kind = base.Kind
	}
	if c.Frames <= 0 {
		c.Frames = base.Frames
	}
	if c.PerFrame <= 0 {
		c.PerFrame = base.PerFrame
	}
	if c.LengthMin <= 0 {
		c.LengthMin = base.LengthMin
	}
	if c.LengthMax <= 0 {
		c.LengthMax = base.LengthMax
	}
	if c.BurstSize <= 0 {
		c.BurstSize = base.BurstSize
	}
	if c.Seed == 0 {
		c.Seed = base.Seed
	}
	return c
}

func (c Config) Validate() error {
	switch {
	case c.Kind != Uniform && c.Kind != Bursty:
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	case c.Frames <= 0 || c.PerFrame <= 0 || c.BurstSize <= 0:
		return fmt.Errorf("%w: frames=%d per_frame=%d burst_size=%d", ErrInvalidConfig, c.Frames, c.PerFrame, c.BurstSize)
	case c.LengthMin <= 0 || c.LengthMax < c.LengthMin:
		return fmt.Errorf("%w: length range [%.0f, %.0f]", ErrInvalidConfig, c.LengthMin, c.LengthMax)
	}
	return nil
}

// Jobs generates the batch described by cfg, sorted by submission delay.
func Jobs(cfg Config) ([]model.Job, error) {
	cfg = cfg.Merge(DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	var jobs []model.Job
	switch cfg.Kind {
	case Bursty:
		jobs = bursty(rng, cfg)
	default:
		jobs = uniform(rng, cfg)
	}
	slices.SortStableFunc(jobs, func(a, b model.Job) int {
		return cmp.Compare(a.SubmissionDelay, b.SubmissionDelay)
	})
	return jobs, nil
}

type builder struct {
	jobs []model.Job
}

func (b *builder) add(length, submission, deadline float64) {
	b.jobs = append(b.jobs, model.Job{
		ID:              len(b.jobs),
		Length:          math.Floor(length),
		PEs:             1,
		SubmissionDelay: submission,
		Deadline:        deadline,
		ResourceID:      model.Unbound,
	})
}

// uniform spreads jobs evenly over each frame with loose deadlines. One frame
// in ten carries BurstSize ten-times-longer jobs instead.
func uniform(rng *rand.Rand, cfg Config) []model.Job {
	var b builder
	length := distuv.Uniform{Min: cfg.LengthMin, Max: cfg.LengthMin + cfg.LengthMax}
	exec := distuv.Uniform{Min: 1, Max: 3}

	for frame := 0; frame < cfg.Frames; frame++ {
		start := float64(frame) * frameSec
		count := cfg.PerFrame - 2 + rng.IntN(5)
		burst := rng.Float64() < 0.1
		if burst {
			count = cfg.BurstSize
		}

		for i := 0; i < count; i++ {
			t := exec.Quantile(rng.Float64())
			l := min(length.Quantile(rng.Float64()), cfg.LengthMax)
			if burst {
				t *= 100
				l *= 10
			}
			sub := start + rng.Float64()*frameSec
			b.add(l, sub, sub+t*10+5)
		}
	}
	return b.jobs
}

// bursty mixes heavy-tailed regular arrivals, a spike every fifth frame,
// clusters of four short jobs with tight deadlines and occasional groups of
// very long jobs.
func bursty(rng *rand.Rand, cfg Config) []model.Job {
	var b builder
	heavy := distuv.LogNormal{Mu: 1.5, Sigma: 1}
	short := distuv.Uniform{Min: 1, Max: 2}
	long := distuv.Uniform{Min: 10, Max: 310}

	for frame := 0; frame < cfg.Frames; frame++ {
		start := float64(frame) * frameSec
		count := cfg.PerFrame - 2 + rng.IntN(5)
		if frame%5 == 0 {
			count += 10
		}

		if rng.Float64() < 0.2 {
			at := start + rng.Float64()*frameSec/2
			for j := 0; j < 4; j++ {
				t := short.Quantile(rng.Float64())
				sub := at + float64(j)*0.01
				b.add(t*cfg.LengthMin, sub, sub+t*1.2+1)
			}
		}

		if rng.Float64() < 0.1 {
			for j := 0; j < cfg.BurstSize; j++ {
				t := long.Quantile(rng.Float64())
				sub := start + rng.Float64()*frameSec/2
				b.add(t*cfg.LengthMin, sub, sub+t*float64(cfg.BurstSize)+2)
			}
		}

		for i := 0; i < count; i++ {
			t := min(heavy.Quantile(rng.Float64()), 20)
			sub := start + rng.Float64()*frameSec
			jitter := 1 + rng.Float64()*2
			b.add(t*cfg.LengthMin, sub, sub+t*1.5+jitter)
		}
	}
	return b.jobs
}

// Summary describes a batch.
type Summary struct {
	Count       int     `json:"count"`
	MeanLength  float64 `json:"mean_length"`
	StdLength   float64 `json:"std_length"`
	MeanSlack   float64 `json:"mean_slack_sec"`
	LastArrival float64 `json:"last_arrival_sec"`
}

// Describe summarizes jobs. Slack is the time between submission and
// deadline.
func Describe(jobs []model.Job) Summary {
	if len(jobs) == 0 {
		return Summary{}
	}
	lengths := make([]float64, len(jobs))
	slack := make([]float64, len(jobs))
	last := 0.0
	for i, j := range jobs {
		lengths[i] = j.Length
		slack[i] = j.Deadline - j.SubmissionDelay
		last = max(last, j.SubmissionDelay)
	}
	mean, std := stat.MeanStdDev(lengths, nil)
	return Summary{
		Count:       len(jobs),
		MeanLength:  mean,
		StdLength:   std,
		MeanSlack:   stat.Mean(slack, nil),
		LastArrival: last,
	}
}
