package engine

import "github.com/ja7ad/greensched/pkg/model"

// DefaultThroughputWeight keeps the throughput term a tie-breaker next to the
// violation term.
const DefaultThroughputWeight = 1e-5

// Fitness scores one simulated assignment, higher is better.
//
//	f = 1/(1+violations) + k * ref/makespan
//
// ref is the reference work (see Reference). A non-positive makespan drops the
// throughput term.
func Fitness(violations int, makespan, ref, k float64) float64 {
	f := 1 / (1 + float64(violations))
	if makespan > 0 {
		f += k * ref / makespan
	}
	return f
}

// Reference is the longest job length times the number of jobs.
func Reference(jobs []model.Job) float64 {
	return model.MaxLength(jobs) * float64(len(jobs))
}

// Candidate is one scored ant or chromosome.
type Candidate struct {
	Assignment model.Assignment
	Fitness    float64
	Violations int
	Makespan   float64
}

// Best returns the index of the highest fitness, the first one on ties, or -1
// for an empty slice.
func Best(cands []Candidate) int {
	best := -1
	for i := range cands {
		if best < 0 || cands[i].Fitness > cands[best].Fitness {
			best = i
		}
	}
	return best
}
