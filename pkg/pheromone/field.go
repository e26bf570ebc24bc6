// Package pheromone holds the jobs x resources trail matrix of the ant colony.
//
// Cells are only ever lowered by Evaporate and raised by Deposit, and both
// clamp, so with initial in [floor, ceiling] every cell stays inside that band.
// A Field is not safe for concurrent mutation; readers may share it while no
// writer runs.
package pheromone

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ja7ad/greensched/pkg/model"
)

type Field struct {
	m *mat.Dense
}

// New creates a jobs x resources field with every cell set to initial.
func New(jobs, resources int, initial float64) (*Field, error) {
	if jobs <= 0 || resources <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, jobs, resources)
	}
	data := make([]float64, jobs*resources)
	for i := range data {
		data[i] = initial
	}
	return &Field{m: mat.NewDense(jobs, resources, data)}, nil
}

// Evaporate decays every cell by rate and raises it back to floor if it fell
// below.
//
//	cell = max(cell * (1 - rate), floor)
func (f *Field) Evaporate(rate, floor float64) {
	keep := 1 - rate
	f.m.Apply(func(_, _ int, v float64) float64 {
		return max(v*keep, floor)
	}, f.m)
}

// Deposit adds amount to every (job, resource) cell the assignment uses and
// clamps the result down to ceiling.
func (f *Field) Deposit(a model.Assignment, amount, ceiling float64) error {
	rows, cols := f.m.Dims()
	if len(a) != rows || !a.Complete(cols) {
		return fmt.Errorf("%w: %d jobs for a %dx%d field", ErrAssignmentShape, len(a), rows, cols)
	}
	for job, r := range a {
		f.m.Set(job, r, min(f.m.At(job, r)+amount, ceiling))
	}
	return nil
}

// Row returns a copy of the trail levels of one job.
func (f *Field) Row(job int) []float64 {
	return mat.Row(nil, job, f.m)
}

func (f *Field) At(job, resource int) float64 { return f.m.At(job, resource) }

// Dims returns (jobs, resources).
func (f *Field) Dims() (int, int) { return f.m.Dims() }

// Bounds returns the smallest and largest cell.
func (f *Field) Bounds() (lo, hi float64) {
	return mat.Min(f.m), mat.Max(f.m)
}
