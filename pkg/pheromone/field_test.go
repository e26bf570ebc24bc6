package pheromone

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/greensched/pkg/model"
)

func TestNew_Uniform(t *testing.T) {
	f, err := New(3, 4, 1.0)
	require.NoError(t, err)

	r, c := f.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 4, c)
	assert.Equal(t, []float64{1, 1, 1, 1}, f.Row(2))

	_, err = New(0, 4, 1)
	require.ErrorIs(t, err, ErrInvalidDimensions)
	_, err = New(2, 0, 1)
	require.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestEvaporate_RespectsFloor(t *testing.T) {
	f, err := New(2, 2, 1.0)
	require.NoError(t, err)

	f.Evaporate(0.2, 0.5)
	assert.InDelta(t, 0.8, f.At(0, 0), 1e-12)

	f.Evaporate(0.2, 0.7)
	assert.InDelta(t, 0.7, f.At(1, 1), 1e-12)
}

func TestDeposit_ClampsToCeiling(t *testing.T) {
	f, err := New(3, 2, 1.0)
	require.NoError(t, err)

	require.NoError(t, f.Deposit(model.Assignment{0, 1, 1}, 6, 10))
	assert.InDelta(t, 7.0, f.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, f.At(0, 1), 1e-12)

	require.NoError(t, f.Deposit(model.Assignment{0, 1, 1}, 6, 10))
	assert.InDelta(t, 10.0, f.At(0, 0), 1e-12)
	assert.InDelta(t, 10.0, f.At(2, 1), 1e-12)
	assert.InDelta(t, 1.0, f.At(2, 0), 1e-12)
}

func TestDeposit_RejectsBadShape(t *testing.T) {
	f, err := New(2, 2, 1.0)
	require.NoError(t, err)

	require.ErrorIs(t, f.Deposit(model.Assignment{0}, 1, 10), ErrAssignmentShape)
	require.ErrorIs(t, f.Deposit(model.Assignment{0, 2}, 1, 10), ErrAssignmentShape)
	require.ErrorIs(t, f.Deposit(model.Assignment{model.Unbound, 0}, 1, 10), ErrAssignmentShape)
}

func TestField_StaysWithinBand(t *testing.T) {
	const (
		jobs, resources = 20, 5
		floor, ceiling  = 0.8, 10.0
	)
	f, err := New(jobs, resources, 1.0)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(7, 11))
	for it := 0; it < 500; it++ {
		if rng.IntN(2) == 0 {
			f.Evaporate(rng.Float64(), floor)
			continue
		}
		a := make(model.Assignment, jobs)
		for i := range a {
			a[i] = rng.IntN(resources)
		}
		require.NoError(t, f.Deposit(a, rng.Float64()*60, ceiling))

		lo, hi := f.Bounds()
		require.GreaterOrEqual(t, lo, floor, "iteration %d", it)
		require.LessOrEqual(t, hi, ceiling, "iteration %d", it)
	}
	lo, hi := f.Bounds()
	t.Logf("final band [%.3f, %.3f]", lo, hi)
}

func TestRow_IsCopy(t *testing.T) {
	f, err := New(1, 2, 1.0)
	require.NoError(t, err)

	row := f.Row(0)
	row[0] = 42
	assert.Equal(t, 1.0, f.At(0, 0))
}
