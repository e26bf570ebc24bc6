package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ja7ad/greensched/pkg/heuristic"
	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/power"
	"github.com/ja7ad/greensched/pkg/sim"
	"github.com/ja7ad/greensched/pkg/sim/mocks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func pool(t *testing.T) ([]model.Host, []model.Resource) {
	t.Helper()
	ladder := []power.State{{Watts: 50, Fraction: 0.5}, {Watts: 60, Fraction: 1.0}}
	hosts := make([]model.Host, 2)
	for i, mips := range []float64{1000, 2000} {
		m, err := power.New(ladder, 1)
		require.NoError(t, err)
		hosts[i] = model.Host{ID: i, MIPS: mips, PEs: 1, Power: m}
	}
	res := []model.Resource{
		{ID: 0, MIPS: 1000, PEs: 1, HostID: 0},
		{ID: 1, MIPS: 2000, PEs: 1, HostID: 1},
	}
	return hosts, res
}

func jobs(n int, length, deadline float64) []model.Job {
	out := make([]model.Job, n)
	for i := range out {
		out[i] = model.Job{ID: i, Length: length, PEs: 1, Deadline: deadline, ResourceID: model.Unbound}
	}
	return out
}

func TestFitness_Monotonic(t *testing.T) {
	ref := Reference(jobs(5, 500, 1000))
	require.Equal(t, 2500.0, ref)

	for _, k := range []float64{DefaultThroughputWeight, 0.01, 1} {
		fast := Fitness(0, 10, ref, k)
		slow := Fitness(0, 20, ref, k)
		t.Logf("k=%g fast=%.8f slow=%.8f", k, fast, slow)
		assert.Greater(t, fast, slow)
	}

	assert.Greater(t, Fitness(0, 1e6, ref, DefaultThroughputWeight), Fitness(1, 1, ref, DefaultThroughputWeight),
		"one violation outweighs any makespan gain at the default weight")
	assert.Equal(t, 0.5, Fitness(1, 0, ref, 1))
}

func TestBest_FirstMaxWins(t *testing.T) {
	cands := []Candidate{{Fitness: 0.2}, {Fitness: 0.9}, {Fitness: 0.9}, {Fitness: 0.1}}
	assert.Equal(t, 1, Best(cands))
	assert.Equal(t, -1, Best(nil))
}

func TestOptions_WithDefaults(t *testing.T) {
	o := Options{}.WithDefaults()
	assert.Positive(t, o.Workers)
	assert.NotZero(t, o.Seed)
	assert.Equal(t, DefaultThroughputWeight, o.ThroughputWeight)
	assert.NotNil(t, o.Logger)
	assert.NotNil(t, o.Observer)

	o = Options{Workers: 3, Seed: 9, ThroughputWeight: 0.5}.WithDefaults()
	assert.Equal(t, 3, o.Workers)
	assert.Equal(t, uint64(9), o.Seed)
	assert.Equal(t, 0.5, o.ThroughputWeight)
}

func TestStream_Deterministic(t *testing.T) {
	a, b := Stream(42, 3), Stream(42, 3)
	for i := 0; i < 10; i++ {
		require.Equal(t, a.Uint64(), b.Uint64())
	}
	assert.NotEqual(t, Stream(42, 3).Uint64(), Stream(42, 4).Uint64())
}

func TestValidate(t *testing.T) {
	_, res := pool(t)
	opts := Options{Simulator: sim.New(nil)}

	require.ErrorIs(t, Validate(Options{}, jobs(1, 1, 1), res), ErrNoSimulator)
	require.ErrorIs(t, Validate(opts, jobs(1, 1, 1), nil), heuristic.ErrEmptyResourcePool)
	require.ErrorIs(t, Validate(opts, nil, res), ErrNoJobs)
	require.NoError(t, Validate(opts, jobs(1, 1, 1), res))
}

func TestEvaluator_EvenSplitScenario(t *testing.T) {
	hosts, res := pool(t)
	opts := Options{Simulator: sim.New(nil), Workers: 2, Seed: 1}.WithDefaults()
	ev := NewEvaluator(opts, jobs(5, 500, 1000), res, hosts)

	tr, err := ev.Trial(context.Background(), "split", model.Assignment{0, 1, 0, 1, 1})
	require.NoError(t, err)
	assert.Zero(t, tr.Violations)
	assert.Zero(t, tr.ViolationRatio)
	assert.InDelta(t, 1.0, tr.Makespan, 1e-12)
	assert.Equal(t, []int{1, 1}, tr.HostStates)
	assert.Positive(t, float64(tr.Energy))
	assert.Equal(t, 5, tr.Tardiness.Finished)
	assert.Zero(t, tr.Tardiness.Violations)
	for _, j := range tr.Jobs {
		assert.NotEqual(t, model.Unbound, j.ResourceID)
		assert.True(t, j.Finished)
	}
	t.Logf("energy=%s fitness=%.6f", tr.Energy.Humanized(), tr.Fitness)
}

func TestEvaluator_AllOnSlowResource(t *testing.T) {
	hosts, res := pool(t)
	opts := Options{Simulator: sim.New(nil), Workers: 2, Seed: 1}.WithDefaults()
	allSlow := model.Assignment{0, 0, 0, 0, 0}

	// 5 x 500 MI at 1000 MIPS is 2.5 s of work, far inside a 1000 s deadline.
	c, err := NewEvaluator(opts, jobs(5, 500, 1000), res, hosts).Score(context.Background(), allSlow)
	require.NoError(t, err)
	assert.Zero(t, c.Violations)

	// Once the queue on the slow resource runs past 1000 s, late jobs appear.
	c, err = NewEvaluator(opts, jobs(5, 500_000, 1000), res, hosts).Score(context.Background(), allSlow)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, c.Violations, 1)
	assert.Equal(t, 3, c.Violations)
	assert.InDelta(t, 2500.0, c.Makespan, 1e-9)
}

func TestEvaluator_TardinessBreakdown(t *testing.T) {
	hosts, res := pool(t)
	opts := Options{Simulator: sim.New(nil), Workers: 1}.WithDefaults()

	// back to back on 1000 MIPS: finishes at 0.5, 1.0, ..., 2.5 against a 1 s deadline
	tr, err := NewEvaluator(opts, jobs(5, 500, 1), res, hosts).Trial(context.Background(), "late", model.Assignment{0, 0, 0, 0, 0})
	require.NoError(t, err)

	td := tr.Tardiness
	t.Logf("%+v", td)
	assert.Equal(t, tr.Violations, td.Violations)
	assert.Equal(t, 3, td.Violations)
	assert.InDelta(t, 1.5, td.Max, 1e-9)
	assert.InDelta(t, 1.0, td.Mean(), 1e-9)
	assert.InDelta(t, 0.6, td.ViolatedWork, 1e-9)
	assert.Equal(t, [3]int{0, 1, 2}, [3]int{td.Tiers[0].Count, td.Tiers[1].Count, td.Tiers[2].Count})
}

func TestEvaluator_RejectsPartialAssignment(t *testing.T) {
	hosts, res := pool(t)
	opts := Options{Simulator: sim.New(nil)}.WithDefaults()
	ev := NewEvaluator(opts, jobs(3, 500, 1000), res, hosts)

	_, err := ev.Score(context.Background(), model.Assignment{0, 1})
	require.ErrorIs(t, err, ErrBadAssignment)
	_, err = ev.Score(context.Background(), model.Assignment{0, model.Unbound, 1})
	require.ErrorIs(t, err, ErrBadAssignment)
}

func TestEvaluator_SimulatorFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hosts, res := pool(t)
	m := mocks.NewMockSimulator(ctrl)
	boom := errors.New("substrate crashed")
	m.EXPECT().Simulate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(sim.Outcome{}, boom).MinTimes(1)

	opts := Options{Simulator: m, Workers: 4}.WithDefaults()
	ev := NewEvaluator(opts, jobs(5, 500, 1000), res, hosts)

	pop := make([]model.Assignment, 16)
	for i := range pop {
		pop[i] = model.Assignment{0, 1, 0, 1, 0}
	}
	_, err := ev.Evaluate(context.Background(), pop)
	require.ErrorIs(t, err, sim.ErrSimulatorFailure)
	require.ErrorIs(t, err, boom)
}

func TestEvaluator_ParallelBounded(t *testing.T) {
	hosts, res := pool(t)
	opts := Options{Simulator: sim.New(nil), Workers: 3}.WithDefaults()
	ev := NewEvaluator(opts, jobs(2, 1, 1), res, hosts)

	var inflight, peak, calls atomic.Int32
	err := ev.Parallel(context.Background(), 50, func(ctx context.Context, i int) error {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		calls.Add(1)
		inflight.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(50), calls.Load())
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestEvaluator_TemplatesIsolated(t *testing.T) {
	hosts, res := pool(t)
	js := jobs(2, 500, 1000)
	opts := Options{Simulator: sim.New(nil)}.WithDefaults()
	ev := NewEvaluator(opts, js, res, hosts)

	require.NoError(t, hosts[0].Power.SetState(0))
	js[0].Length = 1

	tr, err := ev.Trial(context.Background(), "iso", model.Assignment{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, tr.HostStates[0])
	assert.Equal(t, 500.0, tr.Jobs[0].Length)
}
