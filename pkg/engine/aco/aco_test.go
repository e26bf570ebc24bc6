package aco

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ja7ad/greensched/pkg/engine"
	enginemocks "github.com/ja7ad/greensched/pkg/engine/mocks"
	"github.com/ja7ad/greensched/pkg/heuristic"
	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/power"
	"github.com/ja7ad/greensched/pkg/sim"
	simmocks "github.com/ja7ad/greensched/pkg/sim/mocks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func pool(t *testing.T, mips ...float64) ([]model.Host, []model.Resource) {
	t.Helper()
	hosts := make([]model.Host, len(mips))
	res := make([]model.Resource, len(mips))
	for i, m := range mips {
		pm, err := power.New(power.ViaC7M, len(power.ViaC7M)-1)
		require.NoError(t, err)
		hosts[i] = model.Host{ID: i, MIPS: m, PEs: 1, Power: pm}
		res[i] = model.Resource{ID: i, MIPS: m, PEs: 1, HostID: i}
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

func sized(ants, iterations int) *Config {
	c := DefaultConfig()
	c.Ants, c.Iterations = ants, iterations
	return &c
}

func small() *Config {
	return sized(12, 8)
}

func TestNew_MergesDefaults(t *testing.T) {
	e, err := New(&Config{Ants: 5, EvaporationRate: -1}, engine.Options{Simulator: sim.New(nil)})
	require.NoError(t, err)

	c := e.Config()
	assert.Equal(t, 5, c.Ants)
	assert.Equal(t, 100, c.Iterations)
	assert.Equal(t, 0.2, c.EvaporationRate)
	assert.Equal(t, 0.8, c.MinPheromone)
	assert.Equal(t, 10.0, c.MaxPheromone)
	assert.Equal(t, 3.0, c.DepositScale)
	require.NotNil(t, c.Heuristic)
	assert.Equal(t, heuristic.DefaultConfig(), *c.Heuristic)
	assert.Equal(t, Name, e.Name())
}

func TestNew_KeepsZeroEvaporation(t *testing.T) {
	e, err := New(&Config{Ants: 5}, engine.Options{})
	require.NoError(t, err)
	assert.Zero(t, e.Config().EvaporationRate)

	e, err = New(&Config{EvaporationRate: 0.5}, engine.Options{})
	require.NoError(t, err)
	assert.Equal(t, 0.5, e.Config().EvaporationRate)
}

func TestNew_MergesPartialHeuristic(t *testing.T) {
	own := &heuristic.Config{Alpha: 2}
	e, err := New(&Config{Heuristic: own}, engine.Options{})
	require.NoError(t, err)

	h := e.Config().Heuristic
	require.NotNil(t, h)
	assert.Equal(t, heuristic.Config{Alpha: 2, Beta: 2}, *h)
	assert.False(t, h.PheromoneOnly)
	assert.Zero(t, own.Beta, "caller config untouched")

	h.Alpha = 9
	assert.Equal(t, 2.0, own.Alpha, "merged heuristic is a copy")
}

func TestNew_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"evaporation too high", Config{EvaporationRate: 1.5}},
		{"evaporation of one", Config{EvaporationRate: 1}},
		{"band inverted", Config{MinPheromone: 5, MaxPheromone: 2, InitialPheromone: 3}},
		{"initial outside band", Config{InitialPheromone: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&tt.cfg, engine.Options{})
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestRun_BindsEveryJobOnce(t *testing.T) {
	hosts, res := pool(t, 1000, 2000)
	js := jobs(5, 500, 1000)

	e, err := New(small(), engine.Options{Simulator: sim.New(nil), Workers: 4, Seed: 7})
	require.NoError(t, err)

	tr, err := e.Run(context.Background(), js, res, hosts)
	require.NoError(t, err)

	require.Len(t, tr.Assignment, len(js))
	require.True(t, tr.Assignment.Complete(len(res)))
	for i, j := range tr.Jobs {
		assert.Equal(t, res[tr.Assignment[i]].ID, j.ResourceID)
		assert.True(t, j.Finished)
	}
	assert.Zero(t, tr.Violations)
	assert.Equal(t, Name, tr.Engine)
	assert.Positive(t, float64(tr.Energy))
	t.Logf("assignment=%v makespan=%.3f energy=%s", tr.Assignment, tr.Makespan, tr.Energy.Humanized())

	// caller templates untouched
	for _, j := range js {
		assert.Equal(t, model.Unbound, j.ResourceID)
		assert.False(t, j.Finished)
	}
}

func TestRun_AvoidsInfeasibleResource(t *testing.T) {
	// anything on r0 takes 10 s against a 1.5 s deadline
	hosts, res := pool(t, 100, 10_000)
	js := jobs(10, 1000, 1.5)

	e, err := New(sized(20, 20), engine.Options{Simulator: sim.New(nil), Seed: 3})
	require.NoError(t, err)

	tr, err := e.Run(context.Background(), js, res, hosts)
	require.NoError(t, err)
	t.Logf("assignment=%v violations=%d", tr.Assignment, tr.Violations)
	assert.LessOrEqual(t, tr.Violations, 1)
}

func TestRun_DeterministicAcrossWorkers(t *testing.T) {
	hosts, res := pool(t, 1000, 1500, 2000)
	js := jobs(12, 800, 3)

	run := func(workers int) model.Assignment {
		e, err := New(small(), engine.Options{Simulator: sim.New(nil), Workers: workers, Seed: 99})
		require.NoError(t, err)
		tr, err := e.Run(context.Background(), js, res, hosts)
		require.NoError(t, err)
		return tr.Assignment
	}

	assert.Equal(t, run(1), run(6))
}

func TestRun_EmptyPool(t *testing.T) {
	e, err := New(small(), engine.Options{Simulator: sim.New(nil)})
	require.NoError(t, err)

	_, err = e.Run(context.Background(), jobs(3, 1, 1), nil, nil)
	require.ErrorIs(t, err, heuristic.ErrEmptyResourcePool)
}

func TestRun_SimulatorFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hosts, res := pool(t, 1000, 2000)
	m := simmocks.NewMockSimulator(ctrl)
	m.EXPECT().Simulate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(sim.Outcome{}, errors.New("broken")).MinTimes(1)

	e, err := New(small(), engine.Options{Simulator: m, Workers: 2})
	require.NoError(t, err)

	tr, err := e.Run(context.Background(), jobs(5, 500, 1000), res, hosts)
	require.ErrorIs(t, err, sim.ErrSimulatorFailure)
	assert.Nil(t, tr)
}

func TestRun_ReportsProgress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hosts, res := pool(t, 1000, 2000)
	obs := enginemocks.NewMockObserver(ctrl)
	obs.EXPECT().Iteration(Name, gomock.Any(), gomock.Any()).Times(8)
	obs.EXPECT().Trial(Name, gomock.Any(), gomock.Any()).Times(1)

	e, err := New(small(), engine.Options{Simulator: sim.New(nil), Observer: obs, Seed: 1})
	require.NoError(t, err)

	_, err = e.Run(context.Background(), jobs(5, 500, 1000), res, hosts)
	require.NoError(t, err)
}
