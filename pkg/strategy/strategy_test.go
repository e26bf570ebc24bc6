package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/greensched/pkg/engine"
	"github.com/ja7ad/greensched/pkg/engine/aco"
	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/sim"
)

func TestRegistry_BuiltIns(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"aco", "fcfs", "ga", "round-robin"}, r.Names())

	s := Settings{Options: engine.Options{Simulator: sim.New(nil)}, ACO: &aco.Config{Ants: 3}}
	for _, name := range r.Names() {
		e, err := r.New(name, s)
		require.NoError(t, err, name)
		assert.Equal(t, name, e.Name())
	}

	e, err := r.New("aco", s)
	require.NoError(t, err)
	assert.Equal(t, 3, e.(*aco.Engine).Config().Ants)
}

func TestRegistry_Unknown(t *testing.T) {
	_, err := NewRegistry().New("pso", Settings{})
	require.ErrorIs(t, err, ErrUnknownStrategy)
	assert.Contains(t, err.Error(), "pso")
}

func TestRegistry_PropagatesConfigErrors(t *testing.T) {
	_, err := NewRegistry().New("aco", Settings{ACO: &aco.Config{EvaporationRate: 3}})
	require.ErrorIs(t, err, aco.ErrInvalidConfig)
}

type fixed struct{ name string }

func (f fixed) Name() string { return f.name }
func (f fixed) Run(context.Context, []model.Job, []model.Resource, []model.Host) (*model.TrialResult, error) {
	return &model.TrialResult{Engine: f.name}, nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("fixed", func(Settings) (engine.Engine, error) { return fixed{"fixed"}, nil }))
	require.ErrorIs(t, r.Register("fixed", nil), ErrDuplicate)
	require.ErrorIs(t, r.Register("aco", nil), ErrDuplicate)

	e, err := r.New("fixed", Settings{})
	require.NoError(t, err)
	tr, err := e.Run(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "fixed", tr.Engine)
}
