package power

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/greensched/pkg/types"
)

func twoState(t *testing.T) *Model {
	t.Helper()
	m, err := New([]State{{Watts: 50, Fraction: 0.3}, {Watts: 60, Fraction: 1.0}}, 0)
	require.NoError(t, err)
	return m
}

func TestPower_TwoStateInterpolation(t *testing.T) {
	m := twoState(t)

	w, err := m.Power(0.5)
	require.NoError(t, err)
	assert.InDelta(t, 55.0, float64(w), 1e-12)

	w, err = m.Power(0)
	require.NoError(t, err)
	assert.Equal(t, types.Watts(50), w)

	w, err = m.Power(1)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, float64(w), 1e-12)
}

func TestPower_TopStateHasNoDynamicPart(t *testing.T) {
	m := twoState(t)
	require.NoError(t, m.SetState(1))

	for _, u := range []float64{0, 0.25, 1} {
		w, err := m.Power(u)
		require.NoError(t, err)
		assert.Equal(t, types.Watts(60), w, "u=%v", u)
	}
}

func TestPower_InvalidUtilization(t *testing.T) {
	m := twoState(t)
	for _, u := range []float64{-0.01, 1.01, math.NaN()} {
		_, err := m.Power(u)
		require.ErrorIs(t, err, ErrInvalidUtilization, "u=%v", u)
	}
}

func TestSetState_OutOfRange(t *testing.T) {
	m := twoState(t)
	require.ErrorIs(t, m.SetState(-1), ErrStateOutOfRange)
	require.ErrorIs(t, m.SetState(2), ErrStateOutOfRange)
	assert.Equal(t, 0, m.State(), "failed SetState must not move the model")
}

func TestNew_InvalidLadders(t *testing.T) {
	cases := []struct {
		name   string
		states []State
	}{
		{"empty", nil},
		{"zero fraction", []State{{Watts: 10, Fraction: 0}}},
		{"fraction above one", []State{{Watts: 10, Fraction: 1.2}}},
		{"descending", []State{{Watts: 10, Fraction: 0.8}, {Watts: 20, Fraction: 0.4}}},
		{"duplicate", []State{{Watts: 10, Fraction: 0.5}, {Watts: 20, Fraction: 0.5}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.states, 0)
			require.ErrorIs(t, err, ErrInvalidStateLadder)
		})
	}
}

func TestNew_StartOutOfRange(t *testing.T) {
	_, err := New([]State{{Watts: 10, Fraction: 1}}, 1)
	require.ErrorIs(t, err, ErrStateOutOfRange)
}

func TestNew_CopiesLadder(t *testing.T) {
	states := []State{{Watts: 10, Fraction: 0.5}, {Watts: 20, Fraction: 1}}
	m, err := New(states, 1)
	require.NoError(t, err)
	states[1].Watts = 999
	assert.Equal(t, types.Watts(20), m.Current().Watts)
}

func TestDowngrade_WalksToBottom(t *testing.T) {
	m, err := New(ViaC7M, len(ViaC7M)-1)
	require.NoError(t, err)

	steps := 0
	for m.CanDowngrade() {
		from, to, err := m.Downgrade()
		require.NoError(t, err)
		assert.Less(t, to.Fraction, from.Fraction)
		steps++
		t.Logf("step %d: %s", steps, m)
	}
	assert.Equal(t, len(ViaC7M)-1, steps)
	assert.Equal(t, 0, m.State())

	_, _, err = m.Downgrade()
	require.ErrorIs(t, err, ErrStateOutOfRange)
}

func TestClone_IsIndependent(t *testing.T) {
	m, err := New(AMDOpteron, 7)
	require.NoError(t, err)
	c := m.Clone()
	require.NoError(t, c.SetState(2))
	assert.Equal(t, 7, m.State())
	assert.Equal(t, 2, c.State())
}

func TestPresets_AreValid(t *testing.T) {
	for _, name := range []string{"via-c7m", "amd-opteron"} {
		l := Ladder(name)
		require.NotNil(t, l, name)
		m, err := New(l, len(l)-1)
		require.NoError(t, err, name)
		assert.Equal(t, 1.0, m.Current().Fraction)
	}
	assert.Nil(t, Ladder("nope"))
}

func TestScaled(t *testing.T) {
	s := Scaled(AMDOpteron, 2)
	require.Len(t, s, len(AMDOpteron))
	assert.Equal(t, types.Watts(40), s[len(s)-1].Watts)
	assert.Equal(t, AMDOpteron[0].Fraction, s[0].Fraction)
	assert.Equal(t, types.Watts(20), AMDOpteron[len(AMDOpteron)-1].Watts, "source untouched")
}

func ExampleModel_Power() {
	m, _ := New([]State{{Watts: 50, Fraction: 0.3}, {Watts: 60, Fraction: 1.0}}, 0)
	w, _ := m.Power(0.5)
	fmt.Printf("%.1f W\n", float64(w))
	// Output: 55.0 W
}
