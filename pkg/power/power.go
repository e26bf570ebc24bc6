// Package power implements a discrete performance-state (P-state) power model.
//
// A host exposes a ladder of states ordered by ascending processing fraction.
// The host runs at one state at a time. Its draw at a given utilization is the
// static watts of the current state plus a dynamic part interpolated toward
// the next-higher state:
//
//	P(u) = W[i] + (W[i+1] - W[i]) * u    (i below the top state)
//	P(u) = W[i]                          (i at the top state)
//
// The search loop lowers the state of one host at a time to trade capacity
// for energy; engines never change it.
package power

import (
	"fmt"

	"github.com/ja7ad/greensched/pkg/types"
)

// State is one immutable point on the ladder.
type State struct {
	Watts    types.Watts `yaml:"watts" json:"watts"`
	Fraction float64     `yaml:"fraction" json:"fraction"`
}

// Model is a ladder plus the index of the state the host currently runs at.
type Model struct {
	states  []State
	current int
}

// New validates the ladder and returns a model positioned at start.
func New(states []State, start int) (*Model, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("%w: at least one state is required", ErrInvalidStateLadder)
	}

	prev := 0.0
	for i, s := range states {
		if s.Fraction <= 0 || s.Fraction > 1 {
			return nil, fmt.Errorf("%w: state %d fraction %.4f outside (0,1]", ErrInvalidStateLadder, i, s.Fraction)
		}
		if i > 0 && s.Fraction <= prev {
			return nil, fmt.Errorf("%w: state %d fraction %.4f after %.4f", ErrInvalidStateLadder, i, s.Fraction, prev)
		}
		prev = s.Fraction
	}

	if start < 0 || start >= len(states) {
		return nil, fmt.Errorf("%w: start %d, ladder has %d states", ErrStateOutOfRange, start, len(states))
	}

	cp := make([]State, len(states))
	copy(cp, states)
	return &Model{states: cp, current: start}, nil
}

// Power returns the draw at utilization u of the current state.
func (m *Model) Power(u float64) (types.Watts, error) {
	if u < 0 || u > 1 || u != u {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidUtilization, u)
	}
	cur := m.states[m.current]
	if m.current == len(m.states)-1 {
		return cur.Watts, nil
	}
	next := m.states[m.current+1]
	return cur.Watts + types.Watts(float64(next.Watts-cur.Watts)*u), nil
}

// SetState moves the model to idx.
func (m *Model) SetState(idx int) error {
	if idx < 0 || idx >= len(m.states) {
		return fmt.Errorf("%w: %d not in [0,%d]", ErrStateOutOfRange, idx, len(m.states)-1)
	}
	m.current = idx
	return nil
}

// Downgrade moves one state lower and returns the states it moved between.
func (m *Model) Downgrade() (from, to State, err error) {
	if err := m.SetState(m.current - 1); err != nil {
		return State{}, State{}, err
	}
	return m.states[m.current+1], m.states[m.current], nil
}

// State returns the current state index.
func (m *Model) State() int { return m.current }

// Current returns the current state.
func (m *Model) Current() State { return m.states[m.current] }

// Len returns the number of states on the ladder.
func (m *Model) Len() int { return len(m.states) }

// States returns a copy of the ladder.
func (m *Model) States() []State {
	out := make([]State, len(m.states))
	copy(out, m.states)
	return out
}

// IdlePower is the draw of the current state at zero utilization.
func (m *Model) IdlePower() types.Watts { return m.states[m.current].Watts }

// MaxPower is the draw of the current state at full utilization.
func (m *Model) MaxPower() types.Watts {
	w, _ := m.Power(1)
	return w
}

// CanDowngrade reports whether a lower state exists.
func (m *Model) CanDowngrade() bool { return m.current > 0 }

// Clone returns an independent copy. The ladder itself is immutable and shared.
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	return &Model{states: m.states, current: m.current}
}

func (m *Model) String() string {
	c := m.states[m.current]
	return fmt.Sprintf("P%d/%d(%.2f, %.1fW)", m.current, len(m.states)-1, c.Fraction, float64(c.Watts))
}
