package consumption

import (
	"fmt"

	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/types"
	"github.com/ja7ad/greensched/pkg/util"
)

// Accumulator keeps running energy and average power across samples.
type Accumulator struct {
	cfg        *Config
	energyCumJ types.Joules
	count      int
	sumPower   types.Watts
	perHost    map[int]types.Joules
}

// New creates an accumulator with the given config.
// Notes:
//   - Delays and powers are accepted verbatim when >= 0 (0 disables a transition).
//   - Negative values are treated as "unset" and defaulted.
func New(cfg *Config) *Accumulator {
	base := _defaultConfig()

	if cfg == nil {
		return &Accumulator{cfg: base, perHost: make(map[int]types.Joules)}
	}

	merged := *base
	if cfg.StartupDelay >= 0 {
		merged.StartupDelay = cfg.StartupDelay
	}
	if cfg.StartupPower >= 0 {
		merged.StartupPower = cfg.StartupPower
	}
	if cfg.ShutdownDelay >= 0 {
		merged.ShutdownDelay = cfg.ShutdownDelay
	}
	if cfg.ShutdownPower >= 0 {
		merged.ShutdownPower = cfg.ShutdownPower
	}

	return &Accumulator{cfg: &merged, perHost: make(map[int]types.Joules)}
}

// Apply charges one sample against host h and updates the running totals.
//
//	E_cum += P(u) * dt
func (a *Accumulator) Apply(h model.Host, s Sample) (Result, error) {
	if h.Power == nil {
		return Result{}, fmt.Errorf("consumption: host %d has no power model", h.ID)
	}
	p, err := h.Power.Power(util.Clamp01(s.Utilization))
	if err != nil {
		return Result{}, fmt.Errorf("consumption: host %d: %w", h.ID, err)
	}
	e := p.Over(s.DurationSec)

	a.energyCumJ += e
	a.perHost[h.ID] += e
	a.count++
	a.sumPower += p

	return Result{Power: p, Energy: e}, nil
}

// Transitions charges one startup and one shutdown for host id.
func (a *Accumulator) Transitions(id int) types.Joules {
	e := a.cfg.StartupPower.Over(a.cfg.StartupDelay) + a.cfg.ShutdownPower.Over(a.cfg.ShutdownDelay)
	a.energyCumJ += e
	a.perHost[id] += e
	return e
}

// EnergyCumJ returns cumulative energy.
func (a *Accumulator) EnergyCumJ() types.Joules { return a.energyCumJ }

// HostEnergy returns the energy charged to one host.
func (a *Accumulator) HostEnergy(id int) types.Joules { return a.perHost[id] }

// AveragePower returns the mean power over all applied samples.
func (a *Accumulator) AveragePower() types.Watts {
	if a.count == 0 {
		return 0
	}
	return a.sumPower / types.Watts(a.count)
}

// Trial charges every host at its mean utilization for the whole horizon
// plus its transitions, and returns the trial's energy.
func Trial(cfg *Config, hosts []model.Host, hostUtil map[int]float64, horizon float64) (types.Joules, error) {
	acc := New(cfg)
	for _, h := range hosts {
		if _, err := acc.Apply(h, Sample{Utilization: hostUtil[h.ID], DurationSec: horizon}); err != nil {
			return 0, err
		}
		acc.Transitions(h.ID)
	}
	return acc.EnergyCumJ(), nil
}
