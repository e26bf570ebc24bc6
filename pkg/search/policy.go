package search

import (
	"fmt"
	"slices"

	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/util"
)

const (
	LowestUtilization = "lowest-utilization"
	HighestPower      = "highest-power"
)

// Policy picks the host to move one state lower after trial tr. It returns
// the host's index in hosts, or -1 when no host can go lower.
type Policy func(tr *model.TrialResult, hosts []model.Host) int

var policies = map[string]Policy{
	LowestUtilization: lowestUtilization,
	HighestPower:      highestPower,
}

// PolicyByName resolves a policy. An empty name selects LowestUtilization.
func PolicyByName(name string) (Policy, error) {
	if name == "" {
		name = LowestUtilization
	}
	p, ok := policies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownPolicy, name, PolicyNames())
	}
	return p, nil
}

// PolicyNames lists the known policies in sorted order.
func PolicyNames() []string {
	out := make([]string, 0, len(policies))
	for n := range policies {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// lowestUtilization picks the least busy host still above its bottom state,
// the lower index on ties.
func lowestUtilization(tr *model.TrialResult, hosts []model.Host) int {
	hu := tr.HostUtilization()
	best := -1
	for i, h := range hosts {
		if h.Power == nil || !h.Power.CanDowngrade() {
			continue
		}
		if best < 0 || hu[h.ID] < hu[hosts[best].ID] {
			best = i
		}
	}
	return best
}

// highestPower picks the host drawing the most watts at its trial
// utilization, the lower index on ties.
func highestPower(tr *model.TrialResult, hosts []model.Host) int {
	hu := tr.HostUtilization()
	best, bestW := -1, 0.0
	for i, h := range hosts {
		if h.Power == nil || !h.Power.CanDowngrade() {
			continue
		}
		w, err := h.Power.Power(util.Clamp01(hu[h.ID]))
		if err != nil {
			continue
		}
		if best < 0 || float64(w) > bestW {
			best, bestW = i, float64(w)
		}
	}
	return best
}
