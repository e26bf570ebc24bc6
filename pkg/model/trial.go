package model

import "github.com/ja7ad/greensched/pkg/types"

// TrialResult is one full engine run: the pool it ran on, the jobs with their
// finish times and what the run cost.
type TrialResult struct {
	Engine         string              `json:"engine"`
	Hosts          []Host              `json:"-"`
	HostStates     []int               `json:"host_states"`
	Resources      []Resource          `json:"resources"`
	Jobs           []Job               `json:"jobs"`
	Assignment     Assignment          `json:"assignment"`
	Utilization    map[int]Utilization `json:"utilization"`
	Makespan       float64             `json:"makespan"`
	Violations     int                 `json:"violations"`
	ViolationRatio float64             `json:"violation_ratio"`
	Energy         types.Joules        `json:"energy_j"`
	Fitness        float64             `json:"fitness"`
	Tardiness      Tardiness           `json:"tardiness"`
}

// IdlePower is the floor the pool draws in its trial states with every host
// idle.
func (t *TrialResult) IdlePower() types.Watts {
	var w types.Watts
	for _, h := range t.Hosts {
		if h.Power != nil {
			w += h.Power.IdlePower()
		}
	}
	return w
}

// HostUtilization averages resource utilization per host.
func (t *TrialResult) HostUtilization() map[int]float64 {
	sum := make(map[int]float64, len(t.Hosts))
	cnt := make(map[int]int, len(t.Hosts))
	for _, r := range t.Resources {
		u, ok := t.Utilization[r.ID]
		if !ok {
			continue
		}
		sum[r.HostID] += u.Mean
		cnt[r.HostID]++
	}
	out := make(map[int]float64, len(sum))
	for id, s := range sum {
		out[id] = s / float64(cnt[id])
	}
	return out
}
