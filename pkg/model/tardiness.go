package model

import "math"

// Late jobs fall into tiers by tardiness relative to their deadline:
// up to 10%, up to 50%, beyond.
var tierBounds = [...]float64{0.10, 0.50}

// Tier aggregates the late jobs of one severity band. Times are seconds.
type Tier struct {
	Count int     `json:"count"`
	Total float64 `json:"total_sec"`
	Min   float64 `json:"min_sec"`
	Max   float64 `json:"max_sec"`
}

// Mean is the average tardiness in the tier, 0 when empty.
func (t Tier) Mean() float64 {
	if t.Count == 0 {
		return 0
	}
	return t.Total / float64(t.Count)
}

func (t *Tier) add(late float64) {
	if t.Count == 0 || late < t.Min {
		t.Min = late
	}
	t.Max = max(t.Max, late)
	t.Total += late
	t.Count++
}

// Tardiness breaks down how late the violating jobs of a trial finished.
//   - ViolatedWork: share of the finished length (MI) that sat on late jobs
//   - Tiers: late jobs by tardiness/deadline in (0, 0.1], (0.1, 0.5], (0.5, inf)
type Tardiness struct {
	Finished     int     `json:"finished"`
	Violations   int     `json:"violations"`
	Total        float64 `json:"total_sec"`
	Max          float64 `json:"max_sec"`
	ViolatedWork float64 `json:"violated_work"`
	Tiers        [3]Tier `json:"tiers"`
}

// Mean is the average tardiness of the late jobs, 0 when none was late.
func (t Tardiness) Mean() float64 {
	if t.Violations == 0 {
		return 0
	}
	return t.Total / float64(t.Violations)
}

// SummarizeTardiness folds the finished jobs into a Tardiness. Unfinished
// jobs are ignored.
func SummarizeTardiness(jobs []Job) Tardiness {
	var (
		t              Tardiness
		work, lateWork float64
	)
	for _, j := range jobs {
		if !j.Finished {
			continue
		}
		t.Finished++
		work += j.Length
		if !j.Violated() {
			continue
		}

		late := j.FinishTime - j.Deadline
		t.Violations++
		t.Total += late
		t.Max = max(t.Max, late)
		lateWork += j.Length
		t.Tiers[tierOf(late, j.Deadline)].add(late)
	}
	if work > 0 {
		t.ViolatedWork = lateWork / work
	}
	return t
}

func tierOf(late, deadline float64) int {
	rel := math.Inf(1)
	if deadline > 0 {
		rel = late / deadline
	}
	for i, b := range tierBounds {
		if rel <= b {
			return i
		}
	}
	return len(tierBounds)
}
