// Package model holds the data shared by the simulator, the engines and the
// search loop. Templates are built once by the caller and deep-copied per
// trial so that no two trials share mutable state.
package model

import (
	"github.com/ja7ad/greensched/pkg/power"
)

// Unbound marks a job that has no resource yet.
const Unbound = -1

// Job is one unit of work with an absolute deadline.
type Job struct {
	ID              int     `json:"id"`
	Length          float64 `json:"length"`           // MI
	PEs             int     `json:"pes"`
	SubmissionDelay float64 `json:"submission_delay"` // seconds from trial start
	Deadline        float64 `json:"deadline"`         // absolute seconds
	ResourceID      int     `json:"resource_id"`
	FinishTime      float64 `json:"finish_time"`
	Finished        bool    `json:"finished"`
}

// Violated reports whether a finished job missed its deadline.
func (j Job) Violated() bool { return j.Finished && j.FinishTime > j.Deadline }

// Resource is a VM bound to exactly one host.
type Resource struct {
	ID     int     `json:"id"`
	MIPS   float64 `json:"mips"`
	PEs    int     `json:"pes"`
	HostID int     `json:"host_id"`
}

// ExecTime is the time a job of the given length needs on r.
func (r Resource) ExecTime(length float64) float64 {
	if r.MIPS <= 0 {
		return 0
	}
	return length / r.MIPS
}

// Host is a power-scalable machine.
type Host struct {
	ID    int          `json:"id"`
	MIPS  float64      `json:"mips"`
	PEs   int          `json:"pes"`
	Power *power.Model `json:"-"`
}

// Utilization summarizes one resource's CPU use over a trial.
type Utilization struct {
	Mean     float64   `json:"mean"`
	Smoothed float64   `json:"smoothed"`
	Busy     float64   `json:"busy_sec"`
	Series   []float64 `json:"-"`
}

// Assignment maps job index to resource index (positions in the slices handed
// to the engine, not IDs).
type Assignment []int

// Clone returns a copy of a.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	copy(out, a)
	return out
}

// Complete reports whether every job is bound to a valid resource index.
func (a Assignment) Complete(resources int) bool {
	for _, r := range a {
		if r < 0 || r >= resources {
			return false
		}
	}
	return true
}

// Bind writes the assignment into the jobs' ResourceID fields.
func (a Assignment) Bind(jobs []Job, resources []Resource) {
	for i := range jobs {
		jobs[i].ResourceID = resources[a[i]].ID
	}
}

// CloneJobs deep-copies jobs and clears binding and simulation output.
func CloneJobs(jobs []Job) []Job {
	out := make([]Job, len(jobs))
	for i, j := range jobs {
		j.ResourceID = Unbound
		j.FinishTime = 0
		j.Finished = false
		out[i] = j
	}
	return out
}

// CloneResources deep-copies resources.
func CloneResources(rs []Resource) []Resource {
	out := make([]Resource, len(rs))
	copy(out, rs)
	return out
}

// CloneHosts deep-copies hosts, including their power-state position.
func CloneHosts(hs []Host) []Host {
	out := make([]Host, len(hs))
	for i, h := range hs {
		h.Power = h.Power.Clone()
		out[i] = h
	}
	return out
}

// Violations counts finished jobs that missed their deadline.
func Violations(jobs []Job) int {
	n := 0
	for _, j := range jobs {
		if j.Violated() {
			n++
		}
	}
	return n
}

// ViolationRatio is violated/finished, 0 when nothing finished.
func ViolationRatio(jobs []Job) float64 {
	finished, violated := 0, 0
	for _, j := range jobs {
		if !j.Finished {
			continue
		}
		finished++
		if j.FinishTime > j.Deadline {
			violated++
		}
	}
	if finished == 0 {
		return 0
	}
	return float64(violated) / float64(finished)
}

// Makespan is the latest finish time.
func Makespan(jobs []Job) float64 {
	m := 0.0
	for _, j := range jobs {
		if j.Finished && j.FinishTime > m {
			m = j.FinishTime
		}
	}
	return m
}

// MaxLength is the longest job length.
func MaxLength(jobs []Job) float64 {
	m := 0.0
	for _, j := range jobs {
		if j.Length > m {
			m = j.Length
		}
	}
	return m
}
