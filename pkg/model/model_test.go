package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/greensched/pkg/power"
)

func TestCloneJobs_ClearsTrialOutput(t *testing.T) {
	src := []Job{
		{ID: 0, Length: 500, Deadline: 10, ResourceID: 3, FinishTime: 4, Finished: true},
		{ID: 1, Length: 700, Deadline: 12},
	}
	out := CloneJobs(src)
	require.Len(t, out, 2)
	for _, j := range out {
		assert.Equal(t, Unbound, j.ResourceID)
		assert.False(t, j.Finished)
		assert.Zero(t, j.FinishTime)
	}

	out[1].Length = 1
	assert.Equal(t, 700.0, src[1].Length, "clone must not alias the template")
	assert.Equal(t, 3, src[0].ResourceID)
}

func TestCloneHosts_IsolatesPowerState(t *testing.T) {
	m, err := power.New(power.AMDOpteron, 7)
	require.NoError(t, err)
	src := []Host{{ID: 0, MIPS: 2000, Power: m}}

	cp := CloneHosts(src)
	require.NoError(t, cp[0].Power.SetState(3))
	cp[0].MIPS = 1000

	assert.Equal(t, 7, src[0].Power.State())
	assert.Equal(t, 2000.0, src[0].MIPS)
}

func TestAssignment_CompleteAndBind(t *testing.T) {
	rs := []Resource{{ID: 10}, {ID: 20}}
	jobs := CloneJobs([]Job{{ID: 0}, {ID: 1}, {ID: 2}})

	a := Assignment{1, 0, 1}
	require.True(t, a.Complete(len(rs)))
	a.Bind(jobs, rs)
	assert.Equal(t, []int{20, 10, 20}, []int{jobs[0].ResourceID, jobs[1].ResourceID, jobs[2].ResourceID})

	assert.False(t, Assignment{0, Unbound}.Complete(2))
	assert.False(t, Assignment{0, 2}.Complete(2))

	c := a.Clone()
	c[0] = 0
	assert.Equal(t, 1, a[0])
}

func TestViolationRatio(t *testing.T) {
	jobs := []Job{
		{FinishTime: 5, Deadline: 5, Finished: true},  // exactly on time
		{FinishTime: 6, Deadline: 5, Finished: true},  // late
		{FinishTime: 9, Deadline: 10, Finished: true}, // early
		{Deadline: 1},                                 // never ran
	}
	assert.Equal(t, 1, Violations(jobs))
	assert.InDelta(t, 1.0/3.0, ViolationRatio(jobs), 1e-12)
	assert.Equal(t, 9.0, Makespan(jobs))
	assert.Zero(t, ViolationRatio(nil))
}

func TestHostUtilization_AveragesResources(t *testing.T) {
	tr := &TrialResult{
		Hosts:     []Host{{ID: 0}, {ID: 1}},
		Resources: []Resource{{ID: 0, HostID: 0}, {ID: 1, HostID: 0}, {ID: 2, HostID: 1}},
		Utilization: map[int]Utilization{
			0: {Mean: 0.2},
			1: {Mean: 0.6},
			2: {Mean: 0.9},
		},
	}
	hu := tr.HostUtilization()
	assert.InDelta(t, 0.4, hu[0], 1e-12)
	assert.InDelta(t, 0.9, hu[1], 1e-12)
}

func TestResource_ExecTime(t *testing.T) {
	assert.Equal(t, 0.5, Resource{MIPS: 1000}.ExecTime(500))
	assert.Zero(t, Resource{}.ExecTime(500))
}

func TestTrialResult_IdlePower(t *testing.T) {
	top, err := power.New(power.AMDOpteron, 7)
	require.NoError(t, err)
	mid, err := power.New(power.AMDOpteron, 3)
	require.NoError(t, err)

	tr := &TrialResult{Hosts: []Host{{ID: 0, Power: top}, {ID: 1, Power: mid}, {ID: 2}}}
	assert.InDelta(t, 30.0, float64(tr.IdlePower()), 1e-12)
	assert.Zero(t, (&TrialResult{}).IdlePower())
}
