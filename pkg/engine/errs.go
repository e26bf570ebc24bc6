package engine

import "errors"

var (
	ErrNoJobs        = errors.New("engine: no jobs to place")
	ErrNoSimulator   = errors.New("engine: simulator is required")
	ErrBadAssignment = errors.New("engine: assignment does not bind every job")
)
