package sim

import "errors"

var (
	// ErrSimulatorFailure is returned for any trial the simulator cannot run.
	ErrSimulatorFailure = errors.New("sim: simulation failed")
)
