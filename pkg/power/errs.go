package power

import "errors"

var (
	// ErrInvalidUtilization indicates a utilization fraction outside [0,1].
	ErrInvalidUtilization = errors.New("power: utilization must be in [0,1]")

	// ErrStateOutOfRange indicates a performance-state index outside the ladder.
	ErrStateOutOfRange = errors.New("power: performance state out of range")

	// ErrInvalidStateLadder indicates an empty ladder, a processing fraction
	// outside (0,1], or fractions that are not strictly ascending.
	ErrInvalidStateLadder = errors.New("power: invalid performance state ladder")
)
