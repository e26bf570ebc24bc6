package workload

import "errors"

var (
	ErrUnknownKind   = errors.New("workload: unknown kind")
	ErrInvalidConfig = errors.New("workload: invalid config")
	ErrUnknownLadder = errors.New("workload: unknown power ladder")
)
