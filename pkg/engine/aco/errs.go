package aco

import "errors"

var (
	ErrInvalidConfig = errors.New("aco: invalid config")
)
