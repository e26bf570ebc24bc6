package ga

import "errors"

var (
	ErrInvalidConfig = errors.New("ga: invalid config")
)
