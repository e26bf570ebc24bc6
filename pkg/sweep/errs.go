package sweep

import "errors"

var (
	ErrNoEngine = errors.New("sweep: trial has no engine")
)
