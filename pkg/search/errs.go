package search

import "errors"

var (
	ErrUnknownPolicy    = errors.New("search: unknown downgrade policy")
	ErrInvalidThreshold = errors.New("search: acceptable violation ratio must be in [0,1]")
)
