package strategy

import "errors"

var (
	ErrUnknownStrategy = errors.New("strategy: unknown strategy")
	ErrDuplicate       = errors.New("strategy: already registered")
)
