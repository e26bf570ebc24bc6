package heuristic

import "errors"

var (
	ErrEmptyResourcePool = errors.New("heuristic: resource pool is empty")
	ErrRowLength         = errors.New("heuristic: pheromone row does not match resource pool")
)
