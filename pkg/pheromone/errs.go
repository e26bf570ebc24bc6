package pheromone

import "errors"

var (
	ErrInvalidDimensions = errors.New("pheromone: field needs at least one job and one resource")
	ErrAssignmentShape   = errors.New("pheromone: assignment does not fit the field")
)
