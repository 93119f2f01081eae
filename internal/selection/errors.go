package selection

import "errors"

var (
	// ErrInvalidArgument reports a non-positive selection count or an empty
	// generation.
	ErrInvalidArgument = errors.New("invalid selection argument")
	// ErrInvalidFitness reports an unset, negative or non-finite fitness.
	ErrInvalidFitness = errors.New("invalid fitness")
	// ErrDegenerateFitness reports a generation whose total fitness is zero.
	ErrDegenerateFitness = errors.New("degenerate fitness: total is zero")
)
