package ranking

import "errors"

var (
	// ErrInvalidThresholds is returned when thresholds are not 0 <= low <= high <= 1.
	ErrInvalidThresholds = errors.New("invalid ranking thresholds")

	// ErrInvalidComplexity is returned when the complexity bound is outside [0,1].
	ErrInvalidComplexity = errors.New("invalid maximum complexity")
)
