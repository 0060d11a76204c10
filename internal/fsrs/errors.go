package fsrs

import "errors"

// Sentinel errors. Check with errors.Is.
var (
	ErrInvalidRating  = errors.New("fsrs: invalid rating")
	ErrInvalidWeights = errors.New("fsrs: weights out of bounds")
)
