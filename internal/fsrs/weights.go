package fsrs

import "fmt"

// ModelVersion identifies the weight layout. Stored alongside every fitted
// weight vector so a future model revision can detect stale records.
const ModelVersion = "fsrs-4.5"

// NumWeights is the number of free coefficients in the FSRS-4.5 model.
const NumWeights = 17

// Weights is the free-parameter vector of the memory model.
//
//	w[0..3]   initial stability S0(G) per first rating
//	w[4..6]   initial difficulty D0(G)
//	w[7]      difficulty mean reversion
//	w[8..10]  recall stability growth
//	w[11..14] post-lapse stability
//	w[15]     hard penalty
//	w[16]     easy bonus
type Weights [NumWeights]float64

// DefaultWeights are the published FSRS-4.5 defaults, used for every learner
// until the optimizer has fitted a personal vector. Treated as a versioned
// constant: tests pin exact intervals computed from it.
var DefaultWeights = Weights{
	0.4872, 1.4003, 3.7145, 13.8206,
	5.1618, 1.2298, 0.8975, 0.0310,
	1.6474, 0.1367, 1.0461, 2.1072,
	0.0793, 0.3246, 1.5870, 0.2272,
	2.8755,
}

// LowerBounds is the minimum allowed value per weight.
var LowerBounds = Weights{
	0.01, 0.01, 0.01, 0.01,
	1.0, 0.01, 0.01, 0.0,
	0.0, 0.0, 0.01, 0.2,
	0.01, 0.01, 0.01, 0.0,
	1.0,
}

// UpperBounds is the maximum allowed value per weight.
var UpperBounds = Weights{
	100.0, 100.0, 100.0, 100.0,
	10.0, 4.0, 4.0, 0.75,
	4.5, 0.8, 3.5, 5.0,
	0.25, 0.9, 4.0, 1.0,
	6.0,
}

// Validate checks every weight against [LowerBounds, UpperBounds].
// Returns an error wrapping ErrInvalidWeights on the first violation.
func (w Weights) Validate() error {
	for i := 0; i < NumWeights; i++ {
		if w[i] < LowerBounds[i] || w[i] > UpperBounds[i] {
			return fmt.Errorf("%w: w[%d] = %g, bounds [%g, %g]",
				ErrInvalidWeights, i, w[i], LowerBounds[i], UpperBounds[i])
		}
	}
	return nil
}

// Clamp constrains every weight to its bounds and returns the result.
func (w Weights) Clamp() Weights {
	for i := 0; i < NumWeights; i++ {
		if w[i] < LowerBounds[i] {
			w[i] = LowerBounds[i]
		}
		if w[i] > UpperBounds[i] {
			w[i] = UpperBounds[i]
		}
	}
	return w
}
