// Package optimizer fits per-learner FSRS weights from review history.
//
// Training minimizes the binary cross-entropy between the model's predicted
// retrievability before each cross-day review and the observed outcome
// (Again = forgotten, anything else = recalled), using mini-batch gradient
// descent with numerically estimated gradients, Adam updates and a cosine
// annealing learning-rate schedule. All randomness is seeded, so a fit over
// an unchanged log reproduces the same weights.
package optimizer
