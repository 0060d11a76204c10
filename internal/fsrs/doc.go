// Package fsrs implements the FSRS-4.5 spaced-repetition memory model:
// a retrievability curve parameterized by per-card stability and difficulty,
// rating-conditioned update formulas, and a step-based learning/relearning
// state machine that turns the model into concrete review intervals.
//
// The package is pure: given EnableFuzz=false, every exported function is
// deterministic and performs no I/O. Persistence, queueing and parameter
// fitting live elsewhere and consume this package.
package fsrs
