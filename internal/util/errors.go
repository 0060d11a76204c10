package util

import "errors"

// Scheduler error taxonomy. Controllers map these onto HTTP statuses;
// services return them wrapped so errors.Is works across layers.
var (
	// ErrNotFound: the learner/card relationship does not exist.
	ErrNotFound = errors.New("card not found for learner")

	// ErrConcurrency: a concurrent update to the same learner×card was
	// detected and retries were exhausted. Safe for the caller to retry.
	ErrConcurrency = errors.New("concurrent review detected")

	// ErrInvalidStage: a session action was submitted in the wrong stage.
	// Indicates a client desync; resolved by refetching session state.
	ErrInvalidStage = errors.New("action not allowed in current stage")

	// ErrEmptyQueue: a rating was submitted but the session queue is empty.
	ErrEmptyQueue = errors.New("session queue is empty")

	// ErrSessionBusy: the session's previous action has not completed yet.
	ErrSessionBusy = errors.New("session has an action in flight")

	// ErrSessionEnded: the session is terminal and accepts no actions.
	ErrSessionEnded = errors.New("session has ended")

	// ErrSessionNotFound: no session progress stored under the given id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInsufficientData: the review log is too small to fit parameters.
	// Surfaced as a no-op; existing weights stay in place.
	ErrInsufficientData = errors.New("insufficient review history for optimization")

	// ErrJobNotFound: no optimization job with the given id.
	ErrJobNotFound = errors.New("optimization job not found")

	// ErrDeckNotFound: the deck does not exist or the learner has no access.
	ErrDeckNotFound = errors.New("deck not accessible")
)
