package fsrs

import "time"

// Card is the scheduling state of one learner×card pair as the model sees it.
// Stability and Difficulty are meaningless while Reps == 0.
type Card struct {
	State      State      `json:"state"`
	Step       int        `json:"step"` // index into learning/relearning steps; 0 outside those states
	Stability  float64    `json:"stability"`
	Difficulty float64    `json:"difficulty"`
	Reps       int        `json:"reps"`
	Lapses     int        `json:"lapses"`
	Due        time.Time  `json:"due"`
	LastReview *time.Time `json:"lastReview,omitempty"`
}

// NewCard returns a card that has never been reviewed, due immediately.
func NewCard(now time.Time) Card {
	return Card{State: StateNew, Due: now}
}

// ElapsedDays returns the days since the previous review at time now,
// or 0 for a card that has never been reviewed.
func (c Card) ElapsedDays(now time.Time) float64 {
	if c.LastReview == nil {
		return 0
	}
	d := now.Sub(*c.LastReview).Hours() / 24.0
	if d < 0 {
		return 0
	}
	return d
}
