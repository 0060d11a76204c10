package fsrs

import (
	"fmt"
	"math/rand"
	"time"
)

// Config configures a Scheduler. Zero values get defaults: DefaultWeights,
// retention 0.9, learning steps [1m, 10m], relearning steps [10m],
// interval bounds [1, 36500] days. An explicitly empty (non-nil) step slice
// disables the steps and graduates cards immediately.
type Config struct {
	Weights          Weights         `json:"weights"`
	DesiredRetention float64         `json:"desiredRetention"`
	LearningSteps    []time.Duration `json:"learningSteps"`
	RelearningSteps  []time.Duration `json:"relearningSteps"`
	MinInterval      int             `json:"minInterval"` // days
	MaxInterval      int             `json:"maxInterval"` // days
	EnableFuzz       bool            `json:"enableFuzz"`
}

// Scheduler applies the memory model to individual reviews. It is safe for
// concurrent use when fuzzing is disabled; with fuzzing enabled the shared
// rng serializes through Review's caller.
type Scheduler struct {
	model            model
	desiredRetention float64
	learningSteps    []time.Duration
	relearningSteps  []time.Duration
	minInterval      int
	maxInterval      int
	enableFuzz       bool
	rng              *rand.Rand
}

// NewScheduler validates the config and returns a Scheduler.
func NewScheduler(cfg Config) (*Scheduler, error) {
	w := cfg.Weights
	if w == (Weights{}) {
		w = DefaultWeights
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	dr := cfg.DesiredRetention
	if dr == 0 {
		dr = 0.9
	}
	if dr <= 0 || dr >= 1 {
		return nil, fmt.Errorf("fsrs: desired retention %g out of range (0, 1)", dr)
	}

	minIvl := cfg.MinInterval
	if minIvl == 0 {
		minIvl = 1
	}
	maxIvl := cfg.MaxInterval
	if maxIvl == 0 {
		maxIvl = 36500
	}
	if minIvl < 1 || maxIvl < minIvl {
		return nil, fmt.Errorf("fsrs: invalid interval bounds [%d, %d]", minIvl, maxIvl)
	}

	ls := cfg.LearningSteps
	if ls == nil {
		ls = []time.Duration{time.Minute, 10 * time.Minute}
	}
	rs := cfg.RelearningSteps
	if rs == nil {
		rs = []time.Duration{10 * time.Minute}
	}

	s := &Scheduler{
		model:            model{w: w},
		desiredRetention: dr,
		learningSteps:    ls,
		relearningSteps:  rs,
		minInterval:      minIvl,
		maxInterval:      maxIvl,
		enableFuzz:       cfg.EnableFuzz,
	}
	if cfg.EnableFuzz {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s, nil
}

// Review applies one rating to the card at time now and returns the updated
// card. The input card is not mutated. With fuzzing disabled the result is
// fully determined by (card, rating, now).
func (s *Scheduler) Review(card Card, rating Rating, now time.Time) (Card, error) {
	if !rating.IsValid() {
		return Card{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}

	c := card
	elapsed := c.ElapsedDays(now)

	s.updateMemory(&c, rating, elapsed)

	if rating == Again && (card.State == StateReview || card.State == StateRelearning) {
		c.Lapses++
	}
	c.Reps++

	interval := s.transition(&c, rating)

	if s.enableFuzz && c.State == StateReview {
		days := int(interval.Hours() / 24.0)
		if days > 0 {
			interval = time.Duration(applyFuzz(days, s.maxInterval, s.rng)) * 24 * time.Hour
		}
	}

	c.Due = now.Add(interval)
	c.LastReview = &now
	return c, nil
}

// NextStates previews the card after each possible rating. Used by session
// presentation to label the answer buttons with upcoming intervals.
func (s *Scheduler) NextStates(card Card, now time.Time) map[Rating]Card {
	out := make(map[Rating]Card, 4)
	for _, r := range []Rating{Again, Hard, Good, Easy} {
		c, err := s.Review(card, r, now)
		if err != nil {
			continue
		}
		out[r] = c
	}
	return out
}

// Retrievability estimates the current recall probability for the card.
// Returns 0 for a card that has never been reviewed.
func (s *Scheduler) Retrievability(card Card, now time.Time) float64 {
	if card.Reps == 0 || card.LastReview == nil {
		return 0
	}
	return s.model.retrievability(card.ElapsedDays(now), card.Stability)
}

// ReplayStep is one historical review used by Replay.
type ReplayStep struct {
	Rating Rating
	At     time.Time
}

// Replay rebuilds a card's scheduling state from scratch by re-applying its
// full review history in order. Used by the cache-rebuild job after a
// parameter change.
func (s *Scheduler) Replay(card Card, steps []ReplayStep) (Card, error) {
	c := card
	var err error
	for _, step := range steps {
		c, err = s.Review(c, step.Rating, step.At)
		if err != nil {
			return Card{}, err
		}
	}
	return c, nil
}

// updateMemory advances stability and difficulty. Same-day re-reviews run
// through the same formulas with fractional elapsed days; FSRS-4.5 carries
// no separate short-term component.
func (s *Scheduler) updateMemory(c *Card, rating Rating, elapsedDays float64) {
	if c.Reps == 0 {
		c.Stability = s.model.initStability(rating)
		c.Difficulty = s.model.initDifficulty(rating, true)
		return
	}
	r := s.model.retrievability(elapsedDays, c.Stability)
	c.Stability = s.model.nextStability(c.Difficulty, c.Stability, r, rating)
	c.Difficulty = s.model.nextDifficulty(c.Difficulty, rating)
}

// transition applies the state machine and returns the next interval.
func (s *Scheduler) transition(c *Card, rating Rating) time.Duration {
	switch c.State {
	case StateNew:
		c.State = StateLearning
		c.Step = 0
		return s.stepTransition(c, rating, s.learningSteps)
	case StateLearning:
		return s.stepTransition(c, rating, s.learningSteps)
	case StateRelearning:
		return s.stepTransition(c, rating, s.relearningSteps)
	default:
		return s.reviewTransition(c, rating)
	}
}

// stepTransition handles Learning and Relearning cards walking their steps.
func (s *Scheduler) stepTransition(c *Card, rating Rating, steps []time.Duration) time.Duration {
	// No steps configured, or the step index ran past the end: graduate.
	if len(steps) == 0 || (c.Step >= len(steps) && rating != Again) {
		return s.graduate(c)
	}

	switch rating {
	case Again:
		c.Step = 0
		return steps[0]
	case Hard:
		// Hold the current step; first-step Hard lands between the steps.
		if c.Step == 0 && len(steps) == 1 {
			return time.Duration(float64(steps[0]) * 1.5)
		}
		if c.Step == 0 && len(steps) >= 2 {
			return (steps[0] + steps[1]) / 2
		}
		return steps[c.Step]
	case Good:
		if c.Step+1 >= len(steps) {
			return s.graduate(c)
		}
		c.Step++
		return steps[c.Step]
	default: // Easy skips the remaining steps.
		return s.graduate(c)
	}
}

// reviewTransition handles cards already in the long-term review cycle.
func (s *Scheduler) reviewTransition(c *Card, rating Rating) time.Duration {
	if rating == Again && len(s.relearningSteps) > 0 {
		c.State = StateRelearning
		c.Step = 0
		return s.relearningSteps[0]
	}
	c.Step = 0
	return s.intervalFor(c)
}

func (s *Scheduler) graduate(c *Card) time.Duration {
	c.State = StateReview
	c.Step = 0
	return s.intervalFor(c)
}

func (s *Scheduler) intervalFor(c *Card) time.Duration {
	days := s.model.nextIntervalDays(c.Stability, s.desiredRetention, s.minInterval, s.maxInterval)
	return time.Duration(days) * 24 * time.Hour
}
