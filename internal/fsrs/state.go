package fsrs

import (
	"encoding"
	"fmt"
)

// State is the lifecycle stage of a card.
type State int

const (
	StateNew        State = iota // Never reviewed; reps = 0.
	StateLearning                // In the initial learning steps.
	StateReview                  // Graduated into the long-term review cycle.
	StateRelearning              // Lapsed; repeating the relearning steps.
)

var (
	stateNames = [...]string{
		StateNew:        "NEW",
		StateLearning:   "LEARNING",
		StateReview:     "REVIEW",
		StateRelearning: "RELEARNING",
	}
	stateByName = map[string]State{
		"NEW":        StateNew,
		"LEARNING":   StateLearning,
		"REVIEW":     StateReview,
		"RELEARNING": StateRelearning,
	}
)

var (
	_ fmt.Stringer             = State(0)
	_ encoding.TextMarshaler   = State(0)
	_ encoding.TextUnmarshaler = (*State)(nil)
)

func (s State) isValid() bool {
	return s >= StateNew && s <= StateRelearning
}

func (s State) String() string {
	if s.isValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler. States serialize as their
// upper-case names, which is also how they are stored in the database.
func (s State) MarshalText() ([]byte, error) {
	if !s.isValid() {
		return nil, fmt.Errorf("fsrs: invalid state: %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, ok := stateByName[string(text)]
	if !ok {
		return fmt.Errorf("fsrs: invalid state: %q", text)
	}
	*s = v
	return nil
}
