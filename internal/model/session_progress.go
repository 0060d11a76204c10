package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Session stages and exercise-type tags.
const (
	StagePresentingCard = "PRESENTING_CARD"
	StageAwaitingRating = "AWAITING_RATING"

	ExerciseVocabularyDeck = "vocabulary_deck"
)

// QueueItem is one entry in a session's ordered review queue.
type QueueItem struct {
	CardID string    `json:"cardId"`
	Due    time.Time `json:"due"`
	IsNew  bool      `json:"isNew"`
}

// SessionConfig holds the per-session queue knobs. LearnAheadMinutes widens
// the due cutoff for LEARNING/RELEARNING cards so that a card sent back to a
// short re-study step stays in the live queue instead of vanishing until its
// step elapses.
type SessionConfig struct {
	NewCardsPerSession   int   `json:"newCardsPerSession"`
	MaxReviewsPerSession int   `json:"maxReviewsPerSession"`
	LearnAheadMinutes    int   `json:"learnAheadMinutes"`
	LearningStepsMinutes []int `json:"learningStepsMinutes,omitempty"`
}

// VocabularyProgress is the vocabulary-deck payload of a session.
// Invariant: Stage == AWAITING_RATING implies Queue is non-empty and
// Queue[0] is the card currently shown.
type VocabularyProgress struct {
	Stage          string        `json:"stage"`
	DeckID         string        `json:"deckId"`
	ReviewType     string        `json:"reviewType"`
	InitialCardIDs []string      `json:"initialCardIds"` // frozen scope, set at session start
	Queue          []QueueItem   `json:"queue"`
	CurrentCardID  string        `json:"currentCardId,omitempty"`
	Config         SessionConfig `json:"config"`
}

// SessionProgress is the transient per-session record, serialized as JSON in
// the session store. The payload is a tagged union on ExerciseType; exactly
// the variant named by the tag is non-nil.
type SessionProgress struct {
	SessionID    string    `json:"sessionId"`
	LearnerID    string    `json:"learnerId"`
	ExerciseType string    `json:"exerciseType"`
	StartedAt    time.Time `json:"startedAt"`
	Ended        bool      `json:"ended"`

	ReviewCount int             `json:"reviewCount"`
	Encountered map[string]bool `json:"encountered"`

	Vocabulary *VocabularyProgress `json:"vocabulary,omitempty"`
}

// Validate checks the tag/payload pairing.
func (sp *SessionProgress) Validate() error {
	switch sp.ExerciseType {
	case ExerciseVocabularyDeck:
		if sp.Vocabulary == nil {
			return fmt.Errorf("session %s: missing vocabulary payload", sp.SessionID)
		}
		return nil
	default:
		return fmt.Errorf("session %s: unknown exercise type %q", sp.SessionID, sp.ExerciseType)
	}
}

// Snapshot is the progress view returned to clients after every action and
// at session end.
type Snapshot struct {
	SessionID      string  `json:"sessionId"`
	Stage          string  `json:"stage"`
	Ended          bool    `json:"ended"`
	InitialCount   int     `json:"initialCount"`
	RemainingCount int     `json:"remainingCount"`
	CompletedCount int     `json:"completedCount"`
	ReviewCount    int     `json:"reviewCount"`
	Encountered    int     `json:"encountered"`
	ProgressPct    float64 `json:"progressPct"`
	ElapsedSec     int64   `json:"elapsedSec"`
	CurrentCardID  string  `json:"currentCardId,omitempty"`
}

// Marshal serializes the progress for the session store.
func (sp *SessionProgress) Marshal() ([]byte, error) {
	return json.Marshal(sp)
}

// UnmarshalSessionProgress decodes and validates stored progress.
func UnmarshalSessionProgress(data []byte) (*SessionProgress, error) {
	var sp SessionProgress
	if err := json.Unmarshal(data, &sp); err != nil {
		return nil, err
	}
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	return &sp, nil
}
