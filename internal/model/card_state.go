package model

import (
	"time"

	"vocab_srs_backend/internal/fsrs"
)

// CardState is the persisted scheduling state of one learner×card pair.
// Mutated exclusively by the review recorder; the queue builder only reads.
// Version is the optimistic-concurrency token: every write increments it and
// predicates on the value that was read.
type CardState struct {
	UUIDBase
	LearnerID      string     `gorm:"type:varchar(36);index:idx_learner_card,unique;index" json:"learnerId"`
	CardID         string     `gorm:"type:varchar(36);index:idx_learner_card,unique" json:"cardId"`
	State          string     `gorm:"size:16;not null;default:'NEW';index" json:"state"`
	Step           int        `gorm:"default:0" json:"step"`
	Stability      float64    `gorm:"default:0" json:"stability"`
	Difficulty     float64    `gorm:"default:0" json:"difficulty"`
	Reps           int        `gorm:"default:0" json:"reps"`
	Lapses         int        `gorm:"default:0" json:"lapses"`
	Due            time.Time  `gorm:"index" json:"due"`
	LastReviewedAt *time.Time `json:"lastReviewedAt"`
	ReviewType     string     `gorm:"size:32;not null;default:'vocabulary'" json:"reviewType"`
	Version        int64      `gorm:"default:0" json:"-"`
}

func (CardState) TableName() string {
	return "card_states"
}

// ToFSRS converts the row into the memory model's value representation.
func (cs *CardState) ToFSRS() (fsrs.Card, error) {
	var st fsrs.State
	if err := st.UnmarshalText([]byte(cs.State)); err != nil {
		return fsrs.Card{}, err
	}
	return fsrs.Card{
		State:      st,
		Step:       cs.Step,
		Stability:  cs.Stability,
		Difficulty: cs.Difficulty,
		Reps:       cs.Reps,
		Lapses:     cs.Lapses,
		Due:        cs.Due,
		LastReview: cs.LastReviewedAt,
	}, nil
}

// ApplyFSRS writes the model card back into the row.
func (cs *CardState) ApplyFSRS(c fsrs.Card) {
	cs.State = c.State.String()
	cs.Step = c.Step
	cs.Stability = c.Stability
	cs.Difficulty = c.Difficulty
	cs.Reps = c.Reps
	cs.Lapses = c.Lapses
	cs.Due = c.Due
	cs.LastReviewedAt = c.LastReview
}
