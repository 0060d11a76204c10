package model

import "time"

// ReviewLogEntry is the append-only record of one rating submission.
// Never updated or deleted; the optimizer scans it in timestamp order.
type ReviewLogEntry struct {
	UUIDBase
	LearnerID        string    `gorm:"type:varchar(36);index:idx_log_learner_type;index" json:"learnerId"`
	CardID           string    `gorm:"type:varchar(36);index" json:"cardId"`
	Rating           int       `gorm:"not null" json:"rating"`
	ReviewType       string    `gorm:"size:32;not null;default:'vocabulary';index:idx_log_learner_type" json:"reviewType"`
	ElapsedDays      float64   `gorm:"default:0" json:"elapsedDays"`
	StabilityBefore  float64   `json:"stabilityBefore"`
	StabilityAfter   float64   `json:"stabilityAfter"`
	DifficultyBefore float64   `json:"difficultyBefore"`
	DifficultyAfter  float64   `json:"difficultyAfter"`
	StateBefore      string    `gorm:"size:16" json:"stateBefore"`
	StateAfter       string    `gorm:"size:16" json:"stateAfter"`
	ReviewedAt       time.Time `gorm:"index;not null" json:"reviewedAt"`
}

func (ReviewLogEntry) TableName() string {
	return "review_log_entries"
}
