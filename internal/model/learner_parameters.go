package model

import (
	"encoding/json"
	"fmt"
	"time"

	"vocab_srs_backend/internal/fsrs"
)

// LearnerParameters stores the fitted weight vector for one learner and
// review type. Created lazily with the global defaults on first use and
// replaced wholesale by a completed optimization job.
type LearnerParameters struct {
	UUIDBase
	LearnerID       string     `gorm:"type:varchar(36);index:idx_params_learner_type,unique" json:"learnerId"`
	ReviewType      string     `gorm:"size:32;not null;default:'vocabulary';index:idx_params_learner_type,unique" json:"reviewType"`
	ModelVersion    string     `gorm:"size:32;not null" json:"modelVersion"`
	WeightsJSON     string     `gorm:"type:text;not null" json:"-"`
	SampleSize      int        `gorm:"default:0" json:"sampleSize"`
	LastOptimizedAt *time.Time `json:"lastOptimizedAt"`
}

func (LearnerParameters) TableName() string {
	return "learner_parameters"
}

// Weights decodes the stored vector, validating arity and bounds.
func (lp *LearnerParameters) Weights() (fsrs.Weights, error) {
	var raw []float64
	if err := json.Unmarshal([]byte(lp.WeightsJSON), &raw); err != nil {
		return fsrs.Weights{}, fmt.Errorf("%w: %v", fsrs.ErrInvalidWeights, err)
	}
	if len(raw) != fsrs.NumWeights {
		return fsrs.Weights{}, fmt.Errorf("%w: got %d weights, want %d",
			fsrs.ErrInvalidWeights, len(raw), fsrs.NumWeights)
	}
	var w fsrs.Weights
	copy(w[:], raw)
	if err := w.Validate(); err != nil {
		return fsrs.Weights{}, err
	}
	return w, nil
}

// SetWeights encodes the vector and stamps the model version.
func (lp *LearnerParameters) SetWeights(w fsrs.Weights) error {
	data, err := json.Marshal(w[:])
	if err != nil {
		return err
	}
	lp.WeightsJSON = string(data)
	lp.ModelVersion = fsrs.ModelVersion
	return nil
}
