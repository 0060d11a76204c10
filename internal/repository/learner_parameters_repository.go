package repository

import (
	"vocab_srs_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LearnerParametersRepository struct {
	DB *gorm.DB
}

func NewLearnerParametersRepository(db *gorm.DB) *LearnerParametersRepository {
	return &LearnerParametersRepository{DB: db}
}

// Find returns the fitted parameters for (learner, reviewType), or
// gorm.ErrRecordNotFound when the learner is still on global defaults.
func (r *LearnerParametersRepository) Find(learnerID, reviewType string) (*model.LearnerParameters, error) {
	var lp model.LearnerParameters
	err := r.DB.Where("learner_id = ? AND review_type = ?", learnerID, reviewType).First(&lp).Error
	if err != nil {
		return nil, err
	}
	return &lp, nil
}

// Replace overwrites the learner's parameter record wholesale, creating it
// when absent. The optimizer calls this exactly once per completed job.
func (r *LearnerParametersRepository) Replace(db *gorm.DB, lp *model.LearnerParameters) error {
	if db == nil {
		db = r.DB
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "learner_id"}, {Name: "review_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"model_version", "weights_json", "sample_size", "last_optimized_at", "updated_at",
		}),
	}).Create(lp).Error
}
