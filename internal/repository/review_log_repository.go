package repository

import (
	"vocab_srs_backend/internal/model"

	"gorm.io/gorm"
)

type ReviewLogRepository struct {
	DB *gorm.DB
}

func NewReviewLogRepository(db *gorm.DB) *ReviewLogRepository {
	return &ReviewLogRepository{DB: db}
}

// Append writes one immutable log entry. Called inside the review
// recorder's transaction so the entry and the state update commit together.
func (r *ReviewLogRepository) Append(db *gorm.DB, entry *model.ReviewLogEntry) error {
	if db == nil {
		db = r.DB
	}
	return db.Create(entry).Error
}

// ListByLearnerAndType returns the learner's full history for one review
// type in timestamp order. The ordering matters: the optimizer replays
// each card's reviews sequentially.
func (r *ReviewLogRepository) ListByLearnerAndType(learnerID, reviewType string) ([]model.ReviewLogEntry, error) {
	var rows []model.ReviewLogEntry
	err := r.DB.Where("learner_id = ? AND review_type = ?", learnerID, reviewType).
		Order("reviewed_at ASC, created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListByLearnerCardAndType returns one card's history in timestamp order.
func (r *ReviewLogRepository) ListByLearnerCardAndType(learnerID, cardID, reviewType string) ([]model.ReviewLogEntry, error) {
	var rows []model.ReviewLogEntry
	err := r.DB.Where("learner_id = ? AND card_id = ? AND review_type = ?", learnerID, cardID, reviewType).
		Order("reviewed_at ASC, created_at ASC").
		Find(&rows).Error
	return rows, err
}

// CountByLearnerAndType returns the log size for one review type.
func (r *ReviewLogRepository) CountByLearnerAndType(learnerID, reviewType string) (int64, error) {
	var n int64
	err := r.DB.Model(&model.ReviewLogEntry{}).
		Where("learner_id = ? AND review_type = ?", learnerID, reviewType).
		Count(&n).Error
	return n, err
}

// RecallStats returns recall counts over the learner's whole log: total
// reviews and reviews not rated Again.
func (r *ReviewLogRepository) RecallStats(learnerID, reviewType string) (total, recalled int64, err error) {
	base := r.DB.Model(&model.ReviewLogEntry{}).
		Where("learner_id = ? AND review_type = ?", learnerID, reviewType)
	if err = base.Count(&total).Error; err != nil {
		return
	}
	err = r.DB.Model(&model.ReviewLogEntry{}).
		Where("learner_id = ? AND review_type = ? AND rating > 1", learnerID, reviewType).
		Count(&recalled).Error
	return
}
