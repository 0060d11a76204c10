package repository

import (
	"fmt"
	"time"

	"vocab_srs_backend/internal/model"

	"gorm.io/gorm"
)

type OptimizationJobRepository struct {
	DB *gorm.DB
}

func NewOptimizationJobRepository(db *gorm.DB) *OptimizationJobRepository {
	return &OptimizationJobRepository{DB: db}
}

// statusRank orders job statuses; transitions may only move forward.
var statusRank = map[string]int{
	model.JobStatusPending:   0,
	model.JobStatusRunning:   1,
	model.JobStatusCompleted: 2,
	model.JobStatusFailed:    2,
}

func (r *OptimizationJobRepository) FindByID(id string) (*model.OptimizationJob, error) {
	var job model.OptimizationJob
	if err := r.DB.First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// FindActive returns the learner's PENDING or RUNNING job, if any.
// Idempotent submission hinges on this lookup running inside the same
// transaction that creates a new job.
func (r *OptimizationJobRepository) FindActive(db *gorm.DB, learnerID string) (*model.OptimizationJob, error) {
	if db == nil {
		db = r.DB
	}
	var job model.OptimizationJob
	err := db.Where("learner_id = ? AND status IN ?", learnerID,
		[]string{model.JobStatusPending, model.JobStatusRunning}).
		Order("created_at ASC").
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *OptimizationJobRepository) Create(db *gorm.DB, job *model.OptimizationJob) error {
	if db == nil {
		db = r.DB
	}
	return db.Create(job).Error
}

// ClaimPending atomically flips up to limit PENDING jobs to RUNNING and
// returns them. Claimed jobs belong to the calling worker until they reach
// a terminal status.
func (r *OptimizationJobRepository) ClaimPending(limit int) ([]model.OptimizationJob, error) {
	var claimed []model.OptimizationJob
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var pending []model.OptimizationJob
		if err := tx.Where("status = ?", model.JobStatusPending).
			Order("created_at ASC").
			Limit(limit).
			Find(&pending).Error; err != nil {
			return err
		}
		now := time.Now()
		for i := range pending {
			res := tx.Model(&model.OptimizationJob{}).
				Where("id = ? AND status = ?", pending[i].ID, model.JobStatusPending).
				Updates(map[string]interface{}{"status": model.JobStatusRunning, "started_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue // another worker claimed it first
			}
			pending[i].Status = model.JobStatusRunning
			pending[i].StartedAt = &now
			claimed = append(claimed, pending[i])
		}
		return nil
	})
	return claimed, err
}

// Transition moves a job to the given status, enforcing monotonicity.
func (r *OptimizationJobRepository) Transition(job *model.OptimizationJob, status string, updates map[string]interface{}) error {
	from, ok := statusRank[job.Status]
	to, ok2 := statusRank[status]
	if !ok || !ok2 || to < from || (to == from && job.Status != status) {
		return fmt.Errorf("invalid job transition %s -> %s", job.Status, status)
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	if err := r.DB.Model(job).Updates(updates).Error; err != nil {
		return err
	}
	job.Status = status
	return nil
}

// ListByLearner returns the learner's jobs, newest first.
func (r *OptimizationJobRepository) ListByLearner(learnerID string, limit int) ([]model.OptimizationJob, error) {
	var jobs []model.OptimizationJob
	q := r.DB.Where("learner_id = ?", learnerID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&jobs).Error
	return jobs, err
}
