package model

import "time"

// Optimization job kinds and statuses. Status transitions are monotonic:
// PENDING → RUNNING → COMPLETED | FAILED, never backwards.
const (
	JobKindOptimize     = "optimize"
	JobKindCacheRebuild = "cache_rebuild"

	JobStatusPending   = "PENDING"
	JobStatusRunning   = "RUNNING"
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
)

// OptimizationJob is one background optimizer or cache-rebuild invocation.
// At most one PENDING/RUNNING job per learner exists at a time; a duplicate
// request returns the active job instead of creating another.
type OptimizationJob struct {
	UUIDBase
	LearnerID   string     `gorm:"type:varchar(36);index" json:"learnerId"`
	ReviewType  string     `gorm:"size:32;not null;default:'vocabulary'" json:"reviewType"`
	Kind        string     `gorm:"size:32;not null" json:"kind"`
	Status      string     `gorm:"size:16;not null;default:'PENDING';index" json:"status"`
	RequestedBy string     `gorm:"type:varchar(36)" json:"requestedBy"`
	SampleSize  int        `gorm:"default:0" json:"sampleSize"`
	ResultJSON  string     `gorm:"type:text" json:"-"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   *time.Time `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt"`
}

func (OptimizationJob) TableName() string {
	return "optimization_jobs"
}

// Active reports whether the job still occupies the learner's job slot.
func (j *OptimizationJob) Active() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusRunning
}
