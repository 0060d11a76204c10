package service

import (
	"time"

	"vocab_srs_backend/internal/fsrs"
	"vocab_srs_backend/internal/repository"
)

// LearnerStats is the aggregate view returned by GET /api/stats.
type LearnerStats struct {
	StateCounts  map[string]int64 `json:"stateCounts"`
	DueNow       int64            `json:"dueNow"`
	DueToday     int64            `json:"dueToday"`
	TotalReviews int64            `json:"totalReviews"`
	RecallRate   float64          `json:"recallRate"`

	ModelVersion    string     `json:"modelVersion"`
	ParamSampleSize int        `json:"paramSampleSize"`
	LastOptimizedAt *time.Time `json:"lastOptimizedAt,omitempty"`
}

// StatsService aggregates per-learner scheduling statistics.
type StatsService struct {
	Cards  *repository.CardStateRepository
	Logs   *repository.ReviewLogRepository
	Params *repository.LearnerParametersRepository
}

func NewStatsService(cards *repository.CardStateRepository, logs *repository.ReviewLogRepository, params *repository.LearnerParametersRepository) *StatsService {
	return &StatsService{Cards: cards, Logs: logs, Params: params}
}

// ForLearner computes the stats snapshot at time now. State counts are
// zero-filled so every state appears even with no cards in it.
func (s *StatsService) ForLearner(learnerID, reviewType string, now time.Time) (*LearnerStats, error) {
	reviewType = NormalizeReviewType(reviewType)

	counts, err := s.Cards.StateCounts(learnerID)
	if err != nil {
		return nil, err
	}
	filled := map[string]int64{
		fsrs.StateNew.String():        0,
		fsrs.StateLearning.String():   0,
		fsrs.StateReview.String():     0,
		fsrs.StateRelearning.String(): 0,
	}
	for state, n := range counts {
		filled[state] = n
	}

	dueNow, err := s.Cards.CountDueBefore(learnerID, now)
	if err != nil {
		return nil, err
	}
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	dueToday, err := s.Cards.CountDueBefore(learnerID, endOfDay)
	if err != nil {
		return nil, err
	}

	total, recalled, err := s.Logs.RecallStats(learnerID, reviewType)
	if err != nil {
		return nil, err
	}
	rate := 0.0
	if total > 0 {
		rate = float64(recalled) / float64(total)
	}

	stats := &LearnerStats{
		StateCounts:  filled,
		DueNow:       dueNow,
		DueToday:     dueToday,
		TotalReviews: total,
		RecallRate:   rate,
		ModelVersion: fsrs.ModelVersion,
	}

	lp, err := s.Params.Find(learnerID, reviewType)
	if err == nil {
		stats.ModelVersion = lp.ModelVersion
		stats.ParamSampleSize = lp.SampleSize
		stats.LastOptimizedAt = lp.LastOptimizedAt
	} else if !repository.IsNotFound(err) {
		return nil, err
	}
	return stats, nil
}
