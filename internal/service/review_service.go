package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vocab_srs_backend/internal/config"
	"vocab_srs_backend/internal/fsrs"
	"vocab_srs_backend/internal/model"
	"vocab_srs_backend/internal/repository"
	"vocab_srs_backend/internal/util"
	"vocab_srs_backend/pkg/monitoring"

	"gorm.io/gorm"
)

// ReviewService is the review recorder: it applies the memory model to a
// single rating, persists the new card state and appends the log entry in
// one transaction.
type ReviewService struct {
	DB         *gorm.DB
	CardStates *repository.CardStateRepository
	Logs       *repository.ReviewLogRepository
	Params     *repository.LearnerParametersRepository
	Decks      *repository.DeckRepository

	mu    sync.RWMutex
	sched config.SchedulerConfig
}

func NewReviewService(
	db *gorm.DB,
	cardStates *repository.CardStateRepository,
	logs *repository.ReviewLogRepository,
	params *repository.LearnerParametersRepository,
	decks *repository.DeckRepository,
	sched config.SchedulerConfig,
) *ReviewService {
	return &ReviewService{
		DB:         db,
		CardStates: cardStates,
		Logs:       logs,
		Params:     params,
		Decks:      decks,
		sched:      sched,
	}
}

// SchedulerConfig returns the current scheduling defaults.
func (s *ReviewService) SchedulerConfig() config.SchedulerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sched
}

// SetSchedulerConfig swaps the scheduling defaults, used by config reload.
// In-flight reviews finish under the config they started with.
func (s *ReviewService) SetSchedulerConfig(sched config.SchedulerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sched = sched
}

// NormalizeReviewType maps the empty tag to the default pool.
func NormalizeReviewType(reviewType string) string {
	if reviewType == "" {
		return util.ReviewTypeVocabulary
	}
	return reviewType
}

// SchedulerFor builds a scheduler using the learner's fitted weights, or the
// global defaults when none have been fitted yet.
func (s *ReviewService) SchedulerFor(learnerID, reviewType string) (*fsrs.Scheduler, error) {
	weights := fsrs.DefaultWeights
	lp, err := s.Params.Find(learnerID, reviewType)
	if err == nil {
		weights, err = lp.Weights()
		if err != nil {
			return nil, err
		}
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	sc := s.SchedulerConfig()
	return fsrs.NewScheduler(fsrs.Config{
		Weights:          weights,
		DesiredRetention: sc.DesiredRetention,
		LearningSteps:    sc.LearningSteps(),
		RelearningSteps:  sc.RelearningSteps(),
		MinInterval:      sc.MinIntervalDays,
		MaxInterval:      sc.MaxIntervalDays,
		EnableFuzz:       sc.EnableFuzz,
	})
}

// RecordReview applies one rating for a learner×card pair at time now.
// Concurrent submissions for the same pair are serialized by the card
// state's version column; after the configured attempts the caller gets
// util.ErrConcurrency and may retry.
func (s *ReviewService) RecordReview(ctx context.Context, learnerID, cardID string, rating fsrs.Rating, reviewType string, now time.Time) (*model.CardState, error) {
	if !rating.IsValid() {
		return nil, fmt.Errorf("%w: %d", fsrs.ErrInvalidRating, int(rating))
	}
	reviewType = NormalizeReviewType(reviewType)

	ok, err := s.Decks.LearnerHasCard(learnerID, cardID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrNotFound
	}

	sched, err := s.SchedulerFor(learnerID, reviewType)
	if err != nil {
		return nil, err
	}

	attempts := s.SchedulerConfig().ReviewRetryAttempts
	if attempts <= 0 {
		attempts = util.DefaultReviewRetryAttempts
	}

	var out *model.CardState
	for attempt := 0; attempt < attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		out, err = s.recordOnce(learnerID, cardID, rating, reviewType, sched, now)
		if err == nil {
			monitoring.ReviewsRecorded.WithLabelValues(rating.String()).Inc()
			return out, nil
		}
		if !errors.Is(err, util.ErrConcurrency) {
			return nil, err
		}

		monitoring.ReviewConflicts.Inc()
		// Exponential backoff before re-reading the fresher row.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(10<<attempt) * time.Millisecond):
		}
	}
	return nil, util.ErrConcurrency
}

// recordOnce runs one attempt inside a transaction: read (or synthesize) the
// state row, advance the model, write the row versioned and append the log.
// Any failure rolls back both writes.
func (s *ReviewService) recordOnce(learnerID, cardID string, rating fsrs.Rating, reviewType string, sched *fsrs.Scheduler, now time.Time) (*model.CardState, error) {
	var saved model.CardState

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		cs, err := s.CardStates.Find(tx, learnerID, cardID)
		created := false
		if err != nil {
			if !repository.IsNotFound(err) {
				return err
			}
			cs = &model.CardState{
				LearnerID:  learnerID,
				CardID:     cardID,
				State:      fsrs.StateNew.String(),
				Due:        now,
				ReviewType: reviewType,
			}
			created = true
		}

		before, err := cs.ToFSRS()
		if err != nil {
			return err
		}

		after, err := sched.Review(before, rating, now)
		if err != nil {
			return err
		}

		readVersion := cs.Version
		cs.ApplyFSRS(after)

		if created {
			if err := s.CardStates.Create(tx, cs); err != nil {
				if repository.IsDuplicateKey(err) {
					// A concurrent first review created the row; retry
					// against it.
					return util.ErrConcurrency
				}
				return err
			}
		} else {
			if err := s.CardStates.SaveVersioned(tx, cs, readVersion); err != nil {
				return err
			}
		}

		entry := &model.ReviewLogEntry{
			LearnerID:        learnerID,
			CardID:           cardID,
			Rating:           int(rating),
			ReviewType:       reviewType,
			ElapsedDays:      before.ElapsedDays(now),
			StabilityBefore:  before.Stability,
			StabilityAfter:   after.Stability,
			DifficultyBefore: before.Difficulty,
			DifficultyAfter:  after.Difficulty,
			StateBefore:      before.State.String(),
			StateAfter:       after.State.String(),
			ReviewedAt:       now,
		}
		if err := s.Logs.Append(tx, entry); err != nil {
			return err
		}

		saved = *cs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// PreviewIntervals returns the card state each rating would produce, used to
// label answer buttons during presentation.
func (s *ReviewService) PreviewIntervals(learnerID, cardID, reviewType string, now time.Time) (map[fsrs.Rating]fsrs.Card, error) {
	reviewType = NormalizeReviewType(reviewType)
	sched, err := s.SchedulerFor(learnerID, reviewType)
	if err != nil {
		return nil, err
	}

	card := fsrs.NewCard(now)
	if cs, err := s.CardStates.Find(nil, learnerID, cardID); err == nil {
		card, err = cs.ToFSRS()
		if err != nil {
			return nil, err
		}
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	return sched.NextStates(card, now), nil
}
