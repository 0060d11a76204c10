package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"vocab_srs_backend/internal/config"
	"vocab_srs_backend/internal/fsrs"
	"vocab_srs_backend/internal/fsrs/optimizer"
	"vocab_srs_backend/internal/model"
	"vocab_srs_backend/internal/repository"
	"vocab_srs_backend/internal/util"
	"vocab_srs_backend/pkg/monitoring"
)

// OptimizerService owns the job queue for background parameter fitting and
// card-state cache rebuilds. Submissions are idempotent per learner: while a
// job is PENDING or RUNNING, a duplicate request returns it unchanged.
type OptimizerService struct {
	DB      *gorm.DB
	Jobs    *repository.OptimizationJobRepository
	Params  *repository.LearnerParametersRepository
	Logs    *repository.ReviewLogRepository
	Cards   *repository.CardStateRepository
	Reviews *ReviewService
	Cfg     config.OptimizerConfig
	Logger  *zap.Logger
}

func NewOptimizerService(
	db *gorm.DB,
	jobs *repository.OptimizationJobRepository,
	params *repository.LearnerParametersRepository,
	logs *repository.ReviewLogRepository,
	cards *repository.CardStateRepository,
	reviews *ReviewService,
	cfg config.OptimizerConfig,
	logger *zap.Logger,
) *OptimizerService {
	return &OptimizerService{
		DB:      db,
		Jobs:    jobs,
		Params:  params,
		Logs:    logs,
		Cards:   cards,
		Reviews: reviews,
		Cfg:     cfg,
		Logger:  logger,
	}
}

// RequestOptimization enqueues a parameter-fitting job, or returns the
// learner's already-active job.
func (s *OptimizerService) RequestOptimization(learnerID, reviewType, requestedBy string) (*model.OptimizationJob, error) {
	return s.submit(learnerID, NormalizeReviewType(reviewType), model.JobKindOptimize, requestedBy)
}

// RequestCacheRebuild enqueues a card-state rebuild job.
func (s *OptimizerService) RequestCacheRebuild(learnerID, reviewType, requestedBy string) (*model.OptimizationJob, error) {
	return s.submit(learnerID, NormalizeReviewType(reviewType), model.JobKindCacheRebuild, requestedBy)
}

func (s *OptimizerService) submit(learnerID, reviewType, kind, requestedBy string) (*model.OptimizationJob, error) {
	var job *model.OptimizationJob
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		active, err := s.Jobs.FindActive(tx, learnerID)
		if err != nil && !repository.IsNotFound(err) {
			return err
		}
		if active != nil {
			job = active
			return nil
		}
		if kind == model.JobKindOptimize {
			// Cheap precondition before occupying the job slot: a log
			// smaller than min_samples cannot possibly fit, even before
			// same-day reviews are filtered out.
			n, err := s.Logs.CountByLearnerAndType(learnerID, reviewType)
			if err != nil {
				return err
			}
			if n < int64(s.Cfg.MinSamples) {
				return util.ErrInsufficientData
			}
		}
		job = &model.OptimizationJob{
			LearnerID:   learnerID,
			ReviewType:  reviewType,
			Kind:        kind,
			Status:      model.JobStatusPending,
			RequestedBy: requestedBy,
		}
		return s.Jobs.Create(tx, job)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob returns a job visible to its owner.
func (s *OptimizerService) GetJob(learnerID, jobID string) (*model.OptimizationJob, error) {
	job, err := s.Jobs.FindByID(jobID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrJobNotFound
		}
		return nil, err
	}
	if job.LearnerID != learnerID {
		return nil, util.ErrJobNotFound
	}
	return job, nil
}

// ListJobs returns the learner's recent jobs, newest first.
func (s *OptimizerService) ListJobs(learnerID string) ([]model.OptimizationJob, error) {
	return s.Jobs.ListByLearner(learnerID, 20)
}

// ProcessPendingJobs claims up to limit pending jobs and runs them to a
// terminal status. Called by the background poller; the context bounds each
// job's runtime.
func (s *OptimizerService) ProcessPendingJobs(ctx context.Context, limit int) error {
	jobs, err := s.Jobs.ClaimPending(limit)
	if err != nil {
		return err
	}
	for i := range jobs {
		s.runJob(ctx, &jobs[i])
	}
	return nil
}

func (s *OptimizerService) runJob(ctx context.Context, job *model.OptimizationJob) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("optimizer job panicked",
				zap.String("job_id", job.ID),
				zap.String("kind", job.Kind),
				zap.Any("panic", r))
			s.fail(job, fmt.Sprintf("internal error: %v", r))
		}
	}()

	var err error
	switch job.Kind {
	case model.JobKindOptimize:
		err = s.runOptimize(ctx, job)
	case model.JobKindCacheRebuild:
		err = s.runRebuild(ctx, job)
	default:
		err = fmt.Errorf("unknown job kind %q", job.Kind)
	}

	if err != nil {
		s.Logger.Warn("optimizer job failed",
			zap.String("job_id", job.ID),
			zap.String("kind", job.Kind),
			zap.Error(err))
		s.fail(job, err.Error())
		return
	}

	monitoring.OptimizerJobs.WithLabelValues(job.Kind, model.JobStatusCompleted).Inc()
	monitoring.OptimizerDuration.WithLabelValues(job.Kind).Observe(time.Since(start).Seconds())
	s.Logger.Info("optimizer job completed",
		zap.String("job_id", job.ID),
		zap.String("kind", job.Kind),
		zap.Int("sample_size", job.SampleSize),
		zap.Duration("elapsed", time.Since(start)))
}

func (s *OptimizerService) fail(job *model.OptimizationJob, msg string) {
	monitoring.OptimizerJobs.WithLabelValues(job.Kind, model.JobStatusFailed).Inc()
	now := time.Now()
	if err := s.Jobs.Transition(job, model.JobStatusFailed, map[string]interface{}{
		"error":       msg,
		"finished_at": &now,
	}); err != nil {
		s.Logger.Error("failed to mark job FAILED", zap.String("job_id", job.ID), zap.Error(err))
	}
}

// runOptimize refits the learner's weights from the full review log. When
// the log holds too few cross-day reviews the job fails with a message and
// the stored parameters stay untouched.
func (s *OptimizerService) runOptimize(ctx context.Context, job *model.OptimizationJob) error {
	entries, err := s.Logs.ListByLearnerAndType(job.LearnerID, job.ReviewType)
	if err != nil {
		return err
	}
	samples := make([]optimizer.Sample, 0, len(entries))
	for _, e := range entries {
		samples = append(samples, optimizer.Sample{
			CardID: e.CardID,
			Rating: fsrs.Rating(e.Rating),
			At:     e.ReviewedAt,
		})
	}

	opt := optimizer.New(optimizer.Config{
		Epochs:        s.Cfg.Epochs,
		MiniBatchSize: s.Cfg.MiniBatchSize,
		LearningRate:  s.Cfg.LearningRate,
		MaxSeqLen:     s.Cfg.MaxSeqLen,
		MinSamples:    s.Cfg.MinSamples,
	})
	weights, n, err := opt.Fit(ctx, samples)
	if err != nil {
		if errors.Is(err, optimizer.ErrEmptyLogs) || errors.Is(err, optimizer.ErrInsufficientData) {
			return fmt.Errorf("not enough review history to optimize: %w", err)
		}
		return err
	}

	result, err := json.Marshal(map[string]interface{}{
		"weights":      weights,
		"modelVersion": fsrs.ModelVersion,
		"sampleSize":   n,
	})
	if err != nil {
		return err
	}

	now := time.Now()
	return s.DB.Transaction(func(tx *gorm.DB) error {
		lp := &model.LearnerParameters{
			LearnerID:       job.LearnerID,
			ReviewType:      job.ReviewType,
			SampleSize:      n,
			LastOptimizedAt: &now,
		}
		if err := lp.SetWeights(weights); err != nil {
			return err
		}
		if err := s.Params.Replace(tx, lp); err != nil {
			return err
		}
		job.SampleSize = n
		return s.Jobs.Transition(job, model.JobStatusCompleted, map[string]interface{}{
			"sample_size": n,
			"result_json": string(result),
			"finished_at": &now,
		})
	})
}

// rebuildBatchSize bounds how many cards a rebuild processes between
// cancellation checks.
const rebuildBatchSize = 100

// runRebuild recomputes every card state of the learner by replaying its
// review history under the current weights. Each card commits in its own
// transaction; a version conflict (a review landing mid-rebuild) skips that
// card rather than clobbering the fresher state.
func (s *OptimizerService) runRebuild(ctx context.Context, job *model.OptimizationJob) error {
	sched, err := s.Reviews.SchedulerFor(job.LearnerID, job.ReviewType)
	if err != nil {
		return err
	}
	entries, err := s.Logs.ListByLearnerAndType(job.LearnerID, job.ReviewType)
	if err != nil {
		return err
	}

	history := make(map[string][]fsrs.ReplayStep)
	order := make([]string, 0)
	for _, e := range entries {
		if _, seen := history[e.CardID]; !seen {
			order = append(order, e.CardID)
		}
		history[e.CardID] = append(history[e.CardID], fsrs.ReplayStep{
			Rating: fsrs.Rating(e.Rating),
			At:     e.ReviewedAt,
		})
	}

	var rebuilt, skipped int
	for i, cardID := range order {
		if i%rebuildBatchSize == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		err := s.rebuildCard(sched, job.LearnerID, job.ReviewType, cardID, history[cardID])
		switch {
		case errors.Is(err, util.ErrConcurrency):
			skipped++
		case err != nil:
			return err
		default:
			rebuilt++
		}
	}

	now := time.Now()
	result, _ := json.Marshal(map[string]int{"rebuilt": rebuilt, "skipped": skipped})
	job.SampleSize = rebuilt
	return s.Jobs.Transition(job, model.JobStatusCompleted, map[string]interface{}{
		"sample_size": rebuilt,
		"result_json": string(result),
		"finished_at": &now,
	})
}

func (s *OptimizerService) rebuildCard(sched *fsrs.Scheduler, learnerID, reviewType, cardID string, steps []fsrs.ReplayStep) error {
	if len(steps) == 0 {
		return nil
	}
	fresh, err := sched.Replay(fsrs.NewCard(steps[0].At), steps)
	if err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		cs, err := s.Cards.Find(tx, learnerID, cardID)
		if err != nil {
			if repository.IsNotFound(err) {
				cs = &model.CardState{
					LearnerID:  learnerID,
					CardID:     cardID,
					ReviewType: reviewType,
				}
				cs.ApplyFSRS(fresh)
				return s.Cards.Create(tx, cs)
			}
			return err
		}
		readVersion := cs.Version
		cs.ApplyFSRS(fresh)
		return s.Cards.SaveVersioned(tx, cs, readVersion)
	})
}
