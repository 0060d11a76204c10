package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"vocab_srs_backend/internal/fsrs"
	"vocab_srs_backend/internal/model"
	"vocab_srs_backend/internal/repository"
	"vocab_srs_backend/internal/util"
)

// seedLog appends n raw log entries for the learner. With crossDay set the
// entries spread over one day apart so they count as optimizer samples;
// otherwise they all land within a single day.
func seedLog(t *testing.T, env *testEnv, learnerID string, n int, crossDay bool) {
	t.Helper()
	at := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		entry := &model.ReviewLogEntry{
			LearnerID:  learnerID,
			CardID:     fmt.Sprintf("log-card-%02d", i%4),
			Rating:     3,
			ReviewType: "vocabulary",
			ReviewedAt: at,
		}
		if err := env.logs.Append(nil, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
		if crossDay {
			at = at.AddDate(0, 0, 1)
		} else {
			at = at.Add(time.Minute)
		}
	}
}

func TestSubmitJobIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	seedLog(t, env, "l1", 32, true)
	seedLog(t, env, "l2", 32, true)

	first, err := env.optimizer.RequestOptimization("l1", "", "l1")
	if err != nil {
		t.Fatalf("RequestOptimization: %v", err)
	}
	if first.Status != model.JobStatusPending {
		t.Errorf("status = %s, want PENDING", first.Status)
	}

	second, err := env.optimizer.RequestOptimization("l1", "", "l1")
	if err != nil {
		t.Fatalf("second RequestOptimization: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("duplicate request created job %s, want existing %s", second.ID, first.ID)
	}

	// A rebuild request while the optimize job is active also returns it.
	third, err := env.optimizer.RequestCacheRebuild("l1", "", "l1")
	if err != nil {
		t.Fatalf("RequestCacheRebuild: %v", err)
	}
	if third.ID != first.ID {
		t.Errorf("rebuild request got %s, want active job %s", third.ID, first.ID)
	}

	// Other learners are unaffected.
	other, err := env.optimizer.RequestOptimization("l2", "", "l2")
	if err != nil {
		t.Fatalf("other learner: %v", err)
	}
	if other.ID == first.ID {
		t.Error("jobs must be per learner")
	}
}

func TestRequestOptimizationRejectsThinLog(t *testing.T) {
	env := newTestEnv(t)
	seedLog(t, env, "l1", 3, true)

	_, err := env.optimizer.RequestOptimization("l1", "", "l1")
	if !errors.Is(err, util.ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}

	// The rejected request must not occupy the learner's job slot.
	jobs, err := env.optimizer.ListJobs("l1")
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("%d jobs created by a rejected request, want 0", len(jobs))
	}

	// Rebuilds have no sample requirement.
	if _, err := env.optimizer.RequestCacheRebuild("l1", "", "l1"); err != nil {
		t.Errorf("RequestCacheRebuild: %v", err)
	}
}

func TestOptimizeJobInsufficientData(t *testing.T) {
	env := newTestEnv(t)

	// Enough raw entries to pass submission, but all within one day, so
	// the fit finds no usable samples and the job fails.
	seedLog(t, env, "l1", 32, false)

	job, err := env.optimizer.RequestOptimization("l1", "", "l1")
	if err != nil {
		t.Fatalf("RequestOptimization: %v", err)
	}
	if err := env.optimizer.ProcessPendingJobs(context.Background(), 10); err != nil {
		t.Fatalf("ProcessPendingJobs: %v", err)
	}

	got, err := env.optimizer.GetJob("l1", job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != model.JobStatusFailed {
		t.Errorf("status = %s, want FAILED", got.Status)
	}
	if got.Error == "" {
		t.Error("failed job should carry an error message")
	}

	// Parameters stay untouched.
	if _, err := env.params.Find("l1", "vocabulary"); !repository.IsNotFound(err) {
		t.Errorf("parameters should be absent, got err = %v", err)
	}
}

func TestOptimizeJobFitsParameters(t *testing.T) {
	env := newTestEnv(t)
	logs := env.logs

	// Synthesize a log with plenty of cross-day reviews directly; driving
	// hundreds through the recorder would just be slower.
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for c := 0; c < 10; c++ {
		cardID := fmt.Sprintf("log-card-%02d", c)
		at := base
		for r := 0; r < 6; r++ {
			rating := 3
			if r%4 == 3 {
				rating = 1
			}
			entry := &model.ReviewLogEntry{
				LearnerID:  "l1",
				CardID:     cardID,
				Rating:     rating,
				ReviewType: "vocabulary",
				ReviewedAt: at,
			}
			if err := logs.Append(nil, entry); err != nil {
				t.Fatalf("append: %v", err)
			}
			at = at.AddDate(0, 0, 2+r)
		}
	}

	job, err := env.optimizer.RequestOptimization("l1", "", "l1")
	if err != nil {
		t.Fatalf("RequestOptimization: %v", err)
	}
	if err := env.optimizer.ProcessPendingJobs(context.Background(), 10); err != nil {
		t.Fatalf("ProcessPendingJobs: %v", err)
	}

	got, err := env.optimizer.GetJob("l1", job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("status = %s (%s), want COMPLETED", got.Status, got.Error)
	}
	if got.SampleSize == 0 {
		t.Error("completed job should report its sample size")
	}
	if got.FinishedAt == nil {
		t.Error("completed job should have FinishedAt")
	}

	lp, err := env.params.Find("l1", "vocabulary")
	if err != nil {
		t.Fatalf("params after fit: %v", err)
	}
	w, err := lp.Weights()
	if err != nil {
		t.Fatalf("stored weights invalid: %v", err)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("stored weights out of bounds: %v", err)
	}
	if lp.ModelVersion != fsrs.ModelVersion {
		t.Errorf("model version = %s, want %s", lp.ModelVersion, fsrs.ModelVersion)
	}
}

func TestRebuildJobReplaysHistory(t *testing.T) {
	env := newTestEnv(t)
	_, cards := env.seedDeck(t, "l1", 2)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	// Build some real history through the recorder.
	times := []time.Time{now, now.Add(10 * time.Minute), now.Add(2 * 24 * time.Hour)}
	for _, at := range times {
		for _, id := range cards {
			if _, err := env.review.RecordReview(ctx, "l1", id, fsrs.Good, "", at); err != nil {
				t.Fatalf("seed review: %v", err)
			}
		}
	}
	before, err := env.cards.Find(nil, "l1", cards[0])
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	job, err := env.optimizer.RequestCacheRebuild("l1", "", "l1")
	if err != nil {
		t.Fatalf("RequestCacheRebuild: %v", err)
	}
	if err := env.optimizer.ProcessPendingJobs(ctx, 10); err != nil {
		t.Fatalf("ProcessPendingJobs: %v", err)
	}

	got, err := env.optimizer.GetJob("l1", job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("status = %s (%s), want COMPLETED", got.Status, got.Error)
	}
	if got.SampleSize != 2 {
		t.Errorf("rebuilt = %d cards, want 2", got.SampleSize)
	}

	// Replaying under unchanged weights reproduces the same state; the
	// version column moves because the row was rewritten.
	after, err := env.cards.Find(nil, "l1", cards[0])
	if err != nil {
		t.Fatalf("Find after rebuild: %v", err)
	}
	if after.State != before.State || after.Reps != before.Reps {
		t.Errorf("state changed: %s/%d -> %s/%d", before.State, before.Reps, after.State, after.Reps)
	}
	if diff := after.Stability - before.Stability; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("stability drifted: %g -> %g", before.Stability, after.Stability)
	}
	if after.Version <= before.Version {
		t.Errorf("version = %d, want > %d", after.Version, before.Version)
	}
}

func TestGetJobOwnership(t *testing.T) {
	env := newTestEnv(t)
	seedLog(t, env, "l1", 32, true)

	job, err := env.optimizer.RequestOptimization("l1", "", "l1")
	if err != nil {
		t.Fatalf("RequestOptimization: %v", err)
	}

	if _, err := env.optimizer.GetJob("l2", job.ID); !errors.Is(err, util.ErrJobNotFound) {
		t.Errorf("foreign GetJob err = %v, want ErrJobNotFound", err)
	}
	if _, err := env.optimizer.GetJob("l1", "nope"); !errors.Is(err, util.ErrJobNotFound) {
		t.Errorf("missing GetJob err = %v, want ErrJobNotFound", err)
	}
}
