package service

import (
	"context"
	"testing"
	"time"

	"vocab_srs_backend/internal/fsrs"
	"vocab_srs_backend/internal/model"
)

func TestStatsEmptyLearner(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	stats, err := env.stats.ForLearner("l1", "", now)
	if err != nil {
		t.Fatalf("ForLearner: %v", err)
	}

	for _, state := range []string{"NEW", "LEARNING", "REVIEW", "RELEARNING"} {
		if n, ok := stats.StateCounts[state]; !ok || n != 0 {
			t.Errorf("StateCounts[%s] = %d (present %v), want zero-filled", state, n, ok)
		}
	}
	if stats.DueNow != 0 || stats.DueToday != 0 || stats.TotalReviews != 0 {
		t.Errorf("counts = %d/%d/%d, want all zero", stats.DueNow, stats.DueToday, stats.TotalReviews)
	}
	if stats.RecallRate != 0 {
		t.Errorf("RecallRate = %g, want 0 with no reviews", stats.RecallRate)
	}
	if stats.ModelVersion != fsrs.ModelVersion {
		t.Errorf("ModelVersion = %s, want default %s", stats.ModelVersion, fsrs.ModelVersion)
	}
}

func TestStatsAfterReviews(t *testing.T) {
	env := newTestEnv(t)
	_, cards := env.seedDeck(t, "l1", 3)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	// Two successes and one lapse-free failure.
	if _, err := env.review.RecordReview(ctx, "l1", cards[0], fsrs.Good, "", now); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := env.review.RecordReview(ctx, "l1", cards[1], fsrs.Easy, "", now); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := env.review.RecordReview(ctx, "l1", cards[2], fsrs.Again, "", now); err != nil {
		t.Fatalf("review: %v", err)
	}

	stats, err := env.stats.ForLearner("l1", "", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("ForLearner: %v", err)
	}

	// Good and Again stay in learning; Easy graduates straight to review.
	if stats.StateCounts["LEARNING"] != 2 {
		t.Errorf("LEARNING = %d, want 2", stats.StateCounts["LEARNING"])
	}
	if stats.StateCounts["REVIEW"] != 1 {
		t.Errorf("REVIEW = %d, want 1", stats.StateCounts["REVIEW"])
	}
	if stats.TotalReviews != 3 {
		t.Errorf("TotalReviews = %d, want 3", stats.TotalReviews)
	}
	want := 2.0 / 3.0
	if diff := stats.RecallRate - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("RecallRate = %g, want %g", stats.RecallRate, want)
	}

	// The Again card came due one minute after its review; the Good card
	// is due at +10m, so it counts for today but not for now.
	if stats.DueNow != 1 {
		t.Errorf("DueNow = %d, want 1", stats.DueNow)
	}
	if stats.DueToday < 2 {
		t.Errorf("DueToday = %d, want at least 2", stats.DueToday)
	}

	// Other learners see nothing.
	other, err := env.stats.ForLearner("l2", "", now)
	if err != nil {
		t.Fatalf("ForLearner l2: %v", err)
	}
	if other.TotalReviews != 0 || other.StateCounts["LEARNING"] != 0 {
		t.Error("stats leaked across learners")
	}
}

func TestStatsIncludesFittedParameters(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	optimizedAt := now.Add(-time.Hour)

	lp := &model.LearnerParameters{
		LearnerID:       "l1",
		ReviewType:      "vocabulary",
		SampleSize:      420,
		LastOptimizedAt: &optimizedAt,
	}
	if err := lp.SetWeights(fsrs.DefaultWeights); err != nil {
		t.Fatalf("SetWeights: %v", err)
	}
	if err := env.params.Replace(nil, lp); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	stats, err := env.stats.ForLearner("l1", "", now)
	if err != nil {
		t.Fatalf("ForLearner: %v", err)
	}
	if stats.ParamSampleSize != 420 {
		t.Errorf("ParamSampleSize = %d, want 420", stats.ParamSampleSize)
	}
	if stats.LastOptimizedAt == nil || !stats.LastOptimizedAt.Equal(optimizedAt) {
		t.Errorf("LastOptimizedAt = %v, want %v", stats.LastOptimizedAt, optimizedAt)
	}
	if stats.ModelVersion != fsrs.ModelVersion {
		t.Errorf("ModelVersion = %s, want %s", stats.ModelVersion, fsrs.ModelVersion)
	}
}
