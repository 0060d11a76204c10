package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"vocab_srs_backend/internal/fsrs"
	"vocab_srs_backend/internal/model"
	"vocab_srs_backend/internal/repository"
	"vocab_srs_backend/internal/util"
)

func TestRecordReviewFirstRating(t *testing.T) {
	env := newTestEnv(t)
	_, cards := env.seedDeck(t, "l1", 3)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	cs, err := env.review.RecordReview(context.Background(), "l1", cards[0], fsrs.Good, "", now)
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if cs.State != "LEARNING" {
		t.Errorf("State = %s, want LEARNING", cs.State)
	}
	if cs.Reps != 1 {
		t.Errorf("Reps = %d, want 1", cs.Reps)
	}
	if got := cs.Due.Sub(now); got != 10*time.Minute {
		t.Errorf("Due offset = %v, want 10m", got)
	}

	// State write and log append commit together.
	logs, err := env.logs.ListByLearnerAndType("l1", "vocabulary")
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("log entries = %d, want 1", len(logs))
	}
	e := logs[0]
	if e.Rating != int(fsrs.Good) || e.StateBefore != "NEW" || e.StateAfter != "LEARNING" {
		t.Errorf("log entry = %+v", e)
	}
	if e.StabilityAfter <= 0 {
		t.Errorf("StabilityAfter = %g, want > 0", e.StabilityAfter)
	}
}

func TestRecordReviewAdvancesVersion(t *testing.T) {
	env := newTestEnv(t)
	_, cards := env.seedDeck(t, "l1", 1)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	if _, err := env.review.RecordReview(context.Background(), "l1", cards[0], fsrs.Good, "", now); err != nil {
		t.Fatalf("first review: %v", err)
	}
	cs, err := env.review.RecordReview(context.Background(), "l1", cards[0], fsrs.Good, "", now.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("second review: %v", err)
	}
	if cs.Version != 1 {
		t.Errorf("version = %d, want 1 after the second write", cs.Version)
	}
	if cs.Reps != 2 {
		t.Errorf("Reps = %d, want 2", cs.Reps)
	}
}

func TestRecordReviewRejectsUngrantedCard(t *testing.T) {
	env := newTestEnv(t)
	env.seedDeck(t, "l1", 1)

	_, err := env.review.RecordReview(context.Background(), "l1", "not-in-any-deck", fsrs.Good, "", time.Now())
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	// Same card, different learner without a grant.
	_, err = env.review.RecordReview(context.Background(), "l2", "card-00", fsrs.Good, "", time.Now())
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRecordReviewRejectsInvalidRating(t *testing.T) {
	env := newTestEnv(t)
	_, cards := env.seedDeck(t, "l1", 1)

	_, err := env.review.RecordReview(context.Background(), "l1", cards[0], 0, "", time.Now())
	if !errors.Is(err, fsrs.ErrInvalidRating) {
		t.Errorf("err = %v, want ErrInvalidRating", err)
	}

	// The failed attempt must leave no partial writes behind.
	history, err := env.logs.ListByLearnerCardAndType("l1", cards[0], "vocabulary")
	if err != nil {
		t.Fatalf("ListByLearnerCardAndType: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("log has %d entries after rejected review, want 0", len(history))
	}
}

func TestRecordReviewUsesFittedWeights(t *testing.T) {
	env := newTestEnv(t)
	_, cards := env.seedDeck(t, "l1", 1)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	// Store a fitted vector with a very different first-rating stability.
	w := fsrs.DefaultWeights
	w[2] = 50 // S0(Good)
	lp := &model.LearnerParameters{LearnerID: "l1", ReviewType: "vocabulary"}
	if err := lp.SetWeights(w); err != nil {
		t.Fatalf("SetWeights: %v", err)
	}
	if err := env.params.Replace(nil, lp); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	cs, err := env.review.RecordReview(context.Background(), "l1", cards[0], fsrs.Good, "", now)
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if cs.Stability != 50 {
		t.Errorf("Stability = %g, want 50 from the fitted weights", cs.Stability)
	}
}

func TestPreviewIntervalsCoversAllRatings(t *testing.T) {
	env := newTestEnv(t)
	_, cards := env.seedDeck(t, "l1", 1)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	previews, err := env.review.PreviewIntervals("l1", cards[0], "", now)
	if err != nil {
		t.Fatalf("PreviewIntervals: %v", err)
	}
	if len(previews) != 4 {
		t.Fatalf("previews = %d entries, want 4", len(previews))
	}
	if previews[fsrs.Easy].State != fsrs.StateReview {
		t.Errorf("Easy preview state = %v, want REVIEW", previews[fsrs.Easy].State)
	}
	if previews[fsrs.Again].Due.Sub(now) != time.Minute {
		t.Errorf("Again preview offset = %v, want 1m", previews[fsrs.Again].Due.Sub(now))
	}
}

func TestRecordReviewRollsBackOnLogFailure(t *testing.T) {
	env := newTestEnv(t)
	_, cards := env.seedDeck(t, "l1", 1)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	before, err := env.review.RecordReview(ctx, "l1", cards[0], fsrs.Good, "", now)
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}

	// Sabotage the log append so the transaction fails after the state
	// row has been written.
	if err := env.db.Migrator().DropTable(&model.ReviewLogEntry{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	_, err = env.review.RecordReview(ctx, "l1", cards[0], fsrs.Good, "", now.Add(10*time.Minute))
	if err == nil {
		t.Fatal("RecordReview succeeded with the log table missing")
	}
	if errors.Is(err, util.ErrConcurrency) {
		t.Errorf("storage failure surfaced as ErrConcurrency: %v", err)
	}

	// The failed attempt rolled back both writes: the state row re-reads
	// exactly as it was.
	cs, err := env.cards.Find(nil, "l1", cards[0])
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if cs.Version != before.Version || cs.Reps != before.Reps || !cs.Due.Equal(before.Due) {
		t.Errorf("state changed despite rollback: version %d->%d, reps %d->%d",
			before.Version, cs.Version, before.Reps, cs.Reps)
	}
}

func TestRecordReviewRollsBackFirstReview(t *testing.T) {
	env := newTestEnv(t)
	_, cards := env.seedDeck(t, "l1", 1)
	ctx := context.Background()

	if err := env.db.Migrator().DropTable(&model.ReviewLogEntry{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	_, err := env.review.RecordReview(ctx, "l1", cards[0], fsrs.Good, "", time.Now())
	if err == nil {
		t.Fatal("RecordReview succeeded with the log table missing")
	}

	// No state row may survive the rolled-back first review.
	if _, err := env.cards.Find(nil, "l1", cards[0]); !repository.IsNotFound(err) {
		t.Errorf("Find err = %v, want not-found after rollback", err)
	}
}
