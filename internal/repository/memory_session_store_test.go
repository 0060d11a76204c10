package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"vocab_srs_backend/internal/model"
	"vocab_srs_backend/internal/util"
)

func testProgress(id string) *model.SessionProgress {
	return &model.SessionProgress{
		SessionID:    id,
		LearnerID:    "l1",
		ExerciseType: model.ExerciseVocabularyDeck,
		StartedAt:    time.Now().UTC(),
		Encountered:  map[string]bool{},
		Vocabulary: &model.VocabularyProgress{
			Stage:  model.StagePresentingCard,
			DeckID: "deck-1",
		},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	sp := testProgress("s1")
	if err := store.Save(ctx, sp, time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SessionID != "s1" || got.Vocabulary == nil || got.Vocabulary.DeckID != "deck-1" {
		t.Errorf("round trip lost data: %+v", got)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("Get after delete err = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStoreLockExcludes(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	ok, err := store.TryLock(ctx, "s1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first TryLock = %v, %v", ok, err)
	}

	ok, err = store.TryLock(ctx, "s1", time.Minute)
	if err != nil {
		t.Fatalf("second TryLock: %v", err)
	}
	if ok {
		t.Error("second TryLock acquired a held lock")
	}

	// A different session is independent.
	ok, _ = store.TryLock(ctx, "s2", time.Minute)
	if !ok {
		t.Error("lock on s2 should be free")
	}

	if err := store.Unlock(ctx, "s1"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	ok, _ = store.TryLock(ctx, "s1", time.Minute)
	if !ok {
		t.Error("TryLock after Unlock should succeed")
	}
}

func TestMemoryStoreLockExpires(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	if ok, _ := store.TryLock(ctx, "s1", time.Millisecond); !ok {
		t.Fatal("TryLock failed")
	}
	time.Sleep(5 * time.Millisecond)
	if ok, _ := store.TryLock(ctx, "s1", time.Minute); !ok {
		t.Error("expired lock should be reacquirable")
	}
}
