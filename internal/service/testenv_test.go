package service

import (
	"fmt"
	"testing"
	"time"

	"vocab_srs_backend/internal/config"
	"vocab_srs_backend/internal/model"
	"vocab_srs_backend/internal/repository"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// testEnv wires the full service stack over an in-memory database and a
// process-local session store.
type testEnv struct {
	db        *gorm.DB
	cards     *repository.CardStateRepository
	logs      *repository.ReviewLogRepository
	params    *repository.LearnerParametersRepository
	jobs      *repository.OptimizationJobRepository
	decks     *repository.DeckRepository
	store     *repository.MemorySessionStore
	review    *ReviewService
	queue     *QueueService
	session   *SessionService
	optimizer *OptimizerService
	stats     *StatsService
}

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		DesiredRetention:       0.9,
		LearningStepsMinutes:   []int{1, 10},
		RelearningStepsMinutes: []int{10},
		MinIntervalDays:        1,
		MaxIntervalDays:        36500,
		NewCardsPerSession:     20,
		MaxReviewsPerSession:   200,
		SessionTTLMinutes:      720,
		ReviewRetryAttempts:    3,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Deck{},
		&model.DeckCard{},
		&model.DeckGrant{},
		&model.CardState{},
		&model.ReviewLogEntry{},
		&model.LearnerParameters{},
		&model.OptimizationJob{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &testEnv{
		db:     db,
		cards:  repository.NewCardStateRepository(db),
		logs:   repository.NewReviewLogRepository(db),
		params: repository.NewLearnerParametersRepository(db),
		jobs:   repository.NewOptimizationJobRepository(db),
		decks:  repository.NewDeckRepository(db),
		store:  repository.NewMemorySessionStore(),
	}
	env.review = NewReviewService(db, env.cards, env.logs, env.params, env.decks, testSchedulerConfig())
	env.queue = NewQueueService(env.cards, env.decks)
	env.session = NewSessionService(env.store, env.queue, env.review, 12*time.Hour)
	env.optimizer = NewOptimizerService(db, env.jobs, env.params, env.logs, env.cards, env.review, config.OptimizerConfig{
		Epochs:        2,
		MiniBatchSize: 16,
		MinSamples:    16,
	}, testLogger())
	env.stats = NewStatsService(env.cards, env.logs, env.params)
	return env
}

// seedDeck creates a deck with n cards and grants it to the learner.
// Returns the deck id and card ids in deck order.
func (e *testEnv) seedDeck(t *testing.T, learnerID string, n int) (string, []string) {
	t.Helper()
	deck := &model.Deck{Name: "test deck", ReviewType: "vocabulary"}
	if err := e.db.Create(deck).Error; err != nil {
		t.Fatalf("create deck: %v", err)
	}
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		card := &model.DeckCard{DeckID: deck.ID, CardID: fmt.Sprintf("card-%02d", i), Order: i}
		if err := e.db.Create(card).Error; err != nil {
			t.Fatalf("create deck card: %v", err)
		}
		ids[i] = card.CardID
	}
	grant := &model.DeckGrant{DeckID: deck.ID, LearnerID: learnerID}
	if err := e.db.Create(grant).Error; err != nil {
		t.Fatalf("create grant: %v", err)
	}
	return deck.ID, ids
}
