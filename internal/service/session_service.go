package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vocab_srs_backend/internal/fsrs"
	"vocab_srs_backend/internal/model"
	"vocab_srs_backend/internal/repository"
	"vocab_srs_backend/internal/util"
)

// Session actions form a closed tagged union, validated once at the boundary
// and dispatched to a dedicated handler per variant.
const (
	ActionRevealAnswer = "reveal_answer"
	ActionSubmitRating = "submit_rating"
	ActionEndSession   = "end_session"
)

// Action is one client-submitted session action.
type Action struct {
	Type   string       `json:"type"`
	Rating *fsrs.Rating `json:"rating,omitempty"` // required for submit_rating
}

// ParseAction decodes and validates an action payload.
func ParseAction(data []byte) (Action, error) {
	var a Action
	if err := json.Unmarshal(data, &a); err != nil {
		return Action{}, fmt.Errorf("invalid action payload: %w", err)
	}
	switch a.Type {
	case ActionRevealAnswer, ActionEndSession:
		return a, nil
	case ActionSubmitRating:
		if a.Rating == nil {
			return Action{}, fmt.Errorf("%w: submit_rating requires a rating", fsrs.ErrInvalidRating)
		}
		if !a.Rating.IsValid() {
			return Action{}, fmt.Errorf("%w: %d", fsrs.ErrInvalidRating, int(*a.Rating))
		}
		return a, nil
	default:
		return Action{}, fmt.Errorf("unknown action type %q", a.Type)
	}
}

// SessionService drives the per-session presentation state machine:
// PRESENTING_CARD → AWAITING_RATING → PRESENTING_CARD … until the queue is
// exhausted or the session is ended explicitly.
type SessionService struct {
	Store   repository.SessionStore
	Queue   *QueueService
	Reviews *ReviewService

	TTL     time.Duration
	LockTTL time.Duration
}

func NewSessionService(store repository.SessionStore, queue *QueueService, reviews *ReviewService, ttl time.Duration) *SessionService {
	return &SessionService{
		Store:   store,
		Queue:   queue,
		Reviews: reviews,
		TTL:     ttl,
		LockTTL: 30 * time.Second,
	}
}

// Start opens a vocabulary-deck session: snapshots the due cards of the deck
// as the frozen scope and presents the first queue entry.
func (s *SessionService) Start(ctx context.Context, learnerID, deckID string, cfg model.SessionConfig, now time.Time) (*model.SessionProgress, error) {
	deck, err := s.Queue.Decks.FindByID(deckID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrDeckNotFound
		}
		return nil, err
	}

	scope, queue, err := s.Queue.BuildForDeck(learnerID, deckID, cfg, now)
	if err != nil {
		return nil, err
	}

	sp := &model.SessionProgress{
		SessionID:    model.GenerateUUID(),
		LearnerID:    learnerID,
		ExerciseType: model.ExerciseVocabularyDeck,
		StartedAt:    now,
		Encountered:  map[string]bool{},
		Vocabulary: &model.VocabularyProgress{
			Stage:          model.StagePresentingCard,
			DeckID:         deckID,
			ReviewType:     NormalizeReviewType(deck.ReviewType),
			InitialCardIDs: scope,
			Queue:          queue,
			Config:         cfg,
		},
	}
	if len(queue) > 0 {
		sp.Vocabulary.CurrentCardID = queue[0].CardID
	} else {
		sp.Ended = true
	}

	if err := s.Store.Save(ctx, sp, s.TTL); err != nil {
		return nil, err
	}
	return sp, nil
}

// Get returns the session progress for its owner.
func (s *SessionService) Get(ctx context.Context, learnerID, sessionID string) (*model.SessionProgress, error) {
	sp, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sp.LearnerID != learnerID {
		return nil, util.ErrSessionNotFound
	}
	return sp, nil
}

// Submit applies one action to the session. At most one action per session
// is in flight at a time: a second submission while the first is running is
// rejected with util.ErrSessionBusy rather than interleaved.
func (s *SessionService) Submit(ctx context.Context, learnerID, sessionID string, action Action, now time.Time) (*model.Snapshot, error) {
	locked, err := s.Store.TryLock(ctx, sessionID, s.LockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, util.ErrSessionBusy
	}
	defer s.Store.Unlock(ctx, sessionID)

	sp, err := s.Get(ctx, learnerID, sessionID)
	if err != nil {
		return nil, err
	}
	if sp.Ended && action.Type != ActionEndSession {
		return nil, util.ErrSessionEnded
	}

	switch action.Type {
	case ActionRevealAnswer:
		err = s.handleReveal(sp)
	case ActionSubmitRating:
		err = s.handleRating(ctx, sp, *action.Rating, now)
	case ActionEndSession:
		err = s.handleEnd(sp)
	default:
		err = fmt.Errorf("unknown action type %q", action.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Store.Save(ctx, sp, s.TTL); err != nil {
		return nil, err
	}
	return s.snapshot(sp, now), nil
}

// End terminates the session and emits the final progress snapshot.
func (s *SessionService) End(ctx context.Context, learnerID, sessionID string, now time.Time) (*model.Snapshot, error) {
	return s.Submit(ctx, learnerID, sessionID, Action{Type: ActionEndSession}, now)
}

func (s *SessionService) handleReveal(sp *model.SessionProgress) error {
	vp := sp.Vocabulary
	if vp.Stage != model.StagePresentingCard {
		return util.ErrInvalidStage
	}
	if len(vp.Queue) == 0 {
		return util.ErrEmptyQueue
	}
	vp.Stage = model.StageAwaitingRating
	return nil
}

func (s *SessionService) handleRating(ctx context.Context, sp *model.SessionProgress, rating fsrs.Rating, now time.Time) error {
	vp := sp.Vocabulary
	if vp.Stage != model.StageAwaitingRating {
		return util.ErrInvalidStage
	}
	if len(vp.Queue) == 0 {
		return util.ErrEmptyQueue
	}

	head := vp.Queue[0]
	if _, err := s.Reviews.RecordReview(ctx, sp.LearnerID, head.CardID, rating, vp.ReviewType, now); err != nil {
		return err
	}

	sp.ReviewCount++
	sp.Encountered[head.CardID] = true

	// Rebuild from the frozen scope instead of popping: the fresh due state
	// decides who stays, reappears or leaves.
	queue, err := s.Queue.BuildForCards(sp.LearnerID, vp.InitialCardIDs, vp.Config, now)
	if err != nil {
		return err
	}
	vp.Queue = queue
	vp.Stage = model.StagePresentingCard
	if len(queue) > 0 {
		vp.CurrentCardID = queue[0].CardID
	} else {
		vp.CurrentCardID = ""
		sp.Ended = true
	}
	return nil
}

func (s *SessionService) handleEnd(sp *model.SessionProgress) error {
	sp.Ended = true
	sp.Vocabulary.Stage = model.StagePresentingCard
	sp.Vocabulary.CurrentCardID = ""
	return nil
}

func (s *SessionService) snapshot(sp *model.SessionProgress, now time.Time) *model.Snapshot {
	vp := sp.Vocabulary
	initial := len(vp.InitialCardIDs)
	remaining := len(vp.Queue)
	completed := initial - remaining
	if completed < 0 {
		completed = 0
	}
	pct := 0.0
	if initial > 0 {
		pct = float64(completed) / float64(initial) * 100
	}
	return &model.Snapshot{
		SessionID:      sp.SessionID,
		Stage:          vp.Stage,
		Ended:          sp.Ended,
		InitialCount:   initial,
		RemainingCount: remaining,
		CompletedCount: completed,
		ReviewCount:    sp.ReviewCount,
		Encountered:    len(sp.Encountered),
		ProgressPct:    pct,
		ElapsedSec:     int64(now.Sub(sp.StartedAt).Seconds()),
		CurrentCardID:  vp.CurrentCardID,
	}
}
