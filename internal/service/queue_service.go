package service

import (
	"sort"
	"time"

	"vocab_srs_backend/internal/model"
	"vocab_srs_backend/internal/repository"
	"vocab_srs_backend/internal/util"
)

// QueueService builds the ordered due-card queue for a learner over a card
// pool. The queue is always rebuilt from the frozen scope by re-querying the
// live card states rather than popped in place: a card whose interval
// collapsed back to "due now" reappears, a card scheduled into the future
// drops out. Rebuilding is O(scope) per refresh; session scopes are snapshot
// at start and stay in the tens of cards.
type QueueService struct {
	CardStates *repository.CardStateRepository
	Decks      *repository.DeckRepository
}

func NewQueueService(cardStates *repository.CardStateRepository, decks *repository.DeckRepository) *QueueService {
	return &QueueService{CardStates: cardStates, Decks: decks}
}

// BuildForCards selects and orders the due subset of cardPoolIDs at time now.
// Cards with no state row yet count as NEW. NEW cards are admitted in pool
// order up to NewCardsPerSession and treated as due now; already-due cards
// are admitted most-overdue-first up to MaxReviewsPerSession. An empty pool
// yields an empty queue.
func (s *QueueService) BuildForCards(learnerID string, cardPoolIDs []string, cfg model.SessionConfig, now time.Time) ([]model.QueueItem, error) {
	if len(cardPoolIDs) == 0 {
		return []model.QueueItem{}, nil
	}

	states, err := s.CardStates.ListByLearnerAndCards(learnerID, cardPoolIDs)
	if err != nil {
		return nil, err
	}

	newCap := cfg.NewCardsPerSession
	if newCap <= 0 {
		newCap = util.DefaultNewCardsPerSession
	}
	reviewCap := cfg.MaxReviewsPerSession
	if reviewCap <= 0 {
		reviewCap = util.DefaultMaxReviewsPerSession
	}
	learnAhead := time.Duration(cfg.LearnAheadMinutes) * time.Minute
	if learnAhead <= 0 {
		learnAhead = util.DefaultLearnAheadMinutes * time.Minute
	}

	var newItems, dueItems []model.QueueItem
	for _, cardID := range cardPoolIDs {
		cs, exists := states[cardID]
		if !exists || cs.State == "NEW" {
			if len(newItems) < newCap {
				newItems = append(newItems, model.QueueItem{CardID: cardID, Due: now, IsNew: true})
			}
			continue
		}
		cutoff := now
		if cs.State == "LEARNING" || cs.State == "RELEARNING" {
			cutoff = now.Add(learnAhead)
		}
		if !cs.Due.After(cutoff) {
			dueItems = append(dueItems, model.QueueItem{CardID: cardID, Due: cs.Due})
		}
	}

	// Most overdue first; the cap drops the least overdue cards.
	sort.SliceStable(dueItems, func(i, j int) bool {
		return dueItems[i].Due.Before(dueItems[j].Due)
	})
	if len(dueItems) > reviewCap {
		dueItems = dueItems[:reviewCap]
	}

	// Merge keeping due ascending; NEW cards sit at "now", i.e. after every
	// overdue review, in pool insertion order.
	queue := append(dueItems, newItems...)
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].Due.Before(queue[j].Due)
	})
	return queue, nil
}

// BuildForDeck resolves the deck through the card pool provider (including
// the access check) and builds the initial queue over its cards. The frozen
// session scope is the set of cards admitted at start time: later rebuilds
// re-query only those, so cards becoming due mid-session do not leak in.
func (s *QueueService) BuildForDeck(learnerID, deckID string, cfg model.SessionConfig, now time.Time) (scope []string, queue []model.QueueItem, err error) {
	pool, err := s.Decks.CardIDsForLearner(learnerID, deckID)
	if err != nil {
		return nil, nil, err
	}
	queue, err = s.BuildForCards(learnerID, pool, cfg, now)
	if err != nil {
		return nil, nil, err
	}
	scope = make([]string, len(queue))
	for i, item := range queue {
		scope[i] = item.CardID
	}
	return scope, queue, nil
}
