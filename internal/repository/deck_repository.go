package repository

import (
	"vocab_srs_backend/internal/model"
	"vocab_srs_backend/internal/util"

	"gorm.io/gorm"
)

// DeckRepository is the card pool provider: deck → card ids, plus the
// learner access check the queue builder runs at session start.
type DeckRepository struct {
	DB *gorm.DB
}

func NewDeckRepository(db *gorm.DB) *DeckRepository {
	return &DeckRepository{DB: db}
}

func (r *DeckRepository) FindByID(deckID string) (*model.Deck, error) {
	var deck model.Deck
	if err := r.DB.First(&deck, "id = ?", deckID).Error; err != nil {
		return nil, err
	}
	return &deck, nil
}

// CardIDsForLearner returns the deck's card ids in deck order, after
// verifying the learner holds a grant. util.ErrDeckNotFound covers both a
// missing deck and a missing grant so callers cannot probe for decks.
func (r *DeckRepository) CardIDsForLearner(learnerID, deckID string) ([]string, error) {
	var granted int64
	err := r.DB.Model(&model.DeckGrant{}).
		Where("deck_id = ? AND learner_id = ?", deckID, learnerID).
		Count(&granted).Error
	if err != nil {
		return nil, err
	}
	if granted == 0 {
		return nil, util.ErrDeckNotFound
	}

	var ids []string
	err = r.DB.Model(&model.DeckCard{}).
		Where("deck_id = ?", deckID).
		Order("`order` ASC, created_at ASC").
		Pluck("card_id", &ids).Error
	return ids, err
}

// LearnerHasCard reports whether any granted deck contains the card.
// The review recorder checks this before touching state.
func (r *DeckRepository) LearnerHasCard(learnerID, cardID string) (bool, error) {
	var n int64
	err := r.DB.Model(&model.DeckCard{}).
		Joins("JOIN deck_grants ON deck_grants.deck_id = deck_cards.deck_id").
		Where("deck_grants.learner_id = ? AND deck_cards.card_id = ?", learnerID, cardID).
		Count(&n).Error
	return n > 0, err
}
