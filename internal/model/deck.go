package model

// Deck is the minimal card-pool record the scheduler needs: a named scope of
// cards plus per-learner access grants. Content authoring lives elsewhere.
type Deck struct {
	UUIDBase
	Name       string `gorm:"size:255;not null" json:"name"`
	ReviewType string `gorm:"size:32;not null;default:'vocabulary';index" json:"reviewType"`
	OwnerID    string `gorm:"type:varchar(36);index" json:"ownerId"`
}

func (Deck) TableName() string {
	return "decks"
}

// DeckCard places one card in a deck.
type DeckCard struct {
	UUIDBase
	DeckID string `gorm:"type:varchar(36);index:idx_deck_card,unique" json:"deckId"`
	CardID string `gorm:"type:varchar(36);index:idx_deck_card,unique;index" json:"cardId"`
	Order  int    `gorm:"default:0" json:"order"`
}

func (DeckCard) TableName() string {
	return "deck_cards"
}

// DeckGrant records that a learner has access to a deck. Created by the
// surrounding system when access is purchased or assigned.
type DeckGrant struct {
	UUIDBase
	DeckID    string `gorm:"type:varchar(36);index:idx_deck_grant,unique" json:"deckId"`
	LearnerID string `gorm:"type:varchar(36);index:idx_deck_grant,unique;index" json:"learnerId"`
}

func (DeckGrant) TableName() string {
	return "deck_grants"
}
