package repository

import (
	"errors"
	"strings"
	"time"

	"vocab_srs_backend/internal/model"
	"vocab_srs_backend/internal/util"

	"gorm.io/gorm"
)

type CardStateRepository struct {
	DB *gorm.DB
}

func NewCardStateRepository(db *gorm.DB) *CardStateRepository {
	return &CardStateRepository{DB: db}
}

// Find returns the state row for a learner×card pair, or gorm.ErrRecordNotFound.
// Pass a transaction handle to read inside a transaction.
func (r *CardStateRepository) Find(db *gorm.DB, learnerID, cardID string) (*model.CardState, error) {
	if db == nil {
		db = r.DB
	}
	var cs model.CardState
	err := db.Where("learner_id = ? AND card_id = ?", learnerID, cardID).First(&cs).Error
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

// SaveVersioned persists the row predicated on the version it was read at.
// The update is rejected with util.ErrConcurrency when another writer got
// there first; the caller re-reads and retries.
func (r *CardStateRepository) SaveVersioned(db *gorm.DB, cs *model.CardState, readVersion int64) error {
	if db == nil {
		db = r.DB
	}
	cs.Version = readVersion + 1
	res := db.Model(&model.CardState{}).
		Where("id = ? AND version = ?", cs.ID, readVersion).
		Updates(map[string]interface{}{
			"state":            cs.State,
			"step":             cs.Step,
			"stability":        cs.Stability,
			"difficulty":       cs.Difficulty,
			"reps":             cs.Reps,
			"lapses":           cs.Lapses,
			"due":              cs.Due,
			"last_reviewed_at": cs.LastReviewedAt,
			"version":          cs.Version,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrConcurrency
	}
	return nil
}

func (r *CardStateRepository) Create(db *gorm.DB, cs *model.CardState) error {
	if db == nil {
		db = r.DB
	}
	return db.Create(cs).Error
}

// ListByLearnerAndCards returns the existing state rows for the given cards,
// keyed by card id. Cards with no row yet are simply absent.
func (r *CardStateRepository) ListByLearnerAndCards(learnerID string, cardIDs []string) (map[string]*model.CardState, error) {
	if len(cardIDs) == 0 {
		return map[string]*model.CardState{}, nil
	}
	var rows []model.CardState
	err := r.DB.Where("learner_id = ? AND card_id IN ?", learnerID, cardIDs).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.CardState, len(rows))
	for i := range rows {
		out[rows[i].CardID] = &rows[i]
	}
	return out, nil
}

// StateCounts aggregates the learner's cards by state.
func (r *CardStateRepository) StateCounts(learnerID string) (map[string]int64, error) {
	type row struct {
		State string
		N     int64
	}
	var rows []row
	err := r.DB.Model(&model.CardState{}).
		Select("state, COUNT(*) AS n").
		Where("learner_id = ?", learnerID).
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, rw := range rows {
		out[rw.State] = rw.N
	}
	return out, nil
}

// CountDueBefore counts non-new cards due at or before the cutoff.
func (r *CardStateRepository) CountDueBefore(learnerID string, cutoff time.Time) (int64, error) {
	var n int64
	err := r.DB.Model(&model.CardState{}).
		Where("learner_id = ? AND state <> ? AND due <= ?", learnerID, "NEW", cutoff).
		Count(&n).Error
	return n, err
}

// IsNotFound reports whether the error is a missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKey reports whether the error is a unique-index violation.
// Drivers without gorm error translation report these as raw driver errors,
// so the message is checked as a fallback.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
