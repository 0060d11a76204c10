package repository

import (
	"fmt"
	"testing"

	"vocab_srs_backend/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testDB opens a fresh in-memory database migrated with the full schema.
// The shared-cache name keys on the test name so parallel tests don't
// collide while the connection pool still sees one database.
func testDB(t *testing.T) *gorm.DB {
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
	return db
}
