package database

import (
	"fmt"
	"log"

	"vocab_srs_backend/internal/config"
	"vocab_srs_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")
	return db, nil
}

// Migrate creates or updates the schema for every scheduling table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Deck{},
		&model.DeckCard{},
		&model.DeckGrant{},
		&model.CardState{},
		&model.ReviewLogEntry{},
		&model.LearnerParameters{},
		&model.OptimizationJob{},
	)
}
