package database

import (
	"fmt"

	"github.com/voltmark/intraday/internal/database/migrations"
	"github.com/voltmark/intraday/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens (or creates) the SQLite database at path and
// migrates all schemas.
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.AutoMigrate(
		&store.Run{},
		&store.TradeRecord{},
		&store.SettlementRecord{},
		&store.ProductRecord{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate schemas: %w", err)
	}

	// Run migrations
	if err := migrations.AddTradeIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
