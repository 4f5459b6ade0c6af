package migrations

import (
	"gorm.io/gorm"
)

// AddTradeIndexes adds the query indexes the API reads rely on.
func AddTradeIndexes(db *gorm.DB) error {
	// Using raw SQL for index creation to have more control over index types
	indexes := []string{
		// Composite index for per-run per-product trade queries
		`CREATE INDEX IF NOT EXISTS idx_trade_records_run_product
		 ON trade_records(run_id, product_id)`,

		// Index for tick ordering within a run
		`CREATE INDEX IF NOT EXISTS idx_trade_records_run_tick
		 ON trade_records(run_id, tick)`,

		// Composite index for per-run per-agent settlement queries
		`CREATE INDEX IF NOT EXISTS idx_settlement_records_run_agent
		 ON settlement_records(run_id, agent_id)`,
	}

	// Execute each index creation
	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
