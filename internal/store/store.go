package store

import (
	"fmt"

	"gorm.io/gorm"
)

// Store persists runs, trades and settlements and serves the API reads.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateRun(run *Run) error {
	if err := s.db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (s *Store) UpdateRun(run *Run) error {
	if err := s.db.Save(run).Error; err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

func (s *Store) GetRun(runID string) (*Run, error) {
	var run Run
	if err := s.db.Where("run_id = ?", runID).First(&run).Error; err != nil {
		return nil, fmt.Errorf("run not found: %w", err)
	}
	return &run, nil
}

func (s *Store) ListRuns(limit int) ([]Run, error) {
	var runs []Run
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (s *Store) CreateTrades(trades []TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}
	if err := s.db.CreateInBatches(trades, 500).Error; err != nil {
		return fmt.Errorf("failed to create trades: %w", err)
	}
	return nil
}

func (s *Store) GetTrades(runID string, productID int) ([]TradeRecord, error) {
	var trades []TradeRecord
	q := s.db.Where("run_id = ?", runID)
	if productID > 0 {
		q = q.Where("product_id = ?", productID)
	}
	if err := q.Order("tick ASC, id ASC").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to get trades: %w", err)
	}
	return trades, nil
}

func (s *Store) CreateSettlements(settlements []SettlementRecord) error {
	if len(settlements) == 0 {
		return nil
	}
	if err := s.db.CreateInBatches(settlements, 500).Error; err != nil {
		return fmt.Errorf("failed to create settlements: %w", err)
	}
	return nil
}

func (s *Store) GetSettlements(runID string, agentID int) ([]SettlementRecord, error) {
	var settlements []SettlementRecord
	q := s.db.Where("run_id = ?", runID)
	if agentID > 0 {
		q = q.Where("agent_id = ?", agentID)
	}
	if err := q.Order("product_id ASC, agent_id ASC").Find(&settlements).Error; err != nil {
		return nil, fmt.Errorf("failed to get settlements: %w", err)
	}
	return settlements, nil
}

func (s *Store) CreateProducts(products []ProductRecord) error {
	if len(products) == 0 {
		return nil
	}
	if err := s.db.CreateInBatches(products, 500).Error; err != nil {
		return fmt.Errorf("failed to create products: %w", err)
	}
	return nil
}

func (s *Store) GetProducts(runID string) ([]ProductRecord, error) {
	var products []ProductRecord
	if err := s.db.Where("run_id = ?", runID).Order("product_id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}
