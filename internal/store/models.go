package store

import (
	"time"

	"gorm.io/gorm"
)

// Run is one simulation run: its seed, size and timing.
type Run struct {
	gorm.Model `json:"-"`
	RunID      string    `gorm:"uniqueIndex" json:"run_id"`
	Seed       int64     `json:"seed"`
	Steps      int64     `json:"steps"`
	Products   int       `json:"products"`
	Agents     int       `json:"agents"`
	Trades     int       `json:"trades"`
	Volume     float64   `json:"volume"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// TradeRecord is one persisted execution.
type TradeRecord struct {
	gorm.Model  `json:"-"`
	TradeID     string  `gorm:"uniqueIndex" json:"trade_id"`
	RunID       string  `gorm:"index" json:"run_id"`
	ProductID   int     `gorm:"index" json:"product_id"`
	Price       float64 `json:"price"`
	Volume      float64 `json:"volume"`
	BuyOrderID  int64   `json:"buy_order_id"`
	SellOrderID int64   `json:"sell_order_id"`
	BuyAgentID  int     `json:"buy_agent_id"`
	SellAgentID int     `json:"sell_agent_id"`
	Tick        int64   `json:"tick"`
}

// SettlementRecord is one persisted per-agent, per-product settlement.
type SettlementRecord struct {
	gorm.Model   `json:"-"`
	SettlementID string  `gorm:"uniqueIndex" json:"settlement_id"`
	RunID        string  `gorm:"index" json:"run_id"`
	ProductID    int     `gorm:"index" json:"product_id"`
	AgentID      int     `gorm:"index" json:"agent_id"`
	DAPosition   float64 `json:"da_position"`
	Position     float64 `json:"market_position"`
	Imbalance    float64 `json:"imbalance"`
	Cost         float64 `json:"imbalance_cost"`
	PriceUp      float64 `json:"price_up"`
	PriceDown    float64 `json:"price_down"`
}

// ProductRecord is the final snapshot of a product at the end of a run.
type ProductRecord struct {
	gorm.Model     `json:"-"`
	RunID          string  `gorm:"index" json:"run_id"`
	ProductID      int     `json:"product_id"`
	Name           string  `json:"name"`
	DeliveryStart  int64   `json:"delivery_start"`
	DeliveryEnd    int64   `json:"delivery_end"`
	GateOpen       int64   `json:"gate_open"`
	GateClose      int64   `json:"gate_close"`
	ReferencePrice float64 `json:"reference_price"`
	Status         string  `json:"status"`
}
