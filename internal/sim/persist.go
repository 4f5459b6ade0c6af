package sim

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltmark/intraday/internal/product"
	"github.com/voltmark/intraday/internal/store"
)

// Persist writes a completed run, its trades, settlements and final product
// states to the results store the API server reads from.
func Persist(st *store.Store, cfg Config, summary *Summary, products []product.Product, agents int, startedAt, finishedAt time.Time) error {
	run := &store.Run{
		RunID:      cfg.RunID,
		Seed:       cfg.Seed,
		Steps:      summary.Steps,
		Products:   len(products),
		Agents:     agents,
		Trades:     len(summary.Trades),
		Volume:     summary.TradedVolume,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	if err := st.CreateRun(run); err != nil {
		return err
	}

	trades := make([]store.TradeRecord, 0, len(summary.Trades))
	for _, t := range summary.Trades {
		trades = append(trades, store.TradeRecord{
			TradeID:     t.TradeID,
			RunID:       cfg.RunID,
			ProductID:   t.ProductID,
			Price:       t.Price,
			Volume:      t.Volume,
			BuyOrderID:  t.BuyOrderID,
			SellOrderID: t.SellOrderID,
			BuyAgentID:  t.BuyAgentID,
			SellAgentID: t.SellAgentID,
			Tick:        t.Tick,
		})
	}
	if err := st.CreateTrades(trades); err != nil {
		return err
	}

	settlements := make([]store.SettlementRecord, 0, len(summary.Settlements))
	for _, r := range summary.Settlements {
		settlements = append(settlements, store.SettlementRecord{
			SettlementID: uuid.New().String(),
			RunID:        cfg.RunID,
			ProductID:    r.ProductID,
			AgentID:      r.AgentID,
			DAPosition:   r.DAPosition,
			Position:     r.Position,
			Imbalance:    r.Imbalance,
			Cost:         r.Cost,
			PriceUp:      r.PriceUp,
			PriceDown:    r.PriceDown,
		})
	}
	if err := st.CreateSettlements(settlements); err != nil {
		return err
	}

	records := make([]store.ProductRecord, 0, len(products))
	for _, p := range products {
		records = append(records, store.ProductRecord{
			RunID:          cfg.RunID,
			ProductID:      p.ID,
			Name:           p.Name,
			DeliveryStart:  p.DeliveryStart,
			DeliveryEnd:    p.DeliveryEnd,
			GateOpen:       p.GateOpen,
			GateClose:      p.GateClose,
			ReferencePrice: p.ReferencePrice,
			Status:         string(p.Status),
		})
	}
	return st.CreateProducts(records)
}
