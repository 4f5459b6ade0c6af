// Package sim drives the discrete-tick simulation loop: lifecycle
// advancement, settlement of delivered products, trader decisions and
// order routing. The loop is single-threaded; it is the sole writer of
// the operator, the books and every portfolio.
package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/voltmark/intraday/internal/agent"
	"github.com/voltmark/intraday/internal/market"
	"github.com/voltmark/intraday/internal/settlement"
	"github.com/voltmark/intraday/internal/types"
)

// Config parameterizes one simulation run.
type Config struct {
	RunID string
	Seed  int64
	Steps int64
	// TickInterval paces the loop in wall-clock time. Zero runs the
	// simulation as fast as it can.
	TickInterval time.Duration
}

// Summary is the outcome of a completed run.
type Summary struct {
	Steps           int64
	Trades          []types.Trade
	Settlements     []settlement.Result
	TradedVolume    float64
	OrdersSubmitted int
	OrdersRejected  int
	OrdersCancelled int
}

// QuoteReplacer marks traders whose orders replace their previous quotes.
// The driver cancels all their resting orders before submitting the new
// ones, so stale quotes never accumulate in the books.
type QuoteReplacer interface {
	ReplacesQuotes() bool
}

// Simulation wires an operator, a settlement engine and a trader
// population into a run.
type Simulation struct {
	cfg     Config
	op      *market.Operator
	engine  *settlement.Engine
	traders []agent.Trader
	byID    map[int]agent.Trader
	hub     *Hub[types.Trade]
	logger  zerolog.Logger
}

// New builds a simulation. Trader ids must be unique; the driver applies
// trade effects by looking the counterparties up by id.
func New(cfg Config, op *market.Operator, engine *settlement.Engine, traders []agent.Trader, logger zerolog.Logger) (*Simulation, error) {
	byID := make(map[int]agent.Trader, len(traders))
	for _, tr := range traders {
		if _, dup := byID[tr.ID()]; dup {
			return nil, fmt.Errorf("duplicate trader id %d", tr.ID())
		}
		byID[tr.ID()] = tr
	}
	return &Simulation{
		cfg:     cfg,
		op:      op,
		engine:  engine,
		traders: traders,
		byID:    byID,
		hub:     NewHub[types.Trade](),
		logger:  logger.With().Str("component", "simulation").Str("run_id", cfg.RunID).Logger(),
	}, nil
}

// TradeHub exposes the broadcast hub carrying every executed trade. The
// server subscribes here to stream trades to websocket clients.
func (s *Simulation) TradeHub() *Hub[types.Trade] { return s.hub }

// Run executes the fixed per-tick sequence for cfg.Steps ticks:
// lifecycle advance, settlement of newly delivered products, public
// info snapshot, trader decisions, order routing with trade effects
// applied to both counterparties. Rejections for closed products or
// malformed orders are logged and skipped; unknown products and double
// settlements abort the run. Cancellation is honoured between ticks.
func (s *Simulation) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	portfolios := s.portfolios()

	var ticker *time.Ticker
	if s.cfg.TickInterval > 0 {
		ticker = time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
	}

	for t := int64(0); t < s.cfg.Steps; t++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-ticker.C:
			}
		} else {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			default:
			}
		}

		report := s.op.UpdateStatus(t)
		for _, id := range report.Due {
			p, ok := s.op.Product(id)
			if !ok {
				return summary, fmt.Errorf("product %d due for settlement but missing from catalog", id)
			}
			results, err := s.engine.SettleProduct(p, portfolios)
			if err != nil {
				return summary, fmt.Errorf("settlement at t=%d: %w", t, err)
			}
			summary.Settlements = append(summary.Settlements, results...)
		}

		info := s.op.PublicInfo(t)
		if len(info) == 0 {
			continue
		}

		for _, tr := range s.traders {
			orders := tr.DecideOrders(t, info)
			if len(orders) == 0 {
				continue
			}
			if qr, ok := tr.(QuoteReplacer); ok && qr.ReplacesQuotes() {
				summary.OrdersCancelled += s.op.CancelAgentOrders(tr.ID())
			}
			for _, o := range orders {
				o.AgentID = tr.ID()
				summary.OrdersSubmitted++
				trades, err := s.op.ProcessOrder(o, t)
				switch {
				case err == nil:
				case errors.Is(err, market.ErrProductNotOpen), errors.Is(err, market.ErrInvalidOrder):
					summary.OrdersRejected++
					s.logger.Warn().
						Int("agent_id", tr.ID()).
						Int("product_id", o.ProductID).
						Int64("tick", t).
						Err(err).
						Msg("order rejected")
					continue
				default:
					return summary, fmt.Errorf("order processing at t=%d: %w", t, err)
				}
				for _, trade := range trades {
					if err := s.applyTrade(trade); err != nil {
						return summary, err
					}
					summary.Trades = append(summary.Trades, trade)
					summary.TradedVolume += trade.Volume
					s.hub.Broadcast(trade)
				}
			}
		}

		s.logger.Debug().
			Int64("tick", t).
			Int("open_products", len(info)).
			Int("resting_orders", s.op.TotalOrders()).
			Int("trades_total", len(summary.Trades)).
			Msg("tick complete")
	}

	summary.Steps = s.cfg.Steps
	s.logger.Info().
		Int64("steps", summary.Steps).
		Int("trades", len(summary.Trades)).
		Float64("traded_volume", summary.TradedVolume).
		Int("orders_submitted", summary.OrdersSubmitted).
		Int("orders_rejected", summary.OrdersRejected).
		Int("settlements", len(summary.Settlements)).
		Msg("run complete")
	return summary, nil
}

// applyTrade credits both counterparties. Every trade touches exactly two
// portfolios: the seller gains position and revenue, the buyer loses both.
func (s *Simulation) applyTrade(trade types.Trade) error {
	buyer, ok := s.byID[trade.BuyAgentID]
	if !ok {
		return fmt.Errorf("trade %s references unknown buyer %d", trade.TradeID, trade.BuyAgentID)
	}
	seller, ok := s.byID[trade.SellAgentID]
	if !ok {
		return fmt.Errorf("trade %s references unknown seller %d", trade.TradeID, trade.SellAgentID)
	}
	buyer.Portfolio().ApplyTrade(trade.ProductID, types.SideBuy, trade.Volume, trade.Price)
	seller.Portfolio().ApplyTrade(trade.ProductID, types.SideSell, trade.Volume, trade.Price)
	return nil
}

func (s *Simulation) portfolios() map[int]*agent.Portfolio {
	out := make(map[int]*agent.Portfolio, len(s.traders))
	for _, tr := range s.traders {
		out[tr.ID()] = tr.Portfolio()
	}
	return out
}
