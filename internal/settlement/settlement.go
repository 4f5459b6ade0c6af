// Package settlement converts a delivered product's final positions into
// imbalance costs and writes them back into agent portfolios.
package settlement

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/voltmark/intraday/internal/agent"
	"github.com/voltmark/intraday/internal/product"
)

// ErrDoubleSettlement means a product was handed to the engine twice. The
// lifecycle manager reports each product exactly once; a second invocation
// is a broken invariant, not a recoverable condition.
var ErrDoubleSettlement = errors.New("product already settled")

// Engine computes imbalance settlements. One engine instance covers one
// simulation run; it remembers which products it has settled and refuses
// repeats.
type Engine struct {
	cfg     Config
	rng     *rand.Rand
	settled map[int]bool
	logger  zerolog.Logger
}

// NewEngine builds the engine. The rng is the run's seeded source; the
// logger is the engine's diagnostics handle.
func NewEngine(cfg Config, rng *rand.Rand, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		rng:     rng,
		settled: make(map[int]bool),
		logger:  logger.With().Str("component", "settlement_engine").Logger(),
	}
}

// ImbalancePrices derives the upward and downward imbalance prices for a
// product from its reference price. The downward price never drops below
// zero.
func (e *Engine) ImbalancePrices(p product.Product) (up, down float64) {
	offsetUp := e.cfg.Offset
	offsetDown := e.cfg.Offset
	if e.cfg.Stochastic {
		offsetUp += e.uniform(-e.cfg.Volatility, e.cfg.Volatility)
		offsetDown += e.uniform(-e.cfg.Volatility, e.cfg.Volatility)
	}
	up = p.ReferencePrice + offsetUp
	down = math.Max(0, p.ReferencePrice-offsetDown)
	return up, down
}

// Cost prices an imbalance. Over-procurement (positive imbalance) pays the
// upward price, under-procurement pays the downward price on the absolute
// shortfall. The cost is never negative and is zero exactly when the
// imbalance is zero.
func Cost(imbalance, priceUp, priceDown float64) float64 {
	switch {
	case imbalance > 0:
		return imbalance * priceUp
	case imbalance < 0:
		return -imbalance * priceDown
	default:
		return 0
	}
}

// SettleProduct settles every portfolio for one delivered product: the
// imbalance is the day-ahead position minus the traded market position, and
// its cost is deducted from the agent's revenue through the portfolio's
// narrow mutation point. The engine settles each product at most once;
// calling it again returns ErrDoubleSettlement.
func (e *Engine) SettleProduct(p product.Product, portfolios map[int]*agent.Portfolio) ([]Result, error) {
	if e.settled[p.ID] {
		return nil, fmt.Errorf("%w: product %d", ErrDoubleSettlement, p.ID)
	}
	e.settled[p.ID] = true

	priceUp, priceDown := e.ImbalancePrices(p)

	agentIDs := make([]int, 0, len(portfolios))
	for id := range portfolios {
		agentIDs = append(agentIDs, id)
	}
	sort.Ints(agentIDs)

	results := make([]Result, 0, len(agentIDs))
	var totalImbalance, totalCost float64

	for _, agentID := range agentIDs {
		pf := portfolios[agentID]
		daPosition := pf.DAPosition(p.ID)
		position := pf.Position(p.ID)
		imbalance := daPosition - position
		cost := Cost(imbalance, priceUp, priceDown)

		revenueBefore := pf.Revenue(p.ID)
		pf.ApplySettlement(p.ID, imbalance, cost)

		results = append(results, Result{
			AgentID:       agentID,
			ProductID:     p.ID,
			DAPosition:    daPosition,
			Position:      position,
			Imbalance:     imbalance,
			Cost:          cost,
			PriceUp:       priceUp,
			PriceDown:     priceDown,
			RevenueBefore: revenueBefore,
			RevenueAfter:  pf.Revenue(p.ID),
		})

		totalImbalance += imbalance
		totalCost += cost
	}

	e.logger.Info().
		Int("product_id", p.ID).
		Int("agents", len(results)).
		Float64("price_up", priceUp).
		Float64("price_down", priceDown).
		Float64("total_imbalance", totalImbalance).
		Float64("total_cost", totalCost).
		Msg("product settled")

	return results, nil
}

// Settled reports whether a product has already been settled.
func (e *Engine) Settled(productID int) bool { return e.settled[productID] }

func (e *Engine) uniform(lo, hi float64) float64 {
	return lo + e.rng.Float64()*(hi-lo)
}
