package sim

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/voltmark/intraday/internal/agent"
	"github.com/voltmark/intraday/internal/market"
	"github.com/voltmark/intraday/internal/product"
	"github.com/voltmark/intraday/internal/settlement"
)

// Scenario describes a run to assemble: a quarter-hourly product set and a
// mixed trader population. All randomness flows from the single seed.
type Scenario struct {
	Seed             int64
	Hours            int
	DispatchTraders  int
	LiquidityTraders int
	Stochastic       bool
}

// DefaultScenario is a six-hour day with a small trader population.
func DefaultScenario(seed int64) Scenario {
	return Scenario{
		Seed:             seed,
		Hours:            6,
		DispatchTraders:  8,
		LiquidityTraders: 4,
	}
}

// Build assembles the operator, settlement engine and traders for the
// scenario. It also returns the step count that lets every product deliver
// and settle. Delivery of the first product starts one hour in; gates open
// three hours before delivery and close five minutes before.
func (sc Scenario) Build(logger zerolog.Logger) (*market.Operator, *settlement.Engine, []agent.Trader, int64, error) {
	if sc.Hours < 1 {
		return nil, nil, nil, 0, fmt.Errorf("scenario needs at least one delivery hour")
	}

	rng := rand.New(rand.NewSource(sc.Seed))

	const (
		firstDelivery   = int64(60)
		gateOpenOffset  = int64(180)
		gateCloseOffset = int64(5)
	)

	model := product.DefaultPriceModel()
	prices := model.QuarterHourlyPrices(sc.Hours, rng)
	products, err := product.QuarterHourly(sc.Hours*4, firstDelivery, gateOpenOffset, gateCloseOffset, prices)
	if err != nil {
		return nil, nil, nil, 0, err
	}

	productIDs := make([]int, len(products))
	for i, p := range products {
		productIDs[i] = p.ID
	}

	traders := make([]agent.Trader, 0, sc.DispatchTraders+sc.LiquidityTraders)
	nextID := 1
	for i := 0; i < sc.DispatchTraders; i++ {
		pricing := agent.NewReferencePricing(rng, 5.0)
		tr := agent.NewDispatchTrader(nextID, productIDs, pricing)
		for _, pid := range productIDs {
			// Day-ahead commitments between -50 and +50 MW.
			tr.Portfolio().SetDAPosition(pid, -50.0+rng.Float64()*100.0)
		}
		traders = append(traders, tr)
		nextID++
	}
	for i := 0; i < sc.LiquidityTraders; i++ {
		traders = append(traders, agent.Lift(agent.NewRandomLiquidityTrader(nextID, productIDs, rng)))
		nextID++
	}

	op := market.NewOperator(products, logger)
	cfg := settlement.DefaultConfig()
	cfg.Stochastic = sc.Stochastic
	engine := settlement.NewEngine(cfg, rng, logger)

	steps := products[len(products)-1].DeliveryEnd + 1
	return op, engine, traders, steps, nil
}
