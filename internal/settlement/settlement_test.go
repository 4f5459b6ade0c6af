package settlement

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/voltmark/intraday/internal/agent"
	"github.com/voltmark/intraday/internal/product"
	"github.com/voltmark/intraday/internal/types"
)

func testProduct(referencePrice float64) product.Product {
	p := product.Config{
		ID:                 1,
		DeliveryStart:      100,
		GateOpenOffsetMin:  90,
		GateCloseOffsetMin: 10,
		ReferencePrice:     referencePrice,
	}.Build()
	return p.WithStatus(product.StatusOpen).WithStatus(product.StatusClosed).WithStatus(product.StatusSettled)
}

func newEngine(cfg Config, seed int64) *Engine {
	return NewEngine(cfg, rand.New(rand.NewSource(seed)), zerolog.Nop())
}

func TestCost(t *testing.T) {
	cases := []struct {
		imbalance, up, down, want float64
	}{
		{10, 60, 40, 600},  // over-procured pays the upward price
		{-15, 60, 40, 600}, // under-procured pays the downward price on |imbalance|
		{-10, 60, 40, 400},
		{0, 60, 40, 0}, // balanced pays nothing
		{-2.5, 60, 0, 0},
	}
	for _, c := range cases {
		if got := Cost(c.imbalance, c.up, c.down); got != c.want {
			t.Fatalf("Cost(%f, %f, %f) = %f, want %f", c.imbalance, c.up, c.down, got, c.want)
		}
	}
}

func TestCostNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		imb := -100 + rng.Float64()*200
		cost := Cost(imb, 60, 40)
		if cost < 0 {
			t.Fatalf("cost must never be negative: imbalance=%f cost=%f", imb, cost)
		}
		if imb != 0 && cost == 0 {
			t.Fatalf("nonzero imbalance must cost: imbalance=%f", imb)
		}
	}
}

func TestImbalancePrices(t *testing.T) {
	e := newEngine(Config{Offset: 10.0}, 1)
	up, down := e.ImbalancePrices(testProduct(50.0))
	if up != 60.0 || down != 40.0 {
		t.Fatalf("expected 60/40, got %f/%f", up, down)
	}

	// The downward price floors at zero for cheap products.
	_, down = e.ImbalancePrices(testProduct(5.0))
	if down != 0 {
		t.Fatalf("downward price must not go negative, got %f", down)
	}
}

func TestSettleProduct(t *testing.T) {
	e := newEngine(Config{Offset: 10.0}, 1)
	p := testProduct(50.0)

	long := agent.NewPortfolio([]int{1})
	long.SetDAPosition(1, 30)
	long.ApplyTrade(1, types.SideSell, 20, 48.0) // sold 20 of the 30 committed

	flat := agent.NewPortfolio([]int{1})
	flat.SetDAPosition(1, 10)
	flat.ApplyTrade(1, types.SideSell, 10, 52.0)

	portfolios := map[int]*agent.Portfolio{1: long, 2: flat}
	results, err := e.SettleProduct(p, portfolios)
	if err != nil {
		t.Fatalf("settlement failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	// Agent 1: imbalance 30-20=10, cost 10*60=600, revenue 20*48-600.
	r := results[0]
	if r.AgentID != 1 || r.Imbalance != 10 || r.Cost != 600 {
		t.Fatalf("unexpected result for agent 1: %+v", r)
	}
	if math.Abs(long.Revenue(1)-(960-600)) > 1e-9 {
		t.Fatalf("cost must be deducted from revenue, got %f", long.Revenue(1))
	}
	if long.Imbalance(1) != 10 || long.ImbalanceCost(1) != 600 {
		t.Fatalf("portfolio not updated: imbalance=%f cost=%f", long.Imbalance(1), long.ImbalanceCost(1))
	}

	// Agent 2 is perfectly balanced and pays nothing.
	if results[1].Cost != 0 || flat.Revenue(1) != 520 {
		t.Fatalf("balanced agent must not pay: %+v revenue=%f", results[1], flat.Revenue(1))
	}
}

func TestDoubleSettlementRejected(t *testing.T) {
	e := newEngine(Config{Offset: 10.0}, 1)
	p := testProduct(50.0)
	portfolios := map[int]*agent.Portfolio{1: agent.NewPortfolio([]int{1})}

	if _, err := e.SettleProduct(p, portfolios); err != nil {
		t.Fatalf("first settlement failed: %v", err)
	}
	if !e.Settled(p.ID) {
		t.Fatalf("engine must remember the settled product")
	}
	if _, err := e.SettleProduct(p, portfolios); !errors.Is(err, ErrDoubleSettlement) {
		t.Fatalf("expected ErrDoubleSettlement, got %v", err)
	}
}

func TestStochasticPricesBoundedAndReproducible(t *testing.T) {
	cfg := Config{Offset: 10.0, Volatility: 2.0, Stochastic: true}
	p := testProduct(50.0)

	a := newEngine(cfg, 42)
	b := newEngine(cfg, 42)
	for i := 0; i < 100; i++ {
		upA, downA := a.ImbalancePrices(p)
		upB, downB := b.ImbalancePrices(p)
		if upA != upB || downA != downB {
			t.Fatalf("same seed must reproduce prices: %f/%f vs %f/%f", upA, downA, upB, downB)
		}
		if upA < 58.0 || upA > 62.0 {
			t.Fatalf("upward price %f outside volatility band", upA)
		}
		if downA < 38.0 || downA > 42.0 {
			t.Fatalf("downward price %f outside volatility band", downA)
		}
	}
}
