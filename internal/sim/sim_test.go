package sim

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/voltmark/intraday/internal/agent"
	"github.com/voltmark/intraday/internal/market"
	"github.com/voltmark/intraday/internal/product"
	"github.com/voltmark/intraday/internal/settlement"
	"github.com/voltmark/intraday/internal/types"
)

// scripted is a test trader that submits a fixed set of orders at fixed
// ticks.
type scripted struct {
	id        int
	portfolio *agent.Portfolio
	orders    map[int64][]*types.Order
}

func newScripted(id int, productIDs []int) *scripted {
	return &scripted{
		id:        id,
		portfolio: agent.NewPortfolio(productIDs),
		orders:    make(map[int64][]*types.Order),
	}
}

func (s *scripted) at(t int64, side types.Side, productID int, price, volume float64) *scripted {
	s.orders[t] = append(s.orders[t], &types.Order{
		Side:        side,
		Price:       price,
		Volume:      volume,
		ProductID:   productID,
		TimeInForce: types.GTC,
	})
	return s
}

func (s *scripted) ID() int                     { return s.id }
func (s *scripted) Portfolio() *agent.Portfolio { return s.portfolio }

func (s *scripted) DecideOrders(t int64, info map[int]types.PublicInfo) []*types.Order {
	return s.orders[t]
}

// oneProduct trades between ticks 10 and 90 and delivers from 100 to 160.
func oneProduct() []product.Product {
	return []product.Product{product.Config{
		ID:                 1,
		DeliveryStart:      100,
		GateOpenOffsetMin:  90,
		GateCloseOffsetMin: 10,
		ReferencePrice:     50.0,
	}.Build()}
}

func runSim(t *testing.T, traders []agent.Trader, steps int64) (*Summary, *market.Operator) {
	t.Helper()
	op := market.NewOperator(oneProduct(), zerolog.Nop())
	engine := settlement.NewEngine(settlement.Config{Offset: 10.0},
		rand.New(rand.NewSource(1)), zerolog.Nop())

	simulation, err := New(Config{RunID: "test", Seed: 1, Steps: steps}, op, engine, traders, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to build simulation: %v", err)
	}
	summary, err := simulation.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return summary, op
}

func TestRunAppliesTradeToBothSides(t *testing.T) {
	seller := newScripted(1, []int{1}).at(20, types.SideSell, 1, 49.0, 10)
	buyer := newScripted(2, []int{1}).at(20, types.SideBuy, 1, 50.0, 10)
	seller.portfolio.SetDAPosition(1, 10)
	buyer.portfolio.SetDAPosition(1, -10)

	summary, op := runSim(t, []agent.Trader{seller, buyer}, 161)

	if len(summary.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(summary.Trades))
	}
	trade := summary.Trades[0]
	if trade.Price != 49.0 || trade.Volume != 10 || trade.Tick != 20 {
		t.Fatalf("unexpected trade: %+v", trade)
	}

	// Exactly two portfolio updates per trade, one per counterparty.
	if seller.portfolio.Position(1) != 10 || seller.portfolio.Revenue(1) != 490 {
		t.Fatalf("seller portfolio wrong: position=%f revenue=%f",
			seller.portfolio.Position(1), seller.portfolio.Revenue(1))
	}
	if buyer.portfolio.Position(1) != -10 {
		t.Fatalf("buyer position wrong: %f", buyer.portfolio.Position(1))
	}
	if math.Abs(seller.portfolio.Position(1)+buyer.portfolio.Position(1)) > types.VolumeEpsilon {
		t.Fatalf("positions must sum to zero")
	}

	// Both agents traded exactly their day-ahead commitment, so settlement
	// costs nothing and revenue before equals revenue after.
	if len(summary.Settlements) != 2 {
		t.Fatalf("expected 2 settlement results, got %d", len(summary.Settlements))
	}
	for _, r := range summary.Settlements {
		if r.Imbalance != 0 || r.Cost != 0 {
			t.Fatalf("balanced agent settled with cost: %+v", r)
		}
	}

	p, _ := op.Product(1)
	if p.Status != product.StatusSettled {
		t.Fatalf("product must end settled, got %s", p.Status)
	}
}

func TestRunSkipsRejectedOrders(t *testing.T) {
	products := []product.Product{
		product.Config{
			ID:                 1,
			DeliveryStart:      100,
			GateOpenOffsetMin:  90,
			GateCloseOffsetMin: 10,
			ReferencePrice:     50.0,
		}.Build(),
		product.Config{
			ID:                 2,
			DeliveryStart:      160,
			GateOpenOffsetMin:  90,
			GateCloseOffsetMin: 10,
			ReferencePrice:     50.0,
		}.Build(),
	}

	// At t=95 product 1 is already closed while product 2 is open, so the
	// order reaches the operator and is rejected without ending the run.
	late := newScripted(1, []int{1, 2}).at(95, types.SideBuy, 1, 50.0, 1)

	op := market.NewOperator(products, zerolog.Nop())
	engine := settlement.NewEngine(settlement.Config{Offset: 10.0},
		rand.New(rand.NewSource(1)), zerolog.Nop())
	simulation, err := New(Config{RunID: "reject", Seed: 1, Steps: 221}, op, engine,
		[]agent.Trader{late}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to build simulation: %v", err)
	}
	summary, err := simulation.Run(context.Background())
	if err != nil {
		t.Fatalf("run must survive rejected orders: %v", err)
	}

	if summary.OrdersRejected != 1 {
		t.Fatalf("expected 1 rejection, got %d", summary.OrdersRejected)
	}
	if len(summary.Trades) != 0 {
		t.Fatalf("no trades expected, got %d", len(summary.Trades))
	}
	if summary.Steps != 221 {
		t.Fatalf("run must complete despite rejections, steps=%d", summary.Steps)
	}
}

func TestRunSettlesUnbalancedAgent(t *testing.T) {
	// Sells only 4 of the committed 10; imbalance 6 priced at 50+10.
	seller := newScripted(1, []int{1}).at(20, types.SideSell, 1, 49.0, 4)
	buyer := newScripted(2, []int{1}).at(20, types.SideBuy, 1, 50.0, 4)
	seller.portfolio.SetDAPosition(1, 10)
	buyer.portfolio.SetDAPosition(1, -4)

	summary, _ := runSim(t, []agent.Trader{seller, buyer}, 161)

	var sellerResult *settlement.Result
	for i := range summary.Settlements {
		if summary.Settlements[i].AgentID == 1 {
			sellerResult = &summary.Settlements[i]
		}
	}
	if sellerResult == nil {
		t.Fatalf("no settlement result for agent 1")
	}
	if sellerResult.Imbalance != 6 || sellerResult.Cost != 360 {
		t.Fatalf("expected imbalance 6 at cost 360, got %+v", sellerResult)
	}
	if math.Abs(seller.portfolio.Revenue(1)-(4*49.0-360)) > 1e-9 {
		t.Fatalf("revenue after settlement wrong: %f", seller.portfolio.Revenue(1))
	}
}

func TestRunCancelFirstForQuoteReplacers(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	dispatch := agent.NewDispatchTrader(1, []int{1}, agent.NewReferencePricing(rng, 5.0))
	dispatch.Portfolio().SetDAPosition(1, 100) // persistent sell pressure

	summary, _ := runSim(t, []agent.Trader{dispatch}, 161)

	// The trader re-quotes every open tick; with nobody to trade against,
	// each new quote must replace the previous one.
	if summary.OrdersCancelled == 0 {
		t.Fatalf("expected cancellations for a quote-replacing trader")
	}
	if summary.OrdersSubmitted <= summary.OrdersCancelled {
		t.Fatalf("submitted (%d) must exceed cancelled (%d)",
			summary.OrdersSubmitted, summary.OrdersCancelled)
	}
}

func TestDuplicateTraderIDRejected(t *testing.T) {
	op := market.NewOperator(oneProduct(), zerolog.Nop())
	engine := settlement.NewEngine(settlement.Config{Offset: 10.0},
		rand.New(rand.NewSource(1)), zerolog.Nop())

	traders := []agent.Trader{
		newScripted(1, []int{1}),
		newScripted(1, []int{1}),
	}
	if _, err := New(Config{RunID: "dup", Steps: 10}, op, engine, traders, zerolog.Nop()); err == nil {
		t.Fatalf("duplicate trader ids must be rejected")
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub[int]()
	sub := hub.Subscribe(4)

	hub.Broadcast(1)
	hub.Broadcast(2)
	if got := <-sub.C(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	hub.Unsubscribe(sub)
	if got, ok := <-sub.C(); !ok || got != 2 {
		// Buffered value drains even after unsubscribe, then the channel
		// closes.
		t.Fatalf("expected buffered 2 before close, got %d ok=%v", got, ok)
	}
	if _, ok := <-sub.C(); ok {
		t.Fatalf("channel must be closed after unsubscribe")
	}

	// Broadcasting with no subscribers must not block.
	hub.Broadcast(3)
}
