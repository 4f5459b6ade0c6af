package agent

import (
	"math/rand"
	"testing"

	"github.com/voltmark/intraday/internal/types"
)

func info(productID int, referencePrice float64, gateClose int64) types.PublicInfo {
	return types.PublicInfo{
		ProductID:      productID,
		ReferencePrice: referencePrice,
		GateClose:      gateClose,
		DeliveryStart:  gateClose + 5,
	}
}

func TestApplyTradeBothSides(t *testing.T) {
	seller := NewPortfolio([]int{1})
	buyer := NewPortfolio([]int{1})

	seller.ApplyTrade(1, types.SideSell, 10, 50.0)
	buyer.ApplyTrade(1, types.SideBuy, 10, 50.0)

	if seller.Position(1) != 10 || seller.Revenue(1) != 500 {
		t.Fatalf("seller state wrong: position=%f revenue=%f", seller.Position(1), seller.Revenue(1))
	}
	if buyer.Position(1) != -10 || buyer.Revenue(1) != -500 {
		t.Fatalf("buyer state wrong: position=%f revenue=%f", buyer.Position(1), buyer.Revenue(1))
	}
	// Positions and revenue across both sides cancel out.
	if seller.Position(1)+buyer.Position(1) != 0 || seller.Revenue(1)+buyer.Revenue(1) != 0 {
		t.Fatalf("trade effects must be symmetric")
	}
}

func TestUpdateImbalance(t *testing.T) {
	pf := NewPortfolio([]int{1})
	pf.SetDAPosition(1, 25)
	pf.ApplyTrade(1, types.SideSell, 10, 50.0)

	if imb := pf.UpdateImbalance(1); imb != 15 {
		t.Fatalf("imbalance should be 25-10=15, got %f", imb)
	}
	pf.ApplyTrade(1, types.SideSell, 15, 50.0)
	if imb := pf.UpdateImbalance(1); imb != 0 {
		t.Fatalf("fully covered position should have zero imbalance, got %f", imb)
	}
}

func TestLiftPicksFrontProduct(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	trader := Lift(NewRandomLiquidityTrader(7, []int{1, 2, 3}, rng))

	open := map[int]types.PublicInfo{
		1: info(1, 50.0, 200),
		2: info(2, 51.0, 120), // nearest gate close
		3: info(3, 52.0, 260),
	}
	for i := 0; i < 10; i++ {
		orders := trader.DecideOrders(100, open)
		if len(orders) != 1 {
			t.Fatalf("lifted trader must place exactly one order, got %d", len(orders))
		}
		if orders[0].ProductID != 2 {
			t.Fatalf("expected order on front product 2, got %d", orders[0].ProductID)
		}
	}

	if orders := trader.DecideOrders(100, nil); orders != nil {
		t.Fatalf("no open products must mean no orders, got %+v", orders)
	}
}

func TestRandomLiquidityOrderBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	trader := NewRandomLiquidityTrader(1, []int{1}, rng)

	for i := 0; i < 100; i++ {
		o := trader.DecideOrder(0, info(1, 50.0, 100))
		if o.Price < trader.MinPrice || o.Price > trader.MaxPrice {
			t.Fatalf("price %f outside [%f, %f]", o.Price, trader.MinPrice, trader.MaxPrice)
		}
		if o.Volume < trader.MinVolume || o.Volume > trader.MaxVolume {
			t.Fatalf("volume %f outside [%f, %f]", o.Volume, trader.MinVolume, trader.MaxVolume)
		}
		if o.Side != types.SideBuy && o.Side != types.SideSell {
			t.Fatalf("invalid side %q", o.Side)
		}
	}
}

func TestDispatchTraderQuotesImbalance(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	trader := NewDispatchTrader(1, []int{1, 2}, NewReferencePricing(rng, 5.0))
	trader.Portfolio().SetDAPosition(1, 30) // must sell 30
	trader.Portfolio().SetDAPosition(2, -8) // must buy 8

	open := map[int]types.PublicInfo{
		1: info(1, 50.0, 100),
		2: info(2, 52.0, 115),
	}
	orders := trader.DecideOrders(10, open)
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}

	// Sorted by product id: sell for product 1, buy for product 2.
	if orders[0].ProductID != 1 || orders[0].Side != types.SideSell {
		t.Fatalf("expected sell on product 1, got %+v", orders[0])
	}
	if orders[0].Volume != 25.0 {
		t.Fatalf("volume must cap at MaxOrderVolume, got %f", orders[0].Volume)
	}
	if orders[1].ProductID != 2 || orders[1].Side != types.SideBuy || orders[1].Volume != 8 {
		t.Fatalf("expected buy of 8 on product 2, got %+v", orders[1])
	}

	if !trader.ReplacesQuotes() {
		t.Fatalf("dispatch trader must be marked quote-replacing")
	}
}

func TestDispatchTraderStaysQuietWithinTolerance(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	trader := NewDispatchTrader(1, []int{1}, NewReferencePricing(rng, 5.0))
	trader.Portfolio().SetDAPosition(1, 0.4) // below the 0.5 tolerance

	if orders := trader.DecideOrders(10, map[int]types.PublicInfo{1: info(1, 50.0, 100)}); len(orders) != 0 {
		t.Fatalf("imbalance below tolerance must not quote, got %+v", orders)
	}
}

func TestReferencePricingBands(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	pricing := NewReferencePricing(rng, 5.0)
	pi := info(1, 50.0, 100)

	for i := 0; i < 200; i++ {
		buyPrice := pricing.Price(pi, types.SideBuy, 10)
		if buyPrice < 45.0-1e-9 || buyPrice > 50.0+1e-9 {
			t.Fatalf("empty-book buy price %f outside [45, 50]", buyPrice)
		}
		sellPrice := pricing.Price(pi, types.SideSell, 10)
		if sellPrice < 50.0-1e-9 || sellPrice > 55.0+1e-9 {
			t.Fatalf("empty-book sell price %f outside [50, 55]", sellPrice)
		}
	}

	// With a populated book the band anchors on the touch.
	bid, ask := 47.0, 53.0
	vol := 5.0
	pi.Book = types.TopOfBook{
		BestBidPrice: &bid, BestBidVolume: &vol,
		BestAskPrice: &ask, BestAskVolume: &vol,
	}
	for i := 0; i < 200; i++ {
		buyPrice := pricing.Price(pi, types.SideBuy, 10)
		if buyPrice < 42.0-1e-9 || buyPrice > 50.0+1e-9 {
			t.Fatalf("anchored buy price %f outside [42, 50]", buyPrice)
		}
	}
}
