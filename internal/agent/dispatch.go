package agent

import (
	"math"
	"sort"

	"github.com/voltmark/intraday/internal/types"
)

// DispatchTrader models a dispatchable producer working off its day-ahead
// schedule: for every open product it compares its committed day-ahead
// position against the position it has traded so far and quotes the
// difference, priced by its injected strategy. It replaces its whole quote
// set every tick (cancel-first), so the driver cancels its resting orders
// before processing the new ones.
type DispatchTrader struct {
	id        int
	portfolio *Portfolio
	pricing   PricingStrategy

	// Tolerance is the imbalance (MW) below which the trader stays quiet
	// for a product.
	Tolerance float64
	// MaxOrderVolume caps the volume of a single order.
	MaxOrderVolume float64
}

// NewDispatchTrader builds the trader. The pricing strategy is required up
// front; there is no post-construction mutation point for it.
func NewDispatchTrader(id int, productIDs []int, pricing PricingStrategy) *DispatchTrader {
	return &DispatchTrader{
		id:             id,
		portfolio:      NewPortfolio(productIDs),
		pricing:        pricing,
		Tolerance:      0.5,
		MaxOrderVolume: 25.0,
	}
}

func (a *DispatchTrader) ID() int               { return a.id }
func (a *DispatchTrader) Portfolio() *Portfolio { return a.portfolio }

// ReplacesQuotes marks the trader for the driver's cancel-first handling.
func (a *DispatchTrader) ReplacesQuotes() bool { return true }

// DecideOrders quotes one order per open product whose imbalance exceeds the
// tolerance. A positive imbalance (committed more than traded) sells the
// shortfall; a negative one buys it back. Products are visited in id order
// so runs with the same seed replay identically.
func (a *DispatchTrader) DecideOrders(t int64, info map[int]types.PublicInfo) []*types.Order {
	productIDs := make([]int, 0, len(info))
	for id := range info {
		productIDs = append(productIDs, id)
	}
	sort.Ints(productIDs)

	var orders []*types.Order
	for _, productID := range productIDs {
		pi := info[productID]
		imbalance := a.portfolio.UpdateImbalance(productID)
		if math.Abs(imbalance) < a.Tolerance {
			continue
		}

		side := types.SideSell
		if imbalance < 0 {
			side = types.SideBuy
		}
		volume := math.Abs(imbalance)
		if volume > a.MaxOrderVolume {
			volume = a.MaxOrderVolume
		}

		orders = append(orders, &types.Order{
			AgentID:     a.id,
			Side:        side,
			Price:       a.pricing.Price(pi, side, volume),
			Volume:      volume,
			ProductID:   productID,
			TimeInForce: types.GTC,
		})
	}
	return orders
}
