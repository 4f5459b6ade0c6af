package agent

import (
	"math/rand"

	"github.com/voltmark/intraday/internal/types"
)

// RandomLiquidityTrader generates synthetic order flow: each tick it places
// one random limit order on the product it is lifted onto. It exists to keep
// books liquid, not to model a real participant.
type RandomLiquidityTrader struct {
	id        int
	portfolio *Portfolio
	rng       *rand.Rand

	MinPrice  float64
	MaxPrice  float64
	MinVolume float64
	MaxVolume float64
}

// NewRandomLiquidityTrader builds the trader with its own portfolio. The rng
// must be seeded by the caller for reproducible runs.
func NewRandomLiquidityTrader(id int, productIDs []int, rng *rand.Rand) *RandomLiquidityTrader {
	return &RandomLiquidityTrader{
		id:        id,
		portfolio: NewPortfolio(productIDs),
		rng:       rng,
		MinPrice:  10.0,
		MaxPrice:  90.0,
		MinVolume: 1.0,
		MaxVolume: 10.0,
	}
}

func (a *RandomLiquidityTrader) ID() int               { return a.id }
func (a *RandomLiquidityTrader) Portfolio() *Portfolio { return a.portfolio }

// DecideOrder implements SingleProductTrader; lift with agent.Lift to use it
// in the multi-product driver.
func (a *RandomLiquidityTrader) DecideOrder(t int64, info types.PublicInfo) *types.Order {
	side := types.SideBuy
	if a.rng.Intn(2) == 1 {
		side = types.SideSell
	}
	return &types.Order{
		AgentID:     a.id,
		Side:        side,
		Price:       a.MinPrice + a.rng.Float64()*(a.MaxPrice-a.MinPrice),
		Volume:      a.MinVolume + a.rng.Float64()*(a.MaxVolume-a.MinVolume),
		ProductID:   info.ProductID,
		TimeInForce: types.GTC,
	}
}
