package agent

import (
	"sort"

	"github.com/voltmark/intraday/internal/types"
)

// Trader is the multi-product decision shape the simulation driver calls:
// given the current tick and the public info of every open product, return
// zero or more orders. Orders carry no id; the market operator assigns ids
// on submission.
type Trader interface {
	ID() int
	Portfolio() *Portfolio
	DecideOrders(t int64, info map[int]types.PublicInfo) []*types.Order
}

// SingleProductTrader is the narrower shape of a trader that only ever
// quotes one product at a time. It is lifted into the Trader shape with
// Lift; the driver never type-inspects traders at decision time.
type SingleProductTrader interface {
	ID() int
	Portfolio() *Portfolio
	DecideOrder(t int64, info types.PublicInfo) *types.Order
}

// Lift adapts a single-product trader into the multi-product call shape.
// The lifted trader quotes the open product with the nearest gate close,
// which is the product a single-product strategy is implicitly written for.
func Lift(st SingleProductTrader) Trader {
	return &lifted{inner: st}
}

type lifted struct {
	inner SingleProductTrader
}

func (l *lifted) ID() int               { return l.inner.ID() }
func (l *lifted) Portfolio() *Portfolio { return l.inner.Portfolio() }

func (l *lifted) DecideOrders(t int64, info map[int]types.PublicInfo) []*types.Order {
	target, ok := frontProduct(info)
	if !ok {
		return nil
	}
	order := l.inner.DecideOrder(t, info[target])
	if order == nil {
		return nil
	}
	order.ProductID = target
	return []*types.Order{order}
}

// frontProduct picks the open product closest to gate close; ties break on
// the lower product id so the choice is deterministic.
func frontProduct(info map[int]types.PublicInfo) (int, bool) {
	if len(info) == 0 {
		return 0, false
	}
	ids := make([]int, 0, len(info))
	for id := range info {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	best := ids[0]
	for _, id := range ids[1:] {
		if info[id].GateClose < info[best].GateClose {
			best = id
		}
	}
	return best, true
}
