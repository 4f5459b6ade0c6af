// Package market provides the Operator, the facade owning every product's
// order book. It assigns order ids, routes orders to the right book and
// exposes the public market information agents are allowed to see.
package market

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/voltmark/intraday/internal/book"
	"github.com/voltmark/intraday/internal/product"
	"github.com/voltmark/intraday/internal/types"
)

// Operator owns the catalog of (product, book) pairs. It is the only
// component holding mutable book references across ticks.
type Operator struct {
	products    map[int]product.Product
	books       map[int]*book.Book
	nextOrderID int64
	logger      zerolog.Logger
}

// NewOperator builds an operator for the given product set. The logger is
// the operator's diagnostics handle; pass a disabled logger to silence it.
func NewOperator(products []product.Product, logger zerolog.Logger) *Operator {
	op := &Operator{
		products:    make(map[int]product.Product, len(products)),
		books:       make(map[int]*book.Book, len(products)),
		nextOrderID: 1,
		logger:      logger.With().Str("component", "market_operator").Logger(),
	}
	for _, p := range products {
		op.products[p.ID] = p
		op.books[p.ID] = book.New(p.ID)
	}
	return op
}

// Product returns the current snapshot of a product.
func (op *Operator) Product(productID int) (product.Product, bool) {
	p, ok := op.products[productID]
	return p, ok
}

// Products returns all product snapshots sorted by id.
func (op *Operator) Products() []product.Product {
	out := make([]product.Product, 0, len(op.products))
	for _, p := range op.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OpenProducts returns the ids of products tradable at tick t, sorted.
func (op *Operator) OpenProducts(t int64) []int {
	var open []int
	for id, p := range op.products {
		if p.Tradable(t) {
			open = append(open, id)
		}
	}
	sort.Ints(open)
	return open
}

// ProcessOrder validates the order, assigns its id and submission tick,
// matches it against the product's book and rests any GTC remainder. It
// returns the trades produced, possibly none.
func (op *Operator) ProcessOrder(o *types.Order, t int64) ([]types.Trade, error) {
	p, ok := op.products[o.ProductID]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", ErrUnknownProduct, o.ProductID)
	}
	if !p.Tradable(t) {
		return nil, fmt.Errorf("%w: product %d at t=%d (status=%s, gate=%d-%d)",
			ErrProductNotOpen, p.ID, t, p.Status, p.GateOpen, p.GateClose)
	}
	if o.Volume <= types.VolumeEpsilon || math.IsNaN(o.Volume) || math.IsInf(o.Volume, 0) ||
		math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
		return nil, fmt.Errorf("%w: volume=%f price=%f", ErrInvalidOrder, o.Volume, o.Price)
	}

	o.ID = op.nextOrderID
	op.nextOrderID++
	o.SubmittedAt = t

	b := op.books[o.ProductID]
	trades := b.Match(o, t)

	if o.Volume > types.VolumeEpsilon && o.TimeInForce == types.GTC {
		// Cannot fail: the order was validated above and routed to the
		// book matching its product id.
		_ = b.Add(o)
	}

	op.logger.Debug().
		Int64("order_id", o.ID).
		Int("agent_id", o.AgentID).
		Int("product_id", o.ProductID).
		Str("side", string(o.Side)).
		Float64("price", o.Price).
		Float64("remaining", o.Volume).
		Int("trades", len(trades)).
		Msg("order processed")

	return trades, nil
}

// CancelAgentOrders removes all of an agent's resting orders, either in the
// named products or, when none are given, across the whole catalog. It
// returns the number of orders removed.
func (op *Operator) CancelAgentOrders(agentID int, productIDs ...int) int {
	removed := 0
	if len(productIDs) == 0 {
		for _, b := range op.books {
			removed += b.RemoveByAgent(agentID)
		}
	} else {
		for _, id := range productIDs {
			if b, ok := op.books[id]; ok {
				removed += b.RemoveByAgent(agentID)
			}
		}
	}
	if removed > 0 {
		op.logger.Debug().
			Int("agent_id", agentID).
			Int("cancelled", removed).
			Msg("agent orders cancelled")
	}
	return removed
}

// TopOfBook returns the best bid/ask snapshot for one product.
func (op *Operator) TopOfBook(productID int) (types.TopOfBook, error) {
	b, ok := op.books[productID]
	if !ok {
		return types.TopOfBook{}, fmt.Errorf("%w: product %d", ErrUnknownProduct, productID)
	}
	return b.TopOfBook(), nil
}

// PublicInfo bundles the observable market state per product: top-of-book,
// reference price and product timing. When no ids are given it covers every
// product open at tick t. Book internals never leak through this view.
func (op *Operator) PublicInfo(t int64, productIDs ...int) map[int]types.PublicInfo {
	if len(productIDs) == 0 {
		productIDs = op.OpenProducts(t)
	}
	info := make(map[int]types.PublicInfo, len(productIDs))
	for _, id := range productIDs {
		p, ok := op.products[id]
		if !ok {
			continue
		}
		info[id] = types.PublicInfo{
			ProductID:      id,
			Book:           op.books[id].TopOfBook(),
			ReferencePrice: p.ReferencePrice,
			GateClose:      p.GateClose,
			DeliveryStart:  p.DeliveryStart,
		}
	}
	return info
}

// BookSize returns the number of resting orders for one product.
func (op *Operator) BookSize(productID int) int {
	if b, ok := op.books[productID]; ok {
		return b.Len()
	}
	return 0
}

// TotalOrders returns the number of resting orders across all products.
func (op *Operator) TotalOrders() int {
	total := 0
	for _, b := range op.books {
		total += b.Len()
	}
	return total
}
