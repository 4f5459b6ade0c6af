// Package book implements the per-product limit order book with
// price-time-priority, pay-as-bid matching.
package book

import (
	"fmt"

	"github.com/google/btree"
	"github.com/google/uuid"

	"github.com/voltmark/intraday/internal/types"
)

// priceLevel holds all resting orders at one price, oldest first.
type priceLevel struct {
	price  float64
	orders []*types.Order // fifo ordering for time priority
}

func (l *priceLevel) totalVolume() float64 {
	var total float64
	for _, o := range l.orders {
		total += o.Volume
	}
	return total
}

// bidItem sorts descending so the tree's Min is the highest bid.
type bidItem struct {
	level *priceLevel
}

func (b *bidItem) Less(than btree.Item) bool {
	return b.level.price > than.(*bidItem).level.price
}

// askItem sorts ascending so the tree's Min is the lowest ask.
type askItem struct {
	level *priceLevel
}

func (a *askItem) Less(than btree.Item) bool {
	return a.level.price < than.(*askItem).level.price
}

// Book is the limit order book for exactly one product. It is not safe for
// concurrent use; the simulation core is single-threaded by design and the
// market operator is the book's only owner.
type Book struct {
	productID int
	bids      *btree.BTree
	asks      *btree.BTree
	count     int
}

// New creates an empty book for the given product.
func New(productID int) *Book {
	return &Book{
		productID: productID,
		bids:      btree.New(32),
		asks:      btree.New(32),
	}
}

// ProductID returns the product this book belongs to.
func (b *Book) ProductID() int { return b.productID }

// Len returns the total number of resting orders.
func (b *Book) Len() int { return b.count }

// Add inserts a non-matched remainder into the correct side, preserving
// price-time priority. The caller decides whether a remainder rests at all
// (GTC) or is discarded (IOC); Add never matches.
func (b *Book) Add(o *types.Order) error {
	if o.ProductID != b.productID {
		return fmt.Errorf("order product %d does not match book product %d", o.ProductID, b.productID)
	}
	if o.Volume <= types.VolumeEpsilon {
		return fmt.Errorf("order %d has no volume to rest", o.ID)
	}

	if o.Side == types.SideBuy {
		item := &bidItem{level: &priceLevel{price: o.Price}}
		if existing := b.bids.Get(item); existing != nil {
			level := existing.(*bidItem).level
			level.orders = append(level.orders, o)
		} else {
			item.level.orders = []*types.Order{o}
			b.bids.ReplaceOrInsert(item)
		}
	} else {
		item := &askItem{level: &priceLevel{price: o.Price}}
		if existing := b.asks.Get(item); existing != nil {
			level := existing.(*askItem).level
			level.orders = append(level.orders, o)
		} else {
			item.level.orders = []*types.Order{o}
			b.asks.ReplaceOrInsert(item)
		}
	}
	b.count++
	return nil
}

// Match executes the incoming order against the opposite side while a
// crossing condition holds. The execution price is always the resting
// order's price (pay-as-bid); within a price level earlier arrivals fill
// first. Both the incoming order's and the matched resting orders' volumes
// are decremented in place; fully filled resting orders are removed. The
// incoming order's remainder, if any, is left for the caller to place or
// discard. Matching has no error paths: it terminates once no crossing
// remains or the incoming volume is exhausted, leaving the book uncrossed.
func (b *Book) Match(incoming *types.Order, tick int64) []types.Trade {
	var trades []types.Trade

	for incoming.Volume > types.VolumeEpsilon {
		resting, restingLevel, restingTree, restingItem := b.bestOpposite(incoming.Side)
		if resting == nil {
			break
		}

		// Crossing condition: buy price >= best ask, sell price <= best bid.
		if incoming.Side == types.SideBuy && incoming.Price < resting.Price {
			break
		}
		if incoming.Side == types.SideSell && incoming.Price > resting.Price {
			break
		}

		traded := incoming.Volume
		if resting.Volume < traded {
			traded = resting.Volume
		}

		trade := types.Trade{
			TradeID:   "TRD_" + uuid.New().String(),
			ProductID: b.productID,
			Price:     resting.Price, // pay-as-bid
			Volume:    traded,
			Tick:      tick,
		}
		if incoming.Side == types.SideBuy {
			trade.BuyOrderID, trade.BuyAgentID = incoming.ID, incoming.AgentID
			trade.SellOrderID, trade.SellAgentID = resting.ID, resting.AgentID
		} else {
			trade.BuyOrderID, trade.BuyAgentID = resting.ID, resting.AgentID
			trade.SellOrderID, trade.SellAgentID = incoming.ID, incoming.AgentID
		}
		trades = append(trades, trade)

		incoming.Volume -= traded
		resting.Volume -= traded

		if resting.Volume <= types.VolumeEpsilon {
			restingLevel.orders = restingLevel.orders[1:]
			b.count--
			if len(restingLevel.orders) == 0 {
				restingTree.Delete(restingItem)
			}
		}
	}

	return trades
}

// bestOpposite returns the first order of the best level on the side
// opposite the incoming order, along with the containers needed to remove it.
func (b *Book) bestOpposite(incoming types.Side) (*types.Order, *priceLevel, *btree.BTree, btree.Item) {
	if incoming == types.SideBuy {
		item := b.asks.Min()
		if item == nil {
			return nil, nil, nil, nil
		}
		level := item.(*askItem).level
		return level.orders[0], level, b.asks, item
	}
	item := b.bids.Min()
	if item == nil {
		return nil, nil, nil, nil
	}
	level := item.(*bidItem).level
	return level.orders[0], level, b.bids, item
}

// Remove deletes one specific resting order, identified by ID. It reports
// whether the order was found.
func (b *Book) Remove(o *types.Order) bool {
	tree, item := b.lookupLevel(o.Side, o.Price)
	if item == nil {
		return false
	}
	level := levelOf(item)
	for i, resting := range level.orders {
		if resting.ID == o.ID {
			level.orders = append(level.orders[:i], level.orders[i+1:]...)
			b.count--
			if len(level.orders) == 0 {
				tree.Delete(item)
			}
			return true
		}
	}
	return false
}

// RemoveByAgent deletes every resting order belonging to the agent and
// returns the number removed. This backs the cancel-first convention of
// quote-replacing agents.
func (b *Book) RemoveByAgent(agentID int) int {
	removed := 0
	removed += b.removeByAgentSide(b.bids, agentID, func(l *priceLevel) btree.Item { return &bidItem{level: l} })
	removed += b.removeByAgentSide(b.asks, agentID, func(l *priceLevel) btree.Item { return &askItem{level: l} })
	b.count -= removed
	return removed
}

func (b *Book) removeByAgentSide(tree *btree.BTree, agentID int, wrap func(*priceLevel) btree.Item) int {
	removed := 0
	var empty []btree.Item
	tree.Ascend(func(item btree.Item) bool {
		level := levelOf(item)
		kept := level.orders[:0]
		for _, o := range level.orders {
			if o.AgentID == agentID {
				removed++
				continue
			}
			kept = append(kept, o)
		}
		level.orders = kept
		if len(level.orders) == 0 {
			empty = append(empty, item)
		}
		return true
	})
	for _, item := range empty {
		tree.Delete(item)
	}
	return removed
}

// Clear empties both sides and returns the number of orders removed. Invoked
// by the lifecycle manager at gate close.
func (b *Book) Clear() int {
	removed := b.count
	b.bids.Clear(false)
	b.asks.Clear(false)
	b.count = 0
	return removed
}

// BestBid returns the highest bid price and the total volume at that level.
func (b *Book) BestBid() (price, volume float64, ok bool) {
	item := b.bids.Min()
	if item == nil {
		return 0, 0, false
	}
	level := item.(*bidItem).level
	return level.price, level.totalVolume(), true
}

// BestAsk returns the lowest ask price and the total volume at that level.
func (b *Book) BestAsk() (price, volume float64, ok bool) {
	item := b.asks.Min()
	if item == nil {
		return 0, 0, false
	}
	level := item.(*askItem).level
	return level.price, level.totalVolume(), true
}

// TopOfBook builds the public snapshot of the book's best levels.
func (b *Book) TopOfBook() types.TopOfBook {
	var tob types.TopOfBook
	if price, volume, ok := b.BestBid(); ok {
		tob.BestBidPrice, tob.BestBidVolume = &price, &volume
	}
	if price, volume, ok := b.BestAsk(); ok {
		tob.BestAskPrice, tob.BestAskVolume = &price, &volume
	}
	return tob
}

func (b *Book) lookupLevel(side types.Side, price float64) (*btree.BTree, btree.Item) {
	if side == types.SideBuy {
		item := b.bids.Get(&bidItem{level: &priceLevel{price: price}})
		if item == nil {
			return nil, nil
		}
		return b.bids, item
	}
	item := b.asks.Get(&askItem{level: &priceLevel{price: price}})
	if item == nil {
		return nil, nil
	}
	return b.asks, item
}

func levelOf(item btree.Item) *priceLevel {
	switch it := item.(type) {
	case *bidItem:
		return it.level
	case *askItem:
		return it.level
	}
	return nil
}
