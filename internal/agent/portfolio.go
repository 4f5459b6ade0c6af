// Package agent holds trader implementations and their private state. The
// market core never reaches into this state directly; it mutates portfolios
// only through the narrow ApplyTrade and ApplySettlement operations.
package agent

import "github.com/voltmark/intraday/internal/types"

// Portfolio is one agent's private per-product state: the day-ahead
// committed position, the cumulative traded market position, cumulative
// revenue and the current imbalance.
type Portfolio struct {
	daPositions    map[int]float64
	positions      map[int]float64
	revenues       map[int]float64
	imbalances     map[int]float64
	imbalanceCosts map[int]float64
}

// NewPortfolio initializes zeroed state for the given products.
func NewPortfolio(productIDs []int) *Portfolio {
	p := &Portfolio{
		daPositions:    make(map[int]float64, len(productIDs)),
		positions:      make(map[int]float64, len(productIDs)),
		revenues:       make(map[int]float64, len(productIDs)),
		imbalances:     make(map[int]float64, len(productIDs)),
		imbalanceCosts: make(map[int]float64, len(productIDs)),
	}
	for _, id := range productIDs {
		p.daPositions[id] = 0
		p.positions[id] = 0
		p.revenues[id] = 0
		p.imbalances[id] = 0
		p.imbalanceCosts[id] = 0
	}
	return p
}

// SetDAPosition fixes the day-ahead committed position for a product.
func (p *Portfolio) SetDAPosition(productID int, volume float64) {
	p.daPositions[productID] = volume
}

// ApplyTrade applies one side of one trade. A sell increases the delivered
// position and earns revenue; a buy reduces it and costs revenue.
func (p *Portfolio) ApplyTrade(productID int, side types.Side, volume, price float64) {
	if side == types.SideSell {
		p.positions[productID] += volume
		p.revenues[productID] += price * volume
	} else {
		p.positions[productID] -= volume
		p.revenues[productID] -= price * volume
	}
}

// ApplySettlement records the imbalance outcome for a product and deducts
// the cost from the product's revenue.
func (p *Portfolio) ApplySettlement(productID int, imbalance, cost float64) {
	p.imbalances[productID] = imbalance
	p.imbalanceCosts[productID] += cost
	p.revenues[productID] -= cost
}

// UpdateImbalance recomputes the running imbalance for a product as the
// day-ahead position minus the traded market position.
func (p *Portfolio) UpdateImbalance(productID int) float64 {
	imb := p.daPositions[productID] - p.positions[productID]
	p.imbalances[productID] = imb
	return imb
}

// DAPosition returns the day-ahead committed position for a product.
func (p *Portfolio) DAPosition(productID int) float64 { return p.daPositions[productID] }

// Position returns the traded market position for a product.
func (p *Portfolio) Position(productID int) float64 { return p.positions[productID] }

// Revenue returns the cumulative revenue for a product.
func (p *Portfolio) Revenue(productID int) float64 { return p.revenues[productID] }

// Imbalance returns the last computed imbalance for a product.
func (p *Portfolio) Imbalance(productID int) float64 { return p.imbalances[productID] }

// ImbalanceCost returns the cumulative settlement cost for a product.
func (p *Portfolio) ImbalanceCost(productID int) float64 { return p.imbalanceCosts[productID] }

// TotalRevenue sums revenue across all products.
func (p *Portfolio) TotalRevenue() float64 {
	var total float64
	for _, r := range p.revenues {
		total += r
	}
	return total
}

// TotalPosition sums market positions across all products.
func (p *Portfolio) TotalPosition() float64 {
	var total float64
	for _, pos := range p.positions {
		total += pos
	}
	return total
}

// TotalImbalance sums imbalances across all products.
func (p *Portfolio) TotalImbalance() float64 {
	var total float64
	for _, imb := range p.imbalances {
		total += imb
	}
	return total
}
