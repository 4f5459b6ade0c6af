package market

import (
	"sort"

	"github.com/voltmark/intraday/internal/product"
)

// StatusReport lists the product ids that changed state during one
// UpdateStatus pass, sorted by transition.
type StatusReport struct {
	Opened []int // PENDING -> OPEN
	Closed []int // OPEN -> CLOSED, books purged
	Due    []int // CLOSED -> SETTLED, settlement must run exactly once each
}

// UpdateStatus advances every product's lifecycle for tick t. Transitions
// are monotone: PENDING opens at gate-open, OPEN closes at gate-close, and
// CLOSED becomes SETTLED at delivery end. Closing a product mandatorily
// purges its book; no further trading can occur once closed. Products
// reported in Due are handed to the settlement engine by the driver.
func (op *Operator) UpdateStatus(t int64) StatusReport {
	var report StatusReport

	for id, p := range op.products {
		switch p.Status {
		case product.StatusPending:
			if t >= p.GateOpen {
				op.products[id] = p.WithStatus(product.StatusOpen)
				report.Opened = append(report.Opened, id)
			}
		case product.StatusOpen:
			if t >= p.GateClose {
				op.products[id] = p.WithStatus(product.StatusClosed)
				purged := op.books[id].Clear()
				report.Closed = append(report.Closed, id)
				op.logger.Info().
					Int("product_id", id).
					Int64("tick", t).
					Int("orders_purged", purged).
					Msg("product closed at gate-close")
			}
		case product.StatusClosed:
			if t >= p.DeliveryEnd {
				op.products[id] = p.WithStatus(product.StatusSettled)
				report.Due = append(report.Due, id)
			}
		}
	}

	sort.Ints(report.Opened)
	sort.Ints(report.Closed)
	sort.Ints(report.Due)
	return report
}
