package market

import "errors"

var (
	// ErrUnknownProduct means an order referenced a product id that is not in
	// the catalog. Well-formed callers never trigger this; it indicates a
	// broken invariant and should abort the run.
	ErrUnknownProduct = errors.New("unknown product")

	// ErrProductNotOpen means an order arrived while the product was not in
	// OPEN state or outside its trading window. Expected during a run:
	// agents may act on stale views of a product that closed this tick.
	// Callers log and drop the order.
	ErrProductNotOpen = errors.New("product not open for trading")

	// ErrInvalidOrder means the order carried a non-positive volume or a
	// non-finite price and was rejected before reaching the book.
	ErrInvalidOrder = errors.New("invalid order")
)
