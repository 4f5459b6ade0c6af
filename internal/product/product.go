package product

import "fmt"

// Status is the lifecycle state of a delivery product.
type Status string

const (
	// StatusPending means trading has not started yet (before gate-open).
	StatusPending Status = "PENDING"
	// StatusOpen means the product is actively tradable.
	StatusOpen Status = "OPEN"
	// StatusClosed means trading ended, physical delivery pending.
	StatusClosed Status = "CLOSED"
	// StatusSettled means delivery finished and imbalances were settled.
	StatusSettled Status = "SETTLED"
)

// rank orders statuses for the monotonicity check. Higher never goes back to
// lower.
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusOpen:
		return 1
	case StatusClosed:
		return 2
	case StatusSettled:
		return 3
	}
	return -1
}

// Product describes one delivery window: its timing, its day-ahead reference
// price and its lifecycle status. Products are value snapshots; a status
// transition produces a new copy via WithStatus, never an in-place mutation.
type Product struct {
	ID             int     `json:"product_id"`
	Name           string  `json:"name"`
	DeliveryStart  int64   `json:"delivery_start"` // ticks (simulated minutes)
	DeliveryEnd    int64   `json:"delivery_end"`
	GateOpen       int64   `json:"gate_open"`
	GateClose      int64   `json:"gate_close"`
	Duration       int64   `json:"duration"` // delivery length in minutes
	ReferencePrice float64 `json:"reference_price"`
	Status         Status  `json:"status"`
}

// WithStatus returns a copy of the product with the new status. It panics if
// the transition would move the lifecycle backwards, which is a programming
// error: the lifecycle manager is the only legal driver of transitions.
func (p Product) WithStatus(s Status) Product {
	if s.rank() < p.Status.rank() {
		panic(fmt.Sprintf("product %d: illegal status transition %s -> %s", p.ID, p.Status, s))
	}
	p.Status = s
	return p
}

// InTradingWindow reports whether t falls inside [gate-open, gate-close).
func (p Product) InTradingWindow(t int64) bool {
	return t >= p.GateOpen && t < p.GateClose
}

// Tradable reports whether orders may be accepted at tick t: the product
// must be OPEN and t inside the trading window.
func (p Product) Tradable(t int64) bool {
	return p.Status == StatusOpen && p.InTradingWindow(t)
}

// TicksToGateClose returns ticks until gate close, or false when closed.
func (p Product) TicksToGateClose(t int64) (int64, bool) {
	if t >= p.GateClose {
		return 0, false
	}
	return p.GateClose - t, true
}

// TicksToDelivery returns ticks until delivery start, or false when delivery
// has begun.
func (p Product) TicksToDelivery(t int64) (int64, bool) {
	if t >= p.DeliveryStart {
		return 0, false
	}
	return p.DeliveryStart - t, true
}

func (p Product) String() string {
	name := p.Name
	if name == "" {
		name = fmt.Sprintf("P%d", p.ID)
	}
	return fmt.Sprintf("%s[delivery=%d-%d gate=%d-%d status=%s]",
		name, p.DeliveryStart, p.DeliveryEnd, p.GateOpen, p.GateClose, p.Status)
}

// Config carries the intuitive per-product parameters (offsets relative to
// delivery) that are converted into absolute gate times.
type Config struct {
	ID                 int
	Name               string
	DeliveryStart      int64
	DeliveryDuration   int64 // minutes, default 60
	GateOpenOffsetMin  int64 // minutes before delivery when trading opens
	GateCloseOffsetMin int64 // minutes before delivery when trading closes
	ReferencePrice     float64
}

// Build converts the config into a Product in PENDING state.
func (c Config) Build() Product {
	duration := c.DeliveryDuration
	if duration == 0 {
		duration = 60
	}
	return Product{
		ID:             c.ID,
		Name:           c.Name,
		DeliveryStart:  c.DeliveryStart,
		DeliveryEnd:    c.DeliveryStart + duration,
		GateOpen:       c.DeliveryStart - c.GateOpenOffsetMin,
		GateClose:      c.DeliveryStart - c.GateCloseOffsetMin,
		Duration:       duration,
		ReferencePrice: c.ReferencePrice,
		Status:         StatusPending,
	}
}

// Hourly creates n consecutive 60-minute products starting at startTime.
// Reference prices come from prices, which must be nil (flat 50.0) or of
// length n.
func Hourly(n int, startTime, gateOpenOffsetMin, gateCloseOffsetMin int64, prices []float64) ([]Product, error) {
	return series(n, startTime, 60, gateOpenOffsetMin, gateCloseOffsetMin, prices, func(i int) string {
		return fmt.Sprintf("H%02d", i)
	})
}

// QuarterHourly creates n consecutive 15-minute products starting at
// startTime, named H<hh>Q<q>.
func QuarterHourly(n int, startTime, gateOpenOffsetMin, gateCloseOffsetMin int64, prices []float64) ([]Product, error) {
	return series(n, startTime, 15, gateOpenOffsetMin, gateCloseOffsetMin, prices, func(i int) string {
		return fmt.Sprintf("H%02dQ%d", i/4, i%4+1)
	})
}

func series(n int, startTime, duration, gateOpenOffsetMin, gateCloseOffsetMin int64, prices []float64, name func(int) string) ([]Product, error) {
	if prices != nil && len(prices) != n {
		return nil, fmt.Errorf("prices length %d does not match product count %d", len(prices), n)
	}
	products := make([]Product, 0, n)
	for i := 0; i < n; i++ {
		price := 50.0
		if prices != nil {
			price = prices[i]
		}
		products = append(products, Config{
			ID:                 i,
			Name:               name(i),
			DeliveryStart:      startTime + int64(i)*duration,
			DeliveryDuration:   duration,
			GateOpenOffsetMin:  gateOpenOffsetMin,
			GateCloseOffsetMin: gateCloseOffsetMin,
			ReferencePrice:     price,
		}.Build())
	}
	return products, nil
}
