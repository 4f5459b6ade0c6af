package types

// Side is the direction of an order in the book.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// TimeInForce controls what happens to an unmatched remainder.
type TimeInForce string

const (
	// GTC rests the remainder in the book until filled or cancelled.
	GTC TimeInForce = "GTC"
	// IOC discards the remainder after matching.
	IOC TimeInForce = "IOC"
)

// VolumeEpsilon is the tolerance below which a floating-point volume is
// treated as zero. Partial fills accumulate rounding residue; an order whose
// remaining volume drops under this threshold is removed from the book.
const VolumeEpsilon = 1e-9

// Order is a limit order for one delivery product. The ID and submission
// tick are assigned by the market operator, never by the submitter. Volume
// is the remaining volume and is decremented in place during matching.
type Order struct {
	ID          int64       `json:"order_id"`
	AgentID     int         `json:"agent_id"`
	Side        Side        `json:"side"`
	Price       float64     `json:"price"`  // EUR/MWh, may be negative
	Volume      float64     `json:"volume"` // MW, strictly positive while resting
	ProductID   int         `json:"product_id"`
	TimeInForce TimeInForce `json:"time_in_force"`
	SubmittedAt int64       `json:"submitted_at"` // tick assigned on submission
}

// Trade is an immutable record of one execution. Price always equals the
// resting order's limit price (pay-as-bid).
type Trade struct {
	TradeID     string  `json:"trade_id"`
	ProductID   int     `json:"product_id"`
	Price       float64 `json:"price"`
	Volume      float64 `json:"volume"`
	BuyOrderID  int64   `json:"buy_order_id"`
	SellOrderID int64   `json:"sell_order_id"`
	BuyAgentID  int     `json:"buy_agent_id"`
	SellAgentID int     `json:"sell_agent_id"`
	Tick        int64   `json:"tick"`
}

// TopOfBook is the best bid/ask snapshot for one product. A nil price means
// that side of the book is empty.
type TopOfBook struct {
	BestBidPrice  *float64 `json:"best_bid_price"`
	BestBidVolume *float64 `json:"best_bid_volume"`
	BestAskPrice  *float64 `json:"best_ask_price"`
	BestAskVolume *float64 `json:"best_ask_volume"`
}

// HasBid reports whether at least one bid rests in the book.
func (t TopOfBook) HasBid() bool { return t.BestBidPrice != nil }

// HasAsk reports whether at least one ask rests in the book.
func (t TopOfBook) HasAsk() bool { return t.BestAskPrice != nil }

// Mid returns the midprice and true, or 0 and false when either side is empty.
func (t TopOfBook) Mid() (float64, bool) {
	if !t.HasBid() || !t.HasAsk() {
		return 0, false
	}
	return 0.5 * (*t.BestBidPrice + *t.BestAskPrice), true
}

// Spread returns best ask minus best bid, or 0 and false when either side is
// empty.
func (t TopOfBook) Spread() (float64, bool) {
	if !t.HasBid() || !t.HasAsk() {
		return 0, false
	}
	return *t.BestAskPrice - *t.BestBidPrice, true
}

// PublicInfo is the only market state an agent may observe for a product:
// top-of-book, the day-ahead reference price and the product's timing.
type PublicInfo struct {
	ProductID      int       `json:"product_id"`
	Book           TopOfBook `json:"book"`
	ReferencePrice float64   `json:"reference_price"`
	GateClose      int64     `json:"gate_close"`
	DeliveryStart  int64     `json:"delivery_start"`
}

// TicksToGateClose returns the number of ticks until the product's gate
// closes, or 0 and false when the gate has already closed.
func (p PublicInfo) TicksToGateClose(t int64) (int64, bool) {
	if t >= p.GateClose {
		return 0, false
	}
	return p.GateClose - t, true
}
