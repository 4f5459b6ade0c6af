package settlement

import "fmt"

// Result records the settlement outcome for one agent on one product.
type Result struct {
	AgentID       int     `json:"agent_id"`
	ProductID     int     `json:"product_id"`
	DAPosition    float64 `json:"da_position"`
	Position      float64 `json:"market_position"`
	Imbalance     float64 `json:"imbalance"`
	Cost          float64 `json:"imbalance_cost"`
	PriceUp       float64 `json:"price_up"`
	PriceDown     float64 `json:"price_down"`
	RevenueBefore float64 `json:"revenue_before"`
	RevenueAfter  float64 `json:"revenue_after"`
}

func (r Result) String() string {
	return fmt.Sprintf("Settlement(agent=%d, product=%d, imbalance=%.2f MW, cost=%.2f EUR)",
		r.AgentID, r.ProductID, r.Imbalance, r.Cost)
}

// Config carries the exogenous settlement price parameters. The upward and
// downward imbalance prices are the product's reference price shifted by
// Offset; with Stochastic set, the shift is perturbed by a bounded uniform
// draw of at most Volatility from the engine's seeded source, so runs stay
// reproducible.
type Config struct {
	Offset     float64 // EUR/MWh shift from the reference price
	Volatility float64 // EUR/MWh bound of the stochastic perturbation
	Stochastic bool
}

// DefaultConfig mirrors typical continuous intraday imbalance pricing: a
// 10 EUR/MWh spread around the day-ahead price with no noise.
func DefaultConfig() Config {
	return Config{Offset: 10.0, Volatility: 2.0, Stochastic: false}
}
