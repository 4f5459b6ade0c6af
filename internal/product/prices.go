package product

import "math/rand"

// Season selects the seasonal adjustment applied to reference prices.
type Season string

const (
	SeasonSummer Season = "summer"
	SeasonWinter Season = "winter"
)

// PriceModel generates day-ahead reference prices with the empirical shape
// of continuous intraday spot data: a night valley, a peak block with an
// evening premium, an intra-hourly sawtooth and a bounded stochastic term.
type PriceModel struct {
	BasePrice  float64 // EUR/MWh
	Volatility float64 // stddev of the stochastic term, 0 disables it
	Season     Season
}

// DefaultPriceModel is a winter day around 45 EUR/MWh.
func DefaultPriceModel() PriceModel {
	return PriceModel{BasePrice: 45.0, Volatility: 5.0, Season: SeasonWinter}
}

// Price returns the reference price for one quarter of one hour. The rng is
// the caller's seeded source so product sets are reproducible.
func (m PriceModel) Price(hour, quarter int, rng *rand.Rand) float64 {
	var timeAdj float64
	switch {
	case hour < 6:
		timeAdj = -8.0 // night valley
	case hour < 8:
		timeAdj = -3.0
	case hour < 20:
		timeAdj = 8.0 // peak block
	default:
		timeAdj = 0.0
	}
	if hour >= 18 && hour < 20 {
		timeAdj += 5.0 // evening premium
	}

	var seasonAdj float64
	if m.Season == SeasonWinter {
		if hour >= 8 && hour < 20 {
			seasonAdj = 3.0
		} else {
			seasonAdj = -1.0
		}
	} else {
		if hour >= 8 && hour < 20 {
			seasonAdj = -3.0
		} else {
			seasonAdj = 1.0
		}
	}

	// Intra-hourly sawtooth: declining across the hour in the morning,
	// rising in the afternoon, mild U-shape off-peak.
	var quarterAdj float64
	switch {
	case hour >= 8 && hour < 14:
		quarterAdj = 3.0 - float64(quarter)*2.0
	case hour >= 14 && hour < 20:
		quarterAdj = -3.0 + float64(quarter)*2.0
	default:
		if quarter == 0 || quarter == 3 {
			quarterAdj = 1.0
		} else {
			quarterAdj = -1.0
		}
	}

	var stochastic float64
	if m.Volatility > 0 && rng != nil {
		stochastic = rng.NormFloat64() * m.Volatility
	}

	price := m.BasePrice + timeAdj + seasonAdj + quarterAdj + stochastic
	// Clamp to a realistic band.
	if price < 10.0 {
		price = 10.0
	}
	if price > 150.0 {
		price = 150.0
	}
	return price
}

// QuarterHourlyPrices generates 4*nHours reference prices for a full set of
// quarter-hourly products.
func (m PriceModel) QuarterHourlyPrices(nHours int, rng *rand.Rand) []float64 {
	prices := make([]float64, 0, nHours*4)
	for hour := 0; hour < nHours; hour++ {
		for quarter := 0; quarter < 4; quarter++ {
			prices = append(prices, m.Price(hour, quarter, rng))
		}
	}
	return prices
}

// HourlyPrices generates nHours reference prices using the first quarter of
// each hour.
func (m PriceModel) HourlyPrices(nHours int, rng *rand.Rand) []float64 {
	prices := make([]float64, 0, nHours)
	for hour := 0; hour < nHours; hour++ {
		prices = append(prices, m.Price(hour, 0, rng))
	}
	return prices
}
