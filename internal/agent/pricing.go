package agent

import (
	"math/rand"

	"github.com/voltmark/intraday/internal/types"
)

// PricingStrategy computes a limit price for one order. Strategies are
// injected at trader construction; a trader can never reach decision time
// without one.
type PricingStrategy interface {
	Price(info types.PublicInfo, side types.Side, volume float64) float64
}

// ReferencePricing quotes inside a band around the observable market. Buys
// are priced between best bid minus the band and the reference price; sells
// between the reference price and best ask plus the band. With an empty
// book it falls back to the reference price itself.
type ReferencePricing struct {
	rng  *rand.Rand
	band float64 // EUR/MWh half-width of the quoting interval
}

// NewReferencePricing builds the strategy around the caller's seeded rng.
func NewReferencePricing(rng *rand.Rand, band float64) *ReferencePricing {
	return &ReferencePricing{rng: rng, band: band}
}

func (s *ReferencePricing) Price(info types.PublicInfo, side types.Side, volume float64) float64 {
	ref := info.ReferencePrice

	var lo, hi float64
	if side == types.SideBuy {
		lo, hi = ref-s.band, ref
		if info.Book.HasBid() {
			lo = *info.Book.BestBidPrice - s.band
		}
	} else {
		lo, hi = ref, ref+s.band
		if info.Book.HasAsk() {
			hi = *info.Book.BestAskPrice + s.band
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + s.rng.Float64()*(hi-lo)
}
