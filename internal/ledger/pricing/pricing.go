// Package pricing computes the effective ticket price for a buyer.
package pricing

import (
	"math/bits"

	"github.com/kirinyoku/tix-ledger/internal/domain"
)

// Any paid tier gets the same flat discount, expressed in basis points so
// the math stays in integers.
const (
	discountedBps = 9000
	bpsDenom      = 10000
)

// Effective returns the price charged to a buyer with the given tier for a
// ticket with the given base price. Buyers without a paid tier pay the base
// price; paid tiers pay floor(basePrice * 9000 / 10000). The product is
// taken before the division through a 128-bit intermediate, so the result
// is exact for every uint64 base price.
func Effective(basePrice uint64, tier domain.Tier) uint64 {
	if !tier.Paid() {
		return basePrice
	}

	hi, lo := bits.Mul64(basePrice, discountedBps)
	q, _ := bits.Div64(hi, lo, bpsDenom)

	return q
}
