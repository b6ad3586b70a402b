// Package fees apportions a sale price among the platform, the organizer
// and the seller using integer basis-point arithmetic.
package fees

import (
	"errors"
	"fmt"
	"math/big"
)

// Denominator is the basis-point scale: 10000 bps = 100%.
const Denominator = 10000

var ErrInvalidSplit = errors.New("invalid fee split")

// Shares is the result of Split. Platform + Royalty + Remainder always
// equals the split amount.
type Shares struct {
	Platform  *big.Int
	Royalty   *big.Int
	Remainder *big.Int
}

// Split computes floor(amount*bps/10000) for the platform and royalty and
// gives whatever is left to the seller, so rounding never leaks value.
func Split(amount *big.Int, platformBps, royaltyBps int) (Shares, error) {
	if amount == nil || amount.Sign() < 0 {
		return Shares{}, fmt.Errorf("%w: amount must be non-negative", ErrInvalidSplit)
	}
	if platformBps < 0 || royaltyBps < 0 || platformBps+royaltyBps > Denominator {
		return Shares{}, fmt.Errorf("%w: platform=%d royalty=%d", ErrInvalidSplit, platformBps, royaltyBps)
	}

	platform := share(amount, platformBps)
	royalty := share(amount, royaltyBps)
	remainder := new(big.Int).Sub(amount, platform)
	remainder.Sub(remainder, royalty)

	return Shares{Platform: platform, Royalty: royalty, Remainder: remainder}, nil
}

// Of returns floor(amount*bps/10000).
func Of(amount *big.Int, bps int) *big.Int {
	return share(amount, bps)
}

func share(amount *big.Int, bps int) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(int64(bps)))
	return out.Quo(out, big.NewInt(Denominator))
}
