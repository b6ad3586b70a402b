// Package wei converts between wei integers and ether decimal strings.
package wei

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimals is the number of decimal places of one ether.
const Decimals = 18

var ErrInvalidAmount = errors.New("invalid amount")

// ParseEther parses a non-negative ether amount such as "0.15" into wei.
// More than 18 fractional digits is an error rather than a silent rounding.
func ParseEther(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	scaled := d.Shift(Decimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, Decimals)
	}
	return scaled.BigInt(), nil
}

// FormatEther renders wei as an ether decimal without trailing zeros.
func FormatEther(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -Decimals).String()
}

// Ether is ParseEther for constants and tests.
func Ether(s string) *big.Int {
	v, err := ParseEther(s)
	if err != nil {
		panic(err)
	}
	return v
}
