package domain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Address identifies an account or contract on the ledger.
type Address [20]byte

// ZeroAddress is the empty address; it marks "no owner", "no operator" and
// "no winner".
var ZeroAddress Address

// ParseAddress accepts a 0x-prefixed, 40 hex digit address in any case.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(raw) != 2*len(a) {
		return ZeroAddress, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if _, err := hex.Decode(a[:], []byte(raw)); err != nil {
		return ZeroAddress, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return a, nil
}

// MustAddress is ParseAddress for constants and tests.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// contractDomainKey separates contract address derivation from any other
// BLAKE3 use.
var contractDomainKey = [32]byte{
	'e', 'v', 'e', 'n', 't', 'v', 'e', 'x', '.', 'c', 'o', 'n', 't', 'r', 'a', 'c',
	't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// ContractAddress derives a deterministic contract address for name and
// index.
func ContractAddress(name string, index int64) Address {
	h, err := blake3.NewKeyed(contractDomainKey[:])
	if err != nil {
		panic(err)
	}
	_, _ = fmt.Fprintf(h, "%s/%d", name, index)
	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

// LedgerAddress is the address of the ticket ledger owned by an event.
func LedgerAddress(eventID int64) Address {
	return ContractAddress("ticket-ledger", eventID)
}

// MarketplaceAddress is the address holding marketplace escrow.
func MarketplaceAddress() Address {
	return ContractAddress("marketplace", 0)
}

// TreasuryAddress is the default platform fee recipient.
func TreasuryAddress() Address {
	return ContractAddress("treasury", 0)
}
