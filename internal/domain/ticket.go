package domain

import (
	"math/big"
	"time"
)

// Ticket is one minted seat of an event. The token id equals the seat
// number, so both are unique per event.
type Ticket struct {
	EventID       int64
	TokenID       int64
	Seat          int
	Owner         Address
	Approved      Address
	PurchasePrice *big.Int
	MetadataRef   string
	ForResale     bool
	ResalePrice   *big.Int
	// ListingID is the active marketplace listing holding the ticket, 0 if none.
	ListingID int64
	Used      bool
	Refunded  bool
	MintedAt  time.Time
}

// Clone returns a copy that shares no mutable state with t.
func (t Ticket) Clone() Ticket {
	t.PurchasePrice = CloneAmount(t.PurchasePrice)
	t.ResalePrice = CloneAmount(t.ResalePrice)
	return t
}

// Listed reports whether either resale path currently holds the ticket.
func (t Ticket) Listed() bool {
	return t.ForResale || t.ListingID != 0
}

// TokenIDForSeat derives the token id of a seat.
func TokenIDForSeat(seat int) int64 {
	return int64(seat)
}

// TicketFilter narrows ListTickets. Zero values match everything.
type TicketFilter struct {
	EventID int64
	Owner   *Address
}

// Matches reports whether t passes the filter.
func (f TicketFilter) Matches(t Ticket) bool {
	if f.EventID != 0 && t.EventID != f.EventID {
		return false
	}
	if f.Owner != nil && t.Owner != *f.Owner {
		return false
	}
	return true
}
