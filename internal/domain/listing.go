package domain

import (
	"math/big"
	"time"
)

type ListingKind string

const (
	ListingKindFixedPrice ListingKind = "fixed_price"
	ListingKindAuction    ListingKind = "auction"
)

type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusCancelled ListingStatus = "cancelled"
	ListingStatusExpired   ListingStatus = "expired"
)

// Listing is a marketplace offer for one ticket. For auctions Price is the
// minimum bid.
type Listing struct {
	ID            int64
	Kind          ListingKind
	EventID       int64
	Ledger        Address
	TokenID       int64
	Seller        Address
	Price         *big.Int
	Status        ListingStatus
	CreatedAt     time.Time
	ExpiresAt     time.Time
	HighestBidder Address
	HighestBid    *big.Int
	Buyer         Address
	SoldPrice     *big.Int
	SettledAt     *time.Time
}

// Clone returns a copy that shares no mutable state with l.
func (l Listing) Clone() Listing {
	l.Price = CloneAmount(l.Price)
	l.HighestBid = CloneAmount(l.HighestBid)
	l.SoldPrice = CloneAmount(l.SoldPrice)
	if l.SettledAt != nil {
		at := *l.SettledAt
		l.SettledAt = &at
	}
	return l
}

// Expired reports whether the listing's time window has closed.
func (l Listing) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// HasBid reports whether an auction has a standing highest bid.
func (l Listing) HasBid() bool {
	return !l.HighestBidder.IsZero() && l.HighestBid != nil && l.HighestBid.Sign() > 0
}

// Bid is one accepted bid on an auction listing.
type Bid struct {
	ListingID int64
	Bidder    Address
	Amount    *big.Int
	PlacedAt  time.Time
}

// ListingFilter narrows ListListings. Zero values match everything.
type ListingFilter struct {
	Status  ListingStatus
	Seller  *Address
	EventID int64
}

// Matches reports whether l passes the filter.
func (f ListingFilter) Matches(l Listing) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.Seller != nil && l.Seller != *f.Seller {
		return false
	}
	if f.EventID != 0 && l.EventID != f.EventID {
		return false
	}
	return true
}
