package domain

import (
	"encoding/json"
	"math/big"
	"time"
)

// Record is one entry of the emitted-record log. Seq is assigned by the
// store and increases with commit order.
type Record struct {
	Seq       int64           `json:"seq"`
	Name      string          `json:"name"`
	EventID   int64           `json:"eventId"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// RecordPayload is implemented by every emitted record body.
type RecordPayload interface {
	RecordName() string
}

type EventCreated struct {
	EventID     int64     `json:"eventId"`
	Organizer   Address   `json:"organizer"`
	ContractRef Address   `json:"contractRef"`
	Title       string    `json:"title"`
	EventDate   time.Time `json:"eventDate"`
	TicketPrice *big.Int  `json:"ticketPrice"`
	MaxTickets  int       `json:"maxTickets"`
}

func (EventCreated) RecordName() string { return "EventCreated" }

type EventDeactivated struct {
	EventID int64   `json:"eventId"`
	By      Address `json:"by"`
}

func (EventDeactivated) RecordName() string { return "EventDeactivated" }

type PlatformConfigUpdated struct {
	Parameter string `json:"parameter"`
	Before    string `json:"before"`
	After     string `json:"after"`
}

func (PlatformConfigUpdated) RecordName() string { return "PlatformConfigUpdated" }

type Paused struct {
	Target string  `json:"target"`
	By     Address `json:"by"`
}

func (Paused) RecordName() string { return "Paused" }

type Unpaused struct {
	Target string  `json:"target"`
	By     Address `json:"by"`
}

func (Unpaused) RecordName() string { return "Unpaused" }

type TicketMinted struct {
	TokenID    int64    `json:"tokenId"`
	Buyer      Address  `json:"buyer"`
	SeatNumber int      `json:"seatNumber"`
	Price      *big.Int `json:"price"`
}

func (TicketMinted) RecordName() string { return "TicketMinted" }

type TicketListedForResale struct {
	TokenID int64    `json:"tokenId"`
	Price   *big.Int `json:"price"`
}

func (TicketListedForResale) RecordName() string { return "TicketListedForResale" }

type ResaleCancelled struct {
	TokenID int64 `json:"tokenId"`
}

func (ResaleCancelled) RecordName() string { return "ResaleCancelled" }

type TicketSold struct {
	TokenID int64    `json:"tokenId"`
	From    Address  `json:"from"`
	To      Address  `json:"to"`
	Price   *big.Int `json:"price"`
	// ListingID is set when the sale settled a marketplace listing.
	ListingID int64 `json:"listingId,omitempty"`
}

func (TicketSold) RecordName() string { return "TicketSold" }

type TicketTransferred struct {
	TokenID int64   `json:"tokenId"`
	From    Address `json:"from"`
	To      Address `json:"to"`
}

func (TicketTransferred) RecordName() string { return "TicketTransferred" }

type Approval struct {
	TokenID  int64   `json:"tokenId"`
	Owner    Address `json:"owner"`
	Operator Address `json:"operator"`
}

func (Approval) RecordName() string { return "Approval" }

type EventCancelled struct{}

func (EventCancelled) RecordName() string { return "EventCancelled" }

type RefundIssued struct {
	TokenID int64    `json:"tokenId"`
	Owner   Address  `json:"owner"`
	Amount  *big.Int `json:"amount"`
}

func (RefundIssued) RecordName() string { return "RefundIssued" }

type TicketUsed struct {
	TokenID int64   `json:"tokenId"`
	By      Address `json:"by"`
}

func (TicketUsed) RecordName() string { return "TicketUsed" }

type ProceedsWithdrawn struct {
	Organizer     Address  `json:"organizer"`
	Amount        *big.Int `json:"amount"`
	PlatformShare *big.Int `json:"platformShare"`
}

func (ProceedsWithdrawn) RecordName() string { return "ProceedsWithdrawn" }

type TicketListed struct {
	ListingID int64       `json:"listingId"`
	Kind      ListingKind `json:"kind"`
	Ledger    Address     `json:"ledger"`
	TokenID   int64       `json:"tokenId"`
	Seller    Address     `json:"seller"`
	Price     *big.Int    `json:"price"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (TicketListed) RecordName() string { return "TicketListed" }

type BidPlaced struct {
	ListingID int64    `json:"listingId"`
	Bidder    Address  `json:"bidder"`
	Amount    *big.Int `json:"amount"`
}

func (BidPlaced) RecordName() string { return "BidPlaced" }

// AuctionEnded carries the zero address as Winner when nobody bid.
type AuctionEnded struct {
	ListingID int64    `json:"listingId"`
	Winner    Address  `json:"winner"`
	Amount    *big.Int `json:"amount"`
}

func (AuctionEnded) RecordName() string { return "AuctionEnded" }

type ListingCancelled struct {
	ListingID int64 `json:"listingId"`
}

func (ListingCancelled) RecordName() string { return "ListingCancelled" }

type ListingExpired struct {
	ListingID int64 `json:"listingId"`
}

func (ListingExpired) RecordName() string { return "ListingExpired" }

type Deposit struct {
	Account Address  `json:"account"`
	Amount  *big.Int `json:"amount"`
}

func (Deposit) RecordName() string { return "Deposit" }
