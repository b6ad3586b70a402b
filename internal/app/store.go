package app

import (
	"context"
	"math/big"

	"github.com/oumaoumag/eventvex/internal/domain"
)

// Store is the persistence boundary shared by every service. WithTx runs fn
// in one serialized transaction; the transaction travels in the context and
// nested calls join it. Reads made inside a transaction lock what they read.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	SettingsStore
	EventStore
	TicketStore
	ListingStore
	AccountStore
	RecordStore
}

type SettingsStore interface {
	// Settings returns domain.ErrSettingsNotFound until InitSettings ran.
	Settings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, s domain.Settings) error
	// InitSettings stores s unless settings already exist.
	InitSettings(ctx context.Context, s domain.Settings) error
}

type EventStore interface {
	// CreateEvent assigns the next id and the ledger address derived from it.
	CreateEvent(ctx context.Context, e domain.Event) (domain.Event, error)
	GetEvent(ctx context.Context, id int64) (domain.Event, error)
	GetEventByLedger(ctx context.Context, ledger domain.Address) (domain.Event, error)
	UpdateEvent(ctx context.Context, e domain.Event) error
	ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
}

type TicketStore interface {
	// CreateTicket fails with domain.ErrSeatTaken when the seat is minted.
	CreateTicket(ctx context.Context, t domain.Ticket) error
	GetTicket(ctx context.Context, eventID, tokenID int64) (domain.Ticket, error)
	UpdateTicket(ctx context.Context, t domain.Ticket) error
	ListTickets(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error)
}

type ListingStore interface {
	// CreateListing assigns the next id. A second active listing for the same
	// ticket fails with domain.ErrTicketListed.
	CreateListing(ctx context.Context, l domain.Listing) (domain.Listing, error)
	GetListing(ctx context.Context, id int64) (domain.Listing, error)
	UpdateListing(ctx context.Context, l domain.Listing) error
	ListListings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error)
	AddBid(ctx context.Context, b domain.Bid) error
	ListBids(ctx context.Context, listingID int64) ([]domain.Bid, error)
}

type AccountStore interface {
	Balance(ctx context.Context, addr domain.Address) (*big.Int, error)
	// AdjustBalance adds delta and returns the new balance. A result below
	// zero fails with domain.ErrInsufficientFunds and changes nothing.
	AdjustBalance(ctx context.Context, addr domain.Address, delta *big.Int) (*big.Int, error)
}

type RecordStore interface {
	// AppendRecord assigns the next sequence number.
	AppendRecord(ctx context.Context, r domain.Record) (domain.Record, error)
	ListRecords(ctx context.Context, after int64, limit int) ([]domain.Record, error)
	RecordCursor(ctx context.Context, consumer string) (int64, error)
	SaveRecordCursor(ctx context.Context, consumer string, seq int64) error
}
