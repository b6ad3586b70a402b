package domain

import (
	"math/big"
	"time"
)

// Event is a ticketed event. Everything except the status flags and the
// bookkeeping counters is fixed at creation.
type Event struct {
	ID             int64
	Organizer      Address
	Ledger         Address
	Title          string
	Description    string
	Location       string
	EventDate      time.Time
	TicketPrice    *big.Int
	MaxTickets     int
	MaxResalePrice *big.Int
	TicketsSold    int
	IsActive       bool
	IsCancelled    bool
	// ProceedsWithdrawn is set once the organizer has drained the ledger escrow.
	ProceedsWithdrawn bool
	CreatedAt         time.Time
}

// Clone returns a copy that shares no mutable state with e.
func (e Event) Clone() Event {
	e.TicketPrice = CloneAmount(e.TicketPrice)
	e.MaxResalePrice = CloneAmount(e.MaxResalePrice)
	return e
}

// Ended reports whether the event date has been reached.
func (e Event) Ended(now time.Time) bool {
	return !now.Before(e.EventDate)
}

// EventFilter narrows ListEvents. Zero values match everything.
type EventFilter struct {
	Organizer  *Address
	ActiveOnly bool
	// StartsAfter keeps events whose date is strictly after the instant.
	StartsAfter *time.Time
}

// Matches reports whether e passes the filter.
func (f EventFilter) Matches(e Event) bool {
	if f.Organizer != nil && e.Organizer != *f.Organizer {
		return false
	}
	if f.ActiveOnly && (!e.IsActive || e.IsCancelled) {
		return false
	}
	if f.StartsAfter != nil && !e.EventDate.After(*f.StartsAfter) {
		return false
	}
	return true
}

// CloneAmount copies a wei amount; nil stays nil.
func CloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// AmountOrZero returns v, or a fresh zero when v is nil.
func AmountOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
