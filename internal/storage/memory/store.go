// Package memory is an in-process Store. A single mutex serializes
// transactions, and a failed transaction replays its undo log, so rollback
// costs what the transaction wrote.
package memory

import (
	"context"
	"math/big"
	"sync"

	"github.com/oumaoumag/eventvex/internal/domain"
)

type txKey struct{}

type ticketKey struct {
	eventID int64
	tokenID int64
}

type state struct {
	settings      *domain.Settings
	events        map[int64]domain.Event
	nextEventID   int64
	tickets       map[ticketKey]domain.Ticket
	listings      map[int64]domain.Listing
	nextListingID int64
	bids          map[int64][]domain.Bid
	balances      map[domain.Address]*big.Int
	records       []domain.Record
	cursors       map[string]int64
}

func newState() *state {
	return &state{
		events:   make(map[int64]domain.Event),
		tickets:  make(map[ticketKey]domain.Ticket),
		listings: make(map[int64]domain.Listing),
		bids:     make(map[int64][]domain.Bid),
		balances: make(map[domain.Address]*big.Int),
		cursors:  make(map[string]int64),
	}
}

type Store struct {
	mu sync.Mutex
	st *state
	// undo holds the inverse of every write of the open transaction,
	// oldest first.
	undo []func()
}

// New returns an empty store seeded with the default settings.
func New() *Store {
	st := newState()
	settings := domain.DefaultSettings()
	st.settings = &settings
	return &Store{st: st}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		clear(s.undo)
		s.undo = s.undo[:0]
	}()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		for i := len(s.undo) - 1; i >= 0; i-- {
			s.undo[i]()
		}
		return err
	}
	return nil
}

// onRollback registers the inverse of a write made inside a transaction.
// Writes outside a transaction are final.
func (s *Store) onRollback(ctx context.Context, revert func()) {
	if s.inTx(ctx) {
		s.undo = append(s.undo, revert)
	}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the mutex unless ctx already belongs to a transaction of s.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
