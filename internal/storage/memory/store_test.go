package memory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/oumaoumag/eventvex/internal/app"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ app.Store = (*Store)(nil)

var holder = domain.MustAddress("0x1111111111111111111111111111111111111111")

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.AdjustBalance(ctx, holder, big.NewInt(10))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.AdjustBalance(txCtx, holder, big.NewInt(5)); err != nil {
			return err
		}
		if _, err := s.CreateEvent(txCtx, domain.Event{Title: "Gone"}); err != nil {
			return err
		}
		if _, err := s.AppendRecord(txCtx, domain.Record{Name: "EventCreated"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	bal, err := s.Balance(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, "10", bal.String())

	events, err := s.ListEvents(ctx, domain.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)

	records, err := s.ListRecords(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	created, err := s.CreateEvent(ctx, domain.Event{Title: "Kept"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID, "ids are not consumed by rolled back transactions")
}

func TestWithTx_UndoesEveryWrite(t *testing.T) {
	ctx := context.Background()
	s := New()
	event, err := s.CreateEvent(ctx, domain.Event{Title: "Before", TicketPrice: big.NewInt(1)})
	require.NoError(t, err)
	require.NoError(t, s.CreateTicket(ctx, domain.Ticket{EventID: event.ID, TokenID: 1, Seat: 1, Owner: holder}))
	listing, err := s.CreateListing(ctx, domain.Listing{EventID: event.ID, TokenID: 1, Status: domain.ListingStatusActive})
	require.NoError(t, err)
	_, err = s.AdjustBalance(ctx, holder, big.NewInt(10))
	require.NoError(t, err)
	require.NoError(t, s.SaveRecordCursor(ctx, "relay", 4))
	before, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Empty(t, s.undo, "writes outside a transaction are not logged")

	other := domain.MustAddress("0x2222222222222222222222222222222222222222")
	boom := errors.New("boom")
	err = s.WithTx(ctx, func(txCtx context.Context) error {
		changed := before
		changed.LedgerPaused = true
		require.NoError(t, s.SaveSettings(txCtx, changed))

		e := event
		e.Title = "After"
		require.NoError(t, s.UpdateEvent(txCtx, e))
		_, err := s.CreateEvent(txCtx, domain.Event{Title: "Gone"})
		require.NoError(t, err)

		require.NoError(t, s.UpdateTicket(txCtx, domain.Ticket{EventID: event.ID, TokenID: 1, Seat: 1, Owner: other}))
		require.NoError(t, s.CreateTicket(txCtx, domain.Ticket{EventID: event.ID, TokenID: 2, Seat: 2, Owner: other}))

		l := listing
		l.Status = domain.ListingStatusSold
		require.NoError(t, s.UpdateListing(txCtx, l))
		_, err = s.CreateListing(txCtx, domain.Listing{EventID: event.ID, TokenID: 2, Status: domain.ListingStatusActive})
		require.NoError(t, err)
		require.NoError(t, s.AddBid(txCtx, domain.Bid{ListingID: listing.ID, Bidder: other, Amount: big.NewInt(3)}))

		_, err = s.AdjustBalance(txCtx, holder, big.NewInt(-4))
		require.NoError(t, err)
		_, err = s.AdjustBalance(txCtx, other, big.NewInt(4))
		require.NoError(t, err)

		_, err = s.AppendRecord(txCtx, domain.Record{Name: "TicketSold"})
		require.NoError(t, err)
		require.NoError(t, s.SaveRecordCursor(txCtx, "relay", 9))
		require.NoError(t, s.SaveRecordCursor(txCtx, "audit", 1))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, s.undo)

	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, settings)

	events, err := s.ListEvents(ctx, domain.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Before", events[0].Title)

	tickets, err := s.ListTickets(ctx, domain.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, holder, tickets[0].Owner)

	listings, err := s.ListListings(ctx, domain.ListingFilter{})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, domain.ListingStatusActive, listings[0].Status)
	bids, err := s.ListBids(ctx, listing.ID)
	require.NoError(t, err)
	assert.Empty(t, bids)

	assert.Equal(t, "10", mustBalance(t, s, holder).String())
	assert.Equal(t, "0", mustBalance(t, s, other).String())
	_, tracked := s.st.balances[other]
	assert.False(t, tracked)

	records, err := s.ListRecords(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
	relay, err := s.RecordCursor(ctx, "relay")
	require.NoError(t, err)
	assert.Equal(t, int64(4), relay)
	_, tracked = s.st.cursors["audit"]
	assert.False(t, tracked)

	next, err := s.CreateListing(ctx, domain.Listing{EventID: event.ID, TokenID: 9, Status: domain.ListingStatusActive})
	require.NoError(t, err)
	assert.Equal(t, listing.ID+1, next.ID)
}

func mustBalance(t *testing.T, s *Store, addr domain.Address) *big.Int {
	t.Helper()
	bal, err := s.Balance(context.Background(), addr)
	require.NoError(t, err)
	return bal
}

func TestWithTx_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.WithTx(ctx, func(outer context.Context) error {
		return s.WithTx(outer, func(inner context.Context) error {
			_, err := s.AdjustBalance(inner, holder, big.NewInt(3))
			return err
		})
	})
	require.NoError(t, err)

	bal, err := s.Balance(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, "3", bal.String())
}

func TestAdjustBalance_RejectsOverdraft(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.AdjustBalance(ctx, holder, big.NewInt(2))
	require.NoError(t, err)

	_, err = s.AdjustBalance(ctx, holder, big.NewInt(-3))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	bal, err := s.Balance(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, "2", bal.String())
}

func TestCreateEvent_AssignsLedger(t *testing.T) {
	ctx := context.Background()
	s := New()
	e, err := s.CreateEvent(ctx, domain.Event{Title: "Gig", TicketPrice: big.NewInt(1)})
	require.NoError(t, err)
	assert.Equal(t, domain.LedgerAddress(e.ID), e.Ledger)

	byLedger, err := s.GetEventByLedger(ctx, e.Ledger)
	require.NoError(t, err)
	assert.Equal(t, e.ID, byLedger.ID)

	_, err = s.GetEventByLedger(ctx, holder)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	e, err := s.CreateEvent(ctx, domain.Event{Title: "Gig", TicketPrice: big.NewInt(7)})
	require.NoError(t, err)

	got, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	got.TicketPrice.SetInt64(99)

	again, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "7", again.TicketPrice.String())
}

func TestCreateTicket_SeatTaken(t *testing.T) {
	ctx := context.Background()
	s := New()
	ticket := domain.Ticket{EventID: 1, TokenID: 4, Seat: 4, Owner: holder}
	require.NoError(t, s.CreateTicket(ctx, ticket))
	assert.ErrorIs(t, s.CreateTicket(ctx, ticket), domain.ErrSeatTaken)

	owner := holder
	tickets, err := s.ListTickets(ctx, domain.TicketFilter{Owner: &owner})
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestCreateListing_OneActivePerTicket(t *testing.T) {
	ctx := context.Background()
	s := New()
	first, err := s.CreateListing(ctx, domain.Listing{EventID: 1, TokenID: 2, Status: domain.ListingStatusActive})
	require.NoError(t, err)

	_, err = s.CreateListing(ctx, domain.Listing{EventID: 1, TokenID: 2, Status: domain.ListingStatusActive})
	require.ErrorIs(t, err, domain.ErrTicketListed)

	first.Status = domain.ListingStatusCancelled
	require.NoError(t, s.UpdateListing(ctx, first))

	second, err := s.CreateListing(ctx, domain.Listing{EventID: 1, TokenID: 2, Status: domain.ListingStatusActive})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestRecords_PagingAndCursor(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i := 0; i < 5; i++ {
		_, err := s.AppendRecord(ctx, domain.Record{Name: "Deposit"})
		require.NoError(t, err)
	}

	page, err := s.ListRecords(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].Seq)
	assert.Equal(t, int64(4), page[1].Seq)

	require.NoError(t, s.SaveRecordCursor(ctx, "relay", 4))
	cursor, err := s.RecordCursor(ctx, "relay")
	require.NoError(t, err)
	assert.Equal(t, int64(4), cursor)
}
