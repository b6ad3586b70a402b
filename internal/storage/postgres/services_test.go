package postgres_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oumaoumag/eventvex/internal/access"
	"github.com/oumaoumag/eventvex/internal/app"
	"github.com/oumaoumag/eventvex/internal/clock"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/oumaoumag/eventvex/internal/testutil"
	"github.com/oumaoumag/eventvex/internal/wei"
)

var admin = domain.MustAddress("0xad00000000000000000000000000000000000001")

func TestServices_MintAndResaleOnPostgres(t *testing.T) {
	s, pool, ctx := newStore(t)
	testutil.SeedSettings(t, ctx, pool)

	dir := access.NewDirectory()
	if err := dir.Grant(ctx, admin, access.RoleAdmin); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	if err := dir.Grant(ctx, organizer, access.RoleOrganizer); err != nil {
		t.Fatalf("grant organizer: %v", err)
	}
	clk := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	registry := app.NewRegistryService(s, dir, clk)
	ledger := app.NewLedgerService(s, dir, clk)
	accounts := app.NewAccountService(s, dir, clk)

	for _, addr := range []domain.Address{holder, buyer} {
		if _, err := accounts.Deposit(ctx, admin, addr, wei.Ether("1")); err != nil {
			t.Fatalf("deposit: %v", err)
		}
	}

	event, err := registry.CreateEvent(ctx, app.CreateEventInput{
		Organizer:   organizer,
		Title:       "Rooftop Sessions",
		EventDate:   clk.Now().Add(30 * 24 * time.Hour),
		TicketPrice: wei.Ether("0.1"),
		MaxTickets:  20,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	// Concurrent buyers of one seat: exactly one wins.
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
	)
	for _, who := range []domain.Address{holder, buyer} {
		wg.Add(1)
		go func(who domain.Address) {
			defer wg.Done()
			_, err := ledger.MintTicket(ctx, event.ID, who, 3, "ipfs://3", wei.Ether("0.1"))
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}(who)
	}
	wg.Wait()

	var wins, taken int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrSeatTaken):
			taken++
		default:
			t.Fatalf("unexpected mint error: %v", err)
		}
	}
	if wins != 1 || taken != 1 {
		t.Fatalf("expected one winner and one ErrSeatTaken, got %d and %d", wins, taken)
	}

	ticket, err := ledger.GetTicket(ctx, event.ID, 3)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	other := buyer
	if ticket.Owner == buyer {
		other = holder
	}

	if _, err := ledger.ListForResale(ctx, ticket.Owner, event.ID, 3, wei.Ether("0.2")); err != nil {
		t.Fatalf("list for resale: %v", err)
	}
	sold, err := ledger.BuyResaleTicket(ctx, app.BuyResaleInput{
		EventID: event.ID, TokenID: 3, Buyer: other, Value: wei.Ether("0.25"),
	})
	if err != nil {
		t.Fatalf("buy resale: %v", err)
	}
	if sold.Owner != other || sold.ForResale {
		t.Fatalf("unexpected ticket after resale: %+v", sold)
	}

	total, err := s.Total(ctx)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Cmp(wei.Ether("2")) != 0 {
		t.Fatalf("value not conserved: %s", wei.FormatEther(total))
	}

	escrow, err := s.Balance(ctx, event.Ledger)
	if err != nil {
		t.Fatalf("escrow balance: %v", err)
	}
	if escrow.Cmp(wei.Ether("0.1")) != 0 {
		t.Fatalf("escrow holds %s, want the primary sale only", wei.FormatEther(escrow))
	}

	records, err := s.ListRecords(ctx, 0, 0)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	for i := 1; i < len(records); i++ {
		if records[i].Seq <= records[i-1].Seq {
			t.Fatalf("records out of order at %d", i)
		}
	}
	if got := records[len(records)-1].Name; got != "TicketSold" {
		t.Fatalf("last record %s, want TicketSold", got)
	}
}
