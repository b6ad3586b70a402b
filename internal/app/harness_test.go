package app_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/oumaoumag/eventvex/internal/access"
	"github.com/oumaoumag/eventvex/internal/app"
	"github.com/oumaoumag/eventvex/internal/clock"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/oumaoumag/eventvex/internal/storage/memory"
	"github.com/oumaoumag/eventvex/internal/wei"
	"github.com/stretchr/testify/require"
)

var (
	admin     = domain.MustAddress("0xad00000000000000000000000000000000000001")
	organizer = domain.MustAddress("0x0e00000000000000000000000000000000000002")
	moderator = domain.MustAddress("0x0d00000000000000000000000000000000000003")
	pauser    = domain.MustAddress("0x0a00000000000000000000000000000000000004")
	alice     = domain.MustAddress("0xa11ce00000000000000000000000000000000005")
	bob       = domain.MustAddress("0xb0b0000000000000000000000000000000000006")
	carol     = domain.MustAddress("0xca20100000000000000000000000000000000007")

	start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func eth(s string) *big.Int { return wei.Ether(s) }

type harness struct {
	store    *memory.Store
	dir      *access.Directory
	clk      *clock.Manual
	registry *app.RegistryService
	ledger   *app.LedgerService
	market   *app.MarketplaceService
	admin    *app.AdminService
	accounts *app.AccountService
	records  *app.RecordService

	deposited *big.Int
}

func newHarness(t *testing.T, opts ...app.Option) *harness {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	dir := access.NewDirectory()
	require.NoError(t, dir.Grant(ctx, admin, access.RoleAdmin))
	require.NoError(t, dir.Grant(ctx, organizer, access.RoleOrganizer))
	require.NoError(t, dir.Grant(ctx, moderator, access.RoleModerator))
	require.NoError(t, dir.Grant(ctx, pauser, access.RolePauser))

	clk := clock.NewManual(start)
	ledger := app.NewLedgerService(store, dir, clk, opts...)
	return &harness{
		store:     store,
		dir:       dir,
		clk:       clk,
		registry:  app.NewRegistryService(store, dir, clk, opts...),
		ledger:    ledger,
		market:    app.NewMarketplaceService(store, dir, clk, ledger, opts...),
		admin:     app.NewAdminService(store, dir, clk, opts...),
		accounts:  app.NewAccountService(store, dir, clk, opts...),
		records:   app.NewRecordService(store),
		deposited: new(big.Int),
	}
}

func (h *harness) fund(t *testing.T, addr domain.Address, ether string) {
	t.Helper()
	_, err := h.accounts.Deposit(context.Background(), admin, addr, eth(ether))
	require.NoError(t, err)
	h.deposited.Add(h.deposited, eth(ether))
}

func (h *harness) createEvent(t *testing.T, price string, maxTickets int) domain.Event {
	t.Helper()
	event, err := h.registry.CreateEvent(context.Background(), app.CreateEventInput{
		Organizer:   organizer,
		Title:       "Rooftop Sessions",
		Description: "Open air set",
		Location:    "Nairobi",
		EventDate:   start.Add(30 * 24 * time.Hour),
		TicketPrice: eth(price),
		MaxTickets:  maxTickets,
	})
	require.NoError(t, err)
	return event
}

func (h *harness) mint(t *testing.T, event domain.Event, buyer domain.Address, seat int) domain.Ticket {
	t.Helper()
	ticket, err := h.ledger.MintTicket(context.Background(), event.ID, buyer, seat, "ipfs://seat", event.TicketPrice)
	require.NoError(t, err)
	return ticket
}

// listOnMarket approves the marketplace and lists a fixed-price offer.
func (h *harness) listOnMarket(t *testing.T, event domain.Event, seller domain.Address, tokenID int64, price string, d time.Duration) domain.Listing {
	t.Helper()
	ctx := context.Background()
	_, err := h.ledger.Approve(ctx, seller, event.ID, tokenID, domain.MarketplaceAddress())
	require.NoError(t, err)
	listing, err := h.market.ListTicket(ctx, app.ListInput{
		Seller: seller, Ledger: event.Ledger, TokenID: tokenID, Price: eth(price), Duration: d,
	})
	require.NoError(t, err)
	return listing
}

func (h *harness) auction(t *testing.T, event domain.Event, seller domain.Address, tokenID int64, minBid string, d time.Duration) domain.Listing {
	t.Helper()
	ctx := context.Background()
	_, err := h.ledger.Approve(ctx, seller, event.ID, tokenID, domain.MarketplaceAddress())
	require.NoError(t, err)
	listing, err := h.market.ListTicketForAuction(ctx, app.ListInput{
		Seller: seller, Ledger: event.Ledger, TokenID: tokenID, Price: eth(minBid), Duration: d,
	})
	require.NoError(t, err)
	return listing
}

func (h *harness) balance(t *testing.T, addr domain.Address) *big.Int {
	t.Helper()
	bal, err := h.accounts.Balance(context.Background(), addr)
	require.NoError(t, err)
	return bal
}

func (h *harness) requireBalance(t *testing.T, addr domain.Address, ether string) {
	t.Helper()
	got := h.balance(t, addr)
	require.Zerof(t, got.Cmp(eth(ether)), "balance of %s: want %s, got %s", addr, ether, wei.FormatEther(got))
}

// requireConserved checks that no operation created or destroyed value.
func (h *harness) requireConserved(t *testing.T) {
	t.Helper()
	require.Zerof(t, h.store.Total().Cmp(h.deposited), "total %s, deposited %s", h.store.Total(), h.deposited)
}

func (h *harness) recordNames(t *testing.T) []string {
	t.Helper()
	records, err := h.records.Records(context.Background(), 0, 0)
	require.NoError(t, err)
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	return names
}

func (h *harness) ticket(t *testing.T, event domain.Event, tokenID int64) domain.Ticket {
	t.Helper()
	ticket, err := h.ledger.GetTicket(context.Background(), event.ID, tokenID)
	require.NoError(t, err)
	return ticket
}
