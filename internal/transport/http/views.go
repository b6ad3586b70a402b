package http

import (
	"math/big"
	"time"

	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/oumaoumag/eventvex/internal/wei"
)

// Amounts travel as ether decimal strings ("0.15"); addresses as 0x hex.

type eventView struct {
	ID                int64     `json:"id"`
	Organizer         string    `json:"organizer"`
	Ledger            string    `json:"ledger"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Location          string    `json:"location"`
	EventDate         time.Time `json:"eventDate"`
	TicketPrice       string    `json:"ticketPrice"`
	MaxTickets        int       `json:"maxTickets"`
	MaxResalePrice    string    `json:"maxResalePrice"`
	TicketsSold       int       `json:"ticketsSold"`
	IsActive          bool      `json:"isActive"`
	IsCancelled       bool      `json:"isCancelled"`
	ProceedsWithdrawn bool      `json:"proceedsWithdrawn"`
	CreatedAt         time.Time `json:"createdAt"`
}

func toEventView(e domain.Event) eventView {
	return eventView{
		ID:                e.ID,
		Organizer:         e.Organizer.String(),
		Ledger:            e.Ledger.String(),
		Title:             e.Title,
		Description:       e.Description,
		Location:          e.Location,
		EventDate:         e.EventDate,
		TicketPrice:       wei.FormatEther(e.TicketPrice),
		MaxTickets:        e.MaxTickets,
		MaxResalePrice:    wei.FormatEther(e.MaxResalePrice),
		TicketsSold:       e.TicketsSold,
		IsActive:          e.IsActive,
		IsCancelled:       e.IsCancelled,
		ProceedsWithdrawn: e.ProceedsWithdrawn,
		CreatedAt:         e.CreatedAt,
	}
}

type ticketView struct {
	EventID       int64     `json:"eventId"`
	TokenID       int64     `json:"tokenId"`
	Seat          int       `json:"seat"`
	Owner         string    `json:"owner"`
	Approved      string    `json:"approved,omitempty"`
	PurchasePrice string    `json:"purchasePrice"`
	MetadataRef   string    `json:"metadataRef"`
	ForResale     bool      `json:"forResale"`
	ResalePrice   string    `json:"resalePrice,omitempty"`
	ListingID     int64     `json:"listingId,omitempty"`
	Used          bool      `json:"used"`
	Refunded      bool      `json:"refunded"`
	MintedAt      time.Time `json:"mintedAt"`
}

func toTicketView(t domain.Ticket) ticketView {
	return ticketView{
		EventID:       t.EventID,
		TokenID:       t.TokenID,
		Seat:          t.Seat,
		Owner:         t.Owner.String(),
		Approved:      optAddress(t.Approved),
		PurchasePrice: wei.FormatEther(t.PurchasePrice),
		MetadataRef:   t.MetadataRef,
		ForResale:     t.ForResale,
		ResalePrice:   optAmount(t.ResalePrice),
		ListingID:     t.ListingID,
		Used:          t.Used,
		Refunded:      t.Refunded,
		MintedAt:      t.MintedAt,
	}
}

type listingView struct {
	ID            int64      `json:"id"`
	Kind          string     `json:"kind"`
	EventID       int64      `json:"eventId"`
	Ledger        string     `json:"ledger"`
	TokenID       int64      `json:"tokenId"`
	Seller        string     `json:"seller"`
	Price         string     `json:"price"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	HighestBidder string     `json:"highestBidder,omitempty"`
	HighestBid    string     `json:"highestBid,omitempty"`
	Buyer         string     `json:"buyer,omitempty"`
	SoldPrice     string     `json:"soldPrice,omitempty"`
	SettledAt     *time.Time `json:"settledAt,omitempty"`
}

func toListingView(l domain.Listing) listingView {
	return listingView{
		ID:            l.ID,
		Kind:          string(l.Kind),
		EventID:       l.EventID,
		Ledger:        l.Ledger.String(),
		TokenID:       l.TokenID,
		Seller:        l.Seller.String(),
		Price:         wei.FormatEther(l.Price),
		Status:        string(l.Status),
		CreatedAt:     l.CreatedAt,
		ExpiresAt:     l.ExpiresAt,
		HighestBidder: optAddress(l.HighestBidder),
		HighestBid:    optAmount(l.HighestBid),
		Buyer:         optAddress(l.Buyer),
		SoldPrice:     optAmount(l.SoldPrice),
		SettledAt:     l.SettledAt,
	}
}

type bidView struct {
	Bidder   string    `json:"bidder"`
	Amount   string    `json:"amount"`
	PlacedAt time.Time `json:"placedAt"`
}

type settingsView struct {
	PlatformFeeBps      int    `json:"platformFeeBps"`
	OrganizerRoyaltyBps int    `json:"organizerRoyaltyBps"`
	MarketplaceFeeBps   int    `json:"marketplaceFeeBps"`
	FeeRecipient        string `json:"feeRecipient"`
	LedgerPaused        bool   `json:"ledgerPaused"`
	MarketplacePaused   bool   `json:"marketplacePaused"`
	TotalEvents         int64  `json:"totalEvents"`
	ActiveEvents        int64  `json:"activeEvents"`
}

func toSettingsView(s domain.Settings) settingsView {
	return settingsView{
		PlatformFeeBps:      s.PlatformFeeBps,
		OrganizerRoyaltyBps: s.OrganizerRoyaltyBps,
		MarketplaceFeeBps:   s.MarketplaceFeeBps,
		FeeRecipient:        s.FeeRecipient.String(),
		LedgerPaused:        s.LedgerPaused,
		MarketplacePaused:   s.MarketplacePaused,
		TotalEvents:         s.TotalEvents,
		ActiveEvents:        s.ActiveEvents,
	}
}

type balanceView struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type withdrawalView struct {
	Amount        string `json:"amount"`
	PlatformShare string `json:"platformShare"`
}

func optAddress(a domain.Address) string {
	if a.IsZero() {
		return ""
	}
	return a.String()
}

func optAmount(v *big.Int) string {
	if v == nil {
		return ""
	}
	return wei.FormatEther(v)
}

func mapSlice[T, V any](in []T, f func(T) V) []V {
	out := make([]V, 0, len(in))
	for _, item := range in {
		out = append(out, f(item))
	}
	return out
}
