package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/oumaoumag/eventvex/internal/access"
	"github.com/oumaoumag/eventvex/internal/clock"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/oumaoumag/eventvex/internal/fees"
	"github.com/sirupsen/logrus"
)

// ticketCustody is how the marketplace touches tickets. Every hook runs in
// the caller's transaction.
type ticketCustody interface {
	holdForListing(ctx context.Context, eventID, tokenID, listingID int64) error
	releaseListing(ctx context.Context, eventID, tokenID, listingID int64) error
	transferListed(ctx context.Context, eventID, tokenID, listingID int64, to domain.Address) (domain.Address, error)
}

// MarketplaceService runs fixed-price and auction listings. Bids and
// in-flight payments are escrowed at the marketplace address.
type MarketplaceService struct {
	core
	custody ticketCustody
	escrow  domain.Address
}

func NewMarketplaceService(store Store, oracle access.Oracle, clk clock.Clock, ledger *LedgerService, opts ...Option) *MarketplaceService {
	return &MarketplaceService{
		core:    newCore(store, oracle, clk, opts),
		custody: ledger,
		escrow:  domain.MarketplaceAddress(),
	}
}

func (s *MarketplaceService) inMarketTx(ctx context.Context, fn func(ctx context.Context, settings domain.Settings) error) error {
	return s.store.WithTx(ctx, func(txCtx context.Context) error {
		settings, err := s.settings(txCtx)
		if err != nil {
			return err
		}
		if settings.MarketplacePaused {
			return fmt.Errorf("%w: marketplace", domain.ErrContractPaused)
		}
		return fn(txCtx, settings)
	})
}

type ListInput struct {
	Seller  domain.Address
	Ledger  domain.Address
	TokenID int64
	// Price is the asking price, or the minimum bid of an auction.
	Price    *big.Int
	Duration time.Duration
}

func (s *MarketplaceService) ListTicket(ctx context.Context, in ListInput) (domain.Listing, error) {
	return s.list(ctx, domain.ListingKindFixedPrice, in)
}

func (s *MarketplaceService) ListTicketForAuction(ctx context.Context, in ListInput) (domain.Listing, error) {
	return s.list(ctx, domain.ListingKindAuction, in)
}

func (s *MarketplaceService) list(ctx context.Context, kind domain.ListingKind, in ListInput) (domain.Listing, error) {
	now := s.clock.Now()
	var listing domain.Listing
	err := s.inMarketTx(ctx, func(txCtx context.Context, _ domain.Settings) error {
		if in.Price == nil || in.Price.Sign() <= 0 {
			return fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
		}
		if in.Duration <= 0 || in.Duration > s.limits.MaxListingDuration {
			return fmt.Errorf("%w: duration must be within (0, %s]", domain.ErrInvalidInput, s.limits.MaxListingDuration)
		}
		event, err := s.store.GetEventByLedger(txCtx, in.Ledger)
		if err != nil {
			return err
		}
		ticket, err := s.store.GetTicket(txCtx, event.ID, in.TokenID)
		if err != nil {
			return err
		}
		switch {
		case in.Seller.IsZero() || ticket.Owner != in.Seller:
			return fmt.Errorf("%w: token %d", domain.ErrNotOwner, in.TokenID)
		case ticket.Approved != s.escrow:
			return fmt.Errorf("%w: token %d", domain.ErrNotApproved, in.TokenID)
		case ticket.Listed():
			return fmt.Errorf("%w: token %d", domain.ErrTicketListed, in.TokenID)
		case ticket.Used:
			return domain.ErrAlreadyUsed
		}
		if err := saleOpen(event, now); err != nil {
			return err
		}
		expiresAt := now.Add(in.Duration)
		if expiresAt.After(event.EventDate) {
			return fmt.Errorf("%w: listing would outlive the event", domain.ErrInvalidInput)
		}

		listing, err = s.store.CreateListing(txCtx, domain.Listing{
			Kind:      kind,
			EventID:   event.ID,
			Ledger:    event.Ledger,
			TokenID:   ticket.TokenID,
			Seller:    in.Seller,
			Price:     domain.CloneAmount(in.Price),
			Status:    domain.ListingStatusActive,
			CreatedAt: now,
			ExpiresAt: expiresAt,
		})
		if err != nil {
			return fmt.Errorf("create listing: %w", err)
		}
		if err := s.custody.holdForListing(txCtx, event.ID, ticket.TokenID, listing.ID); err != nil {
			return err
		}
		return s.emit(txCtx, event.ID, domain.TicketListed{
			ListingID: listing.ID,
			Kind:      listing.Kind,
			Ledger:    listing.Ledger,
			TokenID:   listing.TokenID,
			Seller:    listing.Seller,
			Price:     listing.Price,
			ExpiresAt: listing.ExpiresAt,
		})
	})
	if err != nil {
		return domain.Listing{}, err
	}
	return listing, nil
}

// activeListing loads a listing that is still open at now.
func (s *MarketplaceService) activeListing(ctx context.Context, listingID int64, now time.Time) (domain.Listing, error) {
	listing, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		return domain.Listing{}, err
	}
	if listing.Status != domain.ListingStatusActive || listing.Expired(now) {
		return domain.Listing{}, fmt.Errorf("%w: listing %d", domain.ErrListingNotActive, listingID)
	}
	return listing, nil
}

type BuyInput struct {
	ListingID int64
	Buyer     domain.Address
	Value     *big.Int
}

// BuyTicket settles a fixed-price listing at its asking price.
func (s *MarketplaceService) BuyTicket(ctx context.Context, in BuyInput) (domain.Listing, error) {
	now := s.clock.Now()
	var listing domain.Listing
	err := s.inMarketTx(ctx, func(txCtx context.Context, settings domain.Settings) error {
		var err error
		listing, err = s.activeListing(txCtx, in.ListingID, now)
		if err != nil {
			return err
		}
		if listing.Kind != domain.ListingKindFixedPrice {
			return fmt.Errorf("%w: listing %d is an auction", domain.ErrWrongListingKind, in.ListingID)
		}
		if in.Buyer == listing.Seller {
			return domain.ErrCannotBuyOwnListing
		}
		if err := requirePayment(in.Value, listing.Price); err != nil {
			return err
		}
		if err := s.require(txCtx, in.Buyer, access.CapPurchaseTickets); err != nil {
			return err
		}
		event, err := s.store.GetEvent(txCtx, listing.EventID)
		if err != nil {
			return err
		}
		if err := saleOpen(event, now); err != nil {
			return err
		}

		if err := s.collect(txCtx, in.Buyer, s.escrow, in.Value); err != nil {
			return err
		}
		listing.Status = domain.ListingStatusSold
		listing.Buyer = in.Buyer
		listing.SoldPrice = domain.CloneAmount(listing.Price)
		listing.SettledAt = &now
		if err := s.store.UpdateListing(txCtx, listing); err != nil {
			return fmt.Errorf("update listing: %w", err)
		}
		from, err := s.custody.transferListed(txCtx, listing.EventID, listing.TokenID, listing.ID, in.Buyer)
		if err != nil {
			return err
		}
		if err := s.payout(txCtx, settings, listing.Seller, listing.Price); err != nil {
			return err
		}
		if err := s.refundExcess(txCtx, s.escrow, in.Buyer, in.Value, listing.Price); err != nil {
			return err
		}
		return s.emit(txCtx, listing.EventID, domain.TicketSold{
			TokenID:   listing.TokenID,
			From:      from,
			To:        in.Buyer,
			Price:     listing.Price,
			ListingID: listing.ID,
		})
	})
	if err != nil {
		return domain.Listing{}, err
	}

	s.log.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"event_id":   listing.EventID,
		"amount":     listing.Price.String(),
	}).Info("listing sold")
	return listing, nil
}

// payout splits a settled amount held in escrow between the fee recipient
// and the seller.
func (s *MarketplaceService) payout(ctx context.Context, settings domain.Settings, seller domain.Address, amount *big.Int) error {
	shares, err := fees.Split(amount, settings.MarketplaceFeeBps, 0)
	if err != nil {
		return fmt.Errorf("split sale: %w", err)
	}
	if err := s.transfer(ctx, s.escrow, settings.FeeRecipient, shares.Platform); err != nil {
		return err
	}
	return s.transfer(ctx, s.escrow, seller, shares.Remainder)
}

type BidInput struct {
	ListingID int64
	Bidder    domain.Address
	Value     *big.Int
}

// PlaceBid escrows a new highest bid and returns the previous one to its
// bidder in the same transaction.
func (s *MarketplaceService) PlaceBid(ctx context.Context, in BidInput) (domain.Listing, error) {
	now := s.clock.Now()
	var listing domain.Listing
	err := s.inMarketTx(ctx, func(txCtx context.Context, _ domain.Settings) error {
		var err error
		listing, err = s.activeListing(txCtx, in.ListingID, now)
		if err != nil {
			return err
		}
		if listing.Kind != domain.ListingKindAuction {
			return fmt.Errorf("%w: listing %d is fixed price", domain.ErrWrongListingKind, in.ListingID)
		}
		if in.Bidder == listing.Seller {
			return domain.ErrCannotBuyOwnListing
		}
		floor := listing.Price
		if listing.HasBid() && listing.HighestBid.Cmp(floor) > 0 {
			floor = listing.HighestBid
		}
		if in.Value == nil || in.Value.Cmp(floor) <= 0 {
			return fmt.Errorf("%w: must exceed %s wei", domain.ErrBidTooLow, floor)
		}
		if err := s.require(txCtx, in.Bidder, access.CapPurchaseTickets); err != nil {
			return err
		}
		event, err := s.store.GetEvent(txCtx, listing.EventID)
		if err != nil {
			return err
		}
		if err := saleOpen(event, now); err != nil {
			return err
		}

		if err := s.collect(txCtx, in.Bidder, s.escrow, in.Value); err != nil {
			return err
		}
		if listing.HasBid() {
			if err := s.transfer(txCtx, s.escrow, listing.HighestBidder, listing.HighestBid); err != nil {
				return fmt.Errorf("refund outbid bidder: %w", err)
			}
		}
		listing.HighestBidder = in.Bidder
		listing.HighestBid = domain.CloneAmount(in.Value)
		if err := s.store.UpdateListing(txCtx, listing); err != nil {
			return fmt.Errorf("update listing: %w", err)
		}
		if err := s.store.AddBid(txCtx, domain.Bid{
			ListingID: listing.ID,
			Bidder:    in.Bidder,
			Amount:    domain.CloneAmount(in.Value),
			PlacedAt:  now,
		}); err != nil {
			return fmt.Errorf("add bid: %w", err)
		}
		return s.emit(txCtx, listing.EventID, domain.BidPlaced{ListingID: listing.ID, Bidder: in.Bidder, Amount: listing.HighestBid})
	})
	if err != nil {
		return domain.Listing{}, err
	}
	return listing, nil
}

// EndAuction settles an auction after its expiry. Anyone may call it. An
// auction of a cancelled event is cancelled and its bid returned.
func (s *MarketplaceService) EndAuction(ctx context.Context, listingID int64) (domain.Listing, error) {
	now := s.clock.Now()
	var listing domain.Listing
	err := s.inMarketTx(ctx, func(txCtx context.Context, settings domain.Settings) error {
		var err error
		listing, err = s.store.GetListing(txCtx, listingID)
		if err != nil {
			return err
		}
		if listing.Kind != domain.ListingKindAuction {
			return fmt.Errorf("%w: listing %d is fixed price", domain.ErrWrongListingKind, listingID)
		}
		if listing.Status != domain.ListingStatusActive {
			return fmt.Errorf("%w: listing %d", domain.ErrListingNotActive, listingID)
		}
		if !listing.Expired(now) {
			return domain.ErrAuctionNotExpired
		}
		event, err := s.store.GetEvent(txCtx, listing.EventID)
		if err != nil {
			return err
		}

		listing.SettledAt = &now
		switch {
		case event.IsCancelled:
			return s.closeListing(txCtx, &listing, domain.ListingStatusCancelled, domain.ListingCancelled{ListingID: listing.ID})
		case !listing.HasBid():
			return s.closeListing(txCtx, &listing, domain.ListingStatusExpired, domain.AuctionEnded{
				ListingID: listing.ID,
				Amount:    new(big.Int),
			})
		}

		listing.Status = domain.ListingStatusSold
		listing.Buyer = listing.HighestBidder
		listing.SoldPrice = domain.CloneAmount(listing.HighestBid)
		if err := s.store.UpdateListing(txCtx, listing); err != nil {
			return fmt.Errorf("update listing: %w", err)
		}
		if _, err := s.custody.transferListed(txCtx, listing.EventID, listing.TokenID, listing.ID, listing.Buyer); err != nil {
			return err
		}
		if err := s.payout(txCtx, settings, listing.Seller, listing.SoldPrice); err != nil {
			return err
		}
		return s.emit(txCtx, listing.EventID, domain.AuctionEnded{
			ListingID: listing.ID,
			Winner:    listing.Buyer,
			Amount:    listing.SoldPrice,
		})
	})
	if err != nil {
		return domain.Listing{}, err
	}

	s.log.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"event_id":   listing.EventID,
		"status":     string(listing.Status),
	}).Info("auction ended")
	return listing, nil
}

// ExpireListing closes a fixed-price listing whose window has passed.
func (s *MarketplaceService) ExpireListing(ctx context.Context, listingID int64) (domain.Listing, error) {
	now := s.clock.Now()
	var listing domain.Listing
	err := s.inMarketTx(ctx, func(txCtx context.Context, _ domain.Settings) error {
		var err error
		listing, err = s.store.GetListing(txCtx, listingID)
		if err != nil {
			return err
		}
		if listing.Kind != domain.ListingKindFixedPrice {
			return fmt.Errorf("%w: auctions are settled with end", domain.ErrWrongListingKind)
		}
		if listing.Status != domain.ListingStatusActive {
			return fmt.Errorf("%w: listing %d", domain.ErrListingNotActive, listingID)
		}
		if !listing.Expired(now) {
			return domain.ErrListingNotExpired
		}
		listing.SettledAt = &now
		return s.closeListing(txCtx, &listing, domain.ListingStatusExpired, domain.ListingExpired{ListingID: listing.ID})
	})
	if err != nil {
		return domain.Listing{}, err
	}
	return listing, nil
}

// CancelListing withdraws an active listing. Only the seller may call it.
func (s *MarketplaceService) CancelListing(ctx context.Context, actor domain.Address, listingID int64) (domain.Listing, error) {
	now := s.clock.Now()
	var listing domain.Listing
	err := s.inMarketTx(ctx, func(txCtx context.Context, _ domain.Settings) error {
		var err error
		listing, err = s.store.GetListing(txCtx, listingID)
		if err != nil {
			return err
		}
		if actor.IsZero() || actor != listing.Seller {
			return fmt.Errorf("%w: only the seller may cancel", domain.ErrUnauthorized)
		}
		if listing.Status != domain.ListingStatusActive {
			return fmt.Errorf("%w: listing %d", domain.ErrListingNotActive, listingID)
		}
		listing.SettledAt = &now
		return s.closeListing(txCtx, &listing, domain.ListingStatusCancelled, domain.ListingCancelled{ListingID: listing.ID})
	})
	if err != nil {
		return domain.Listing{}, err
	}
	return listing, nil
}

// closeListing moves an unsold listing to a terminal status, returns any
// standing bid and releases the ticket.
func (s *MarketplaceService) closeListing(ctx context.Context, listing *domain.Listing, status domain.ListingStatus, record domain.RecordPayload) error {
	if listing.HasBid() {
		if err := s.transfer(ctx, s.escrow, listing.HighestBidder, listing.HighestBid); err != nil {
			return fmt.Errorf("refund bidder: %w", err)
		}
	}
	listing.Status = status
	if err := s.store.UpdateListing(ctx, *listing); err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if err := s.custody.releaseListing(ctx, listing.EventID, listing.TokenID, listing.ID); err != nil {
		return err
	}
	return s.emit(ctx, listing.EventID, record)
}

func (s *MarketplaceService) GetListing(ctx context.Context, listingID int64) (domain.Listing, error) {
	return s.store.GetListing(ctx, listingID)
}

func (s *MarketplaceService) Listings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	return s.store.ListListings(ctx, filter)
}

func (s *MarketplaceService) Bids(ctx context.Context, listingID int64) ([]domain.Bid, error) {
	if _, err := s.store.GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	return s.store.ListBids(ctx, listingID)
}
