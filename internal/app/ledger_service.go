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

// LedgerService owns ticket state. Every event has its own ledger address,
// which also escrows the event's unrefunded primary sales.
type LedgerService struct {
	core
}

func NewLedgerService(store Store, oracle access.Oracle, clk clock.Clock, opts ...Option) *LedgerService {
	return &LedgerService{core: newCore(store, oracle, clk, opts)}
}

// inLedgerTx runs fn in a transaction after the ledger pause check.
func (s *LedgerService) inLedgerTx(ctx context.Context, fn func(ctx context.Context, settings domain.Settings) error) error {
	return s.store.WithTx(ctx, func(txCtx context.Context) error {
		settings, err := s.settings(txCtx)
		if err != nil {
			return err
		}
		if settings.LedgerPaused {
			return fmt.Errorf("%w: ticket ledger", domain.ErrContractPaused)
		}
		return fn(txCtx, settings)
	})
}

type MintInput struct {
	EventID     int64
	Buyer       domain.Address
	Seats       []int
	MetadataRef string
	Value       *big.Int
}

// MintTicket mints a single seat.
func (s *LedgerService) MintTicket(ctx context.Context, eventID int64, buyer domain.Address, seat int, metadataRef string, value *big.Int) (domain.Ticket, error) {
	tickets, err := s.MintTickets(ctx, MintInput{
		EventID:     eventID,
		Buyer:       buyer,
		Seats:       []int{seat},
		MetadataRef: metadataRef,
		Value:       value,
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	return tickets[0], nil
}

// MintTickets mints every requested seat or none of them. The buyer pays
// the ticket price per seat; anything above that is returned.
func (s *LedgerService) MintTickets(ctx context.Context, in MintInput) ([]domain.Ticket, error) {
	now := s.clock.Now()
	var minted []domain.Ticket
	err := s.inLedgerTx(ctx, func(txCtx context.Context, _ domain.Settings) error {
		if err := s.checkSeats(in.Seats); err != nil {
			return err
		}
		if err := s.require(txCtx, in.Buyer, access.CapPurchaseTickets); err != nil {
			return err
		}
		event, err := s.store.GetEvent(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if err := saleOpen(event, now); err != nil {
			return err
		}
		for _, seat := range in.Seats {
			if seat < 0 || seat >= event.MaxTickets {
				return fmt.Errorf("%w: seat %d outside [0, %d)", domain.ErrInvalidInput, seat, event.MaxTickets)
			}
		}

		owed := new(big.Int).Mul(event.TicketPrice, big.NewInt(int64(len(in.Seats))))
		if err := requirePayment(in.Value, owed); err != nil {
			return err
		}
		if err := s.collect(txCtx, in.Buyer, event.Ledger, in.Value); err != nil {
			return err
		}

		minted = minted[:0]
		for _, seat := range in.Seats {
			ticket := domain.Ticket{
				EventID:       event.ID,
				TokenID:       domain.TokenIDForSeat(seat),
				Seat:          seat,
				Owner:         in.Buyer,
				PurchasePrice: domain.CloneAmount(event.TicketPrice),
				MetadataRef:   in.MetadataRef,
				MintedAt:      now,
			}
			if err := s.store.CreateTicket(txCtx, ticket); err != nil {
				return err
			}
			if err := s.emit(txCtx, event.ID, domain.TicketMinted{
				TokenID:    ticket.TokenID,
				Buyer:      ticket.Owner,
				SeatNumber: ticket.Seat,
				Price:      ticket.PurchasePrice,
			}); err != nil {
				return err
			}
			minted = append(minted, ticket)
		}

		event.TicketsSold += len(in.Seats)
		if err := s.store.UpdateEvent(txCtx, event); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		return s.refundExcess(txCtx, event.Ledger, in.Buyer, in.Value, owed)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"event_id": in.EventID,
		"buyer":    in.Buyer.String(),
		"seats":    len(minted),
	}).Info("tickets minted")
	return minted, nil
}


// saleOpen reports whether an event still accepts primary and secondary sales.
func (s *LedgerService) checkSeats(seats []int) error {
	if len(seats) == 0 {
		return fmt.Errorf("%w: no seats requested", domain.ErrInvalidInput)
	}
	if len(seats) > s.limits.MaxSeatsPerTx {
		return fmt.Errorf("%w: at most %d seats per call", domain.ErrLimitExceeded, s.limits.MaxSeatsPerTx)
	}
	seen := make(map[int]bool, len(seats))
	for _, seat := range seats {
		if seen[seat] {
			return fmt.Errorf("%w: seat %d requested twice", domain.ErrInvalidInput, seat)
		}
		seen[seat] = true
	}
	return nil
}

func saleOpen(event domain.Event, now time.Time) error {
	switch {
	case event.IsCancelled:
		return domain.ErrEventCancelled
	case !event.IsActive:
		return domain.ErrEventInactive
	case event.Ended(now):
		return domain.ErrEventEnded
	}
	return nil
}

// ownedTicket loads a ticket and checks that actor owns it.
func (s *LedgerService) ownedTicket(ctx context.Context, actor domain.Address, eventID, tokenID int64) (domain.Ticket, error) {
	ticket, err := s.store.GetTicket(ctx, eventID, tokenID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if actor.IsZero() || ticket.Owner != actor {
		return domain.Ticket{}, fmt.Errorf("%w: token %d", domain.ErrNotOwner, tokenID)
	}
	return ticket, nil
}

// ListForResale offers a ticket on the ledger's own resale board.
// Listing an already resale-listed ticket again reprices it.
func (s *LedgerService) ListForResale(ctx context.Context, actor domain.Address, eventID, tokenID int64, price *big.Int) (domain.Ticket, error) {
	now := s.clock.Now()
	var result domain.Ticket
	err := s.inLedgerTx(ctx, func(txCtx context.Context, _ domain.Settings) error {
		event, err := s.store.GetEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		ticket, err := s.ownedTicket(txCtx, actor, eventID, tokenID)
		if err != nil {
			return err
		}
		if err := saleOpen(event, now); err != nil {
			return err
		}
		switch {
		case ticket.ListingID != 0:
			return fmt.Errorf("%w: token %d is on the marketplace", domain.ErrTicketListed, tokenID)
		case ticket.Used:
			return domain.ErrAlreadyUsed
		case price == nil || price.Sign() <= 0:
			return fmt.Errorf("%w: resale price must be positive", domain.ErrInvalidInput)
		case price.Cmp(event.MaxResalePrice) > 0:
			return fmt.Errorf("%w: max %s wei", domain.ErrPriceExceedsMax, event.MaxResalePrice)
		}
		if floor := fees.Of(event.TicketPrice, s.limits.MinResaleBps); price.Cmp(floor) < 0 {
			return fmt.Errorf("%w: min %s wei", domain.ErrPriceBelowMin, floor)
		}

		ticket.ForResale = true
		ticket.ResalePrice = domain.CloneAmount(price)
		if err := s.store.UpdateTicket(txCtx, ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		result = ticket
		return s.emit(txCtx, eventID, domain.TicketListedForResale{TokenID: tokenID, Price: ticket.ResalePrice})
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	return result, nil
}

func (s *LedgerService) CancelResale(ctx context.Context, actor domain.Address, eventID, tokenID int64) (domain.Ticket, error) {
	var result domain.Ticket
	err := s.inLedgerTx(ctx, func(txCtx context.Context, _ domain.Settings) error {
		ticket, err := s.ownedTicket(txCtx, actor, eventID, tokenID)
		if err != nil {
			return err
		}
		if !ticket.ForResale {
			return domain.ErrNotListed
		}
		ticket.ForResale = false
		ticket.ResalePrice = nil
		if err := s.store.UpdateTicket(txCtx, ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		result = ticket
		return s.emit(txCtx, eventID, domain.ResaleCancelled{TokenID: tokenID})
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	return result, nil
}

type BuyResaleInput struct {
	EventID int64
	TokenID int64
	Buyer   domain.Address
	Value   *big.Int
}

// BuyResaleTicket settles a ledger resale. The price is split between the
// fee recipient, the organizer and the seller; the recorded purchase price
// stays the primary price, which is what the ledger escrow can refund.
func (s *LedgerService) BuyResaleTicket(ctx context.Context, in BuyResaleInput) (domain.Ticket, error) {
	now := s.clock.Now()
	var (
		result domain.Ticket
		shares fees.Shares
	)
	err := s.inLedgerTx(ctx, func(txCtx context.Context, settings domain.Settings) error {
		if err := s.require(txCtx, in.Buyer, access.CapPurchaseTickets); err != nil {
			return err
		}
		event, err := s.store.GetEvent(txCtx, in.EventID)
		if err != nil {
			return err
		}
		ticket, err := s.store.GetTicket(txCtx, in.EventID, in.TokenID)
		if err != nil {
			return err
		}
		if !ticket.ForResale {
			return domain.ErrNotListed
		}
		if err := saleOpen(event, now); err != nil {
			return err
		}
		if ticket.Owner == in.Buyer {
			return domain.ErrCannotBuyOwnListing
		}
		price := ticket.ResalePrice
		if err := requirePayment(in.Value, price); err != nil {
			return err
		}

		// Funds pass through the ledger escrow; its primary-sale balance is
		// left unchanged once the sale settles.
		if err := s.collect(txCtx, in.Buyer, event.Ledger, in.Value); err != nil {
			return err
		}
		shares, err = fees.Split(price, settings.PlatformFeeBps, settings.OrganizerRoyaltyBps)
		if err != nil {
			return fmt.Errorf("split resale: %w", err)
		}
		seller := ticket.Owner
		ticket.Owner = in.Buyer
		ticket.Approved = domain.ZeroAddress
		ticket.ForResale = false
		ticket.ResalePrice = nil
		if err := s.store.UpdateTicket(txCtx, ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}

		if err := s.transfer(txCtx, event.Ledger, settings.FeeRecipient, shares.Platform); err != nil {
			return err
		}
		if err := s.transfer(txCtx, event.Ledger, event.Organizer, shares.Royalty); err != nil {
			return err
		}
		if err := s.transfer(txCtx, event.Ledger, seller, shares.Remainder); err != nil {
			return err
		}
		if err := s.refundExcess(txCtx, event.Ledger, in.Buyer, in.Value, price); err != nil {
			return err
		}
		result = ticket
		return s.emit(txCtx, event.ID, domain.TicketSold{TokenID: ticket.TokenID, From: seller, To: in.Buyer, Price: price})
	})
	if err != nil {
		return domain.Ticket{}, err
	}

	s.log.WithFields(logrus.Fields{
		"event_id": in.EventID,
		"token_id": in.TokenID,
		"amount":   shares.Remainder.String(),
	}).Info("resale settled")
	return result, nil
}

// TransferTicket moves a ticket without payment. The owner or the approved
// operator may call it.
func (s *LedgerService) TransferTicket(ctx context.Context, actor domain.Address, eventID, tokenID int64, to domain.Address) (domain.Ticket, error) {
	var result domain.Ticket
	err := s.inLedgerTx(ctx, func(txCtx context.Context, _ domain.Settings) error {
		if to.IsZero() {
			return fmt.Errorf("%w: cannot transfer to the zero address", domain.ErrInvalidAddress)
		}
		event, err := s.store.GetEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.IsCancelled {
			return domain.ErrEventCancelled
		}
		ticket, err := s.store.GetTicket(txCtx, eventID, tokenID)
		if err != nil {
			return err
		}
		if actor.IsZero() || (actor != ticket.Owner && actor != ticket.Approved) {
			return fmt.Errorf("%w: token %d", domain.ErrNotOwner, tokenID)
		}
		if ticket.Listed() {
			return fmt.Errorf("%w: token %d", domain.ErrTicketListed, tokenID)
		}

		from := ticket.Owner
		ticket.Owner = to
		ticket.Approved = domain.ZeroAddress
		if err := s.store.UpdateTicket(txCtx, ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		result = ticket
		return s.emit(txCtx, eventID, domain.TicketTransferred{TokenID: tokenID, From: from, To: to})
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	return result, nil
}

// Approve sets the single operator allowed to move a ticket. The zero
// address clears it. Approval is frozen while a marketplace listing holds
// the ticket.
func (s *LedgerService) Approve(ctx context.Context, actor domain.Address, eventID, tokenID int64, operator domain.Address) (domain.Ticket, error) {
	var result domain.Ticket
	err := s.inLedgerTx(ctx, func(txCtx context.Context, _ domain.Settings) error {
		ticket, err := s.ownedTicket(txCtx, actor, eventID, tokenID)
		if err != nil {
			return err
		}
		if ticket.ListingID != 0 {
			return fmt.Errorf("%w: token %d is on the marketplace", domain.ErrTicketListed, tokenID)
		}
		ticket.Approved = operator
		if err := s.store.UpdateTicket(txCtx, ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		result = ticket
		return s.emit(txCtx, eventID, domain.Approval{TokenID: tokenID, Owner: ticket.Owner, Operator: operator})
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	return result, nil
}

// CancelEvent is irreversible. It is refused once the refund window before
// the event has opened.
func (s *LedgerService) CancelEvent(ctx context.Context, actor domain.Address, eventID int64) (domain.Event, error) {
	now := s.clock.Now()
	var result domain.Event
	err := s.inLedgerTx(ctx, func(txCtx context.Context, _ domain.Settings) error {
		event, err := s.store.GetEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		if actor.IsZero() || actor != event.Organizer {
			return fmt.Errorf("%w: only the organizer may cancel", domain.ErrUnauthorized)
		}
		if event.IsCancelled {
			return domain.ErrEventCancelled
		}
		if !now.Before(event.EventDate.Add(-s.limits.RefundWindow)) {
			return domain.ErrRefundWindowClosed
		}
		event.IsCancelled = true
		if err := s.store.UpdateEvent(txCtx, event); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		result = event
		return s.emit(txCtx, eventID, domain.EventCancelled{})
	})
	if err != nil {
		return domain.Event{}, err
	}

	s.log.WithField("event_id", eventID).Info("event cancelled")
	return result, nil
}

// RequestRefund pays the recorded purchase price back to the current owner
// of a ticket of a cancelled event, once.
func (s *LedgerService) RequestRefund(ctx context.Context, actor domain.Address, eventID, tokenID int64) (domain.Ticket, error) {
	var result domain.Ticket
	err := s.inLedgerTx(ctx, func(txCtx context.Context, _ domain.Settings) error {
		event, err := s.store.GetEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		if !event.IsCancelled {
			return domain.ErrNotCancelled
		}
		ticket, err := s.ownedTicket(txCtx, actor, eventID, tokenID)
		if err != nil {
			return err
		}
		if ticket.Refunded {
			return domain.ErrAlreadyRefunded
		}

		ticket.Refunded = true
		ticket.ForResale = false
		ticket.ResalePrice = nil
		if err := s.store.UpdateTicket(txCtx, ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		if err := s.transfer(txCtx, event.Ledger, ticket.Owner, ticket.PurchasePrice); err != nil {
			return err
		}
		result = ticket
		return s.emit(txCtx, eventID, domain.RefundIssued{TokenID: tokenID, Owner: ticket.Owner, Amount: ticket.PurchasePrice})
	})
	if err != nil {
		return domain.Ticket{}, err
	}

	s.log.WithFields(logrus.Fields{
		"event_id": eventID,
		"token_id": tokenID,
		"amount":   result.PurchasePrice.String(),
	}).Info("refund issued")
	return result, nil
}

// UseTicket marks a ticket as consumed at the door.
func (s *LedgerService) UseTicket(ctx context.Context, actor domain.Address, eventID, tokenID int64) (domain.Ticket, error) {
	var result domain.Ticket
	err := s.inLedgerTx(ctx, func(txCtx context.Context, _ domain.Settings) error {
		event, err := s.store.GetEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		if err := s.requireOrganizerOr(txCtx, actor, event, access.CapModerate); err != nil {
			return err
		}
		if event.IsCancelled {
			return domain.ErrEventCancelled
		}
		ticket, err := s.store.GetTicket(txCtx, eventID, tokenID)
		if err != nil {
			return err
		}
		if ticket.Used {
			return domain.ErrAlreadyUsed
		}
		if ticket.ListingID != 0 {
			return fmt.Errorf("%w: token %d is on the marketplace", domain.ErrTicketListed, tokenID)
		}

		ticket.Used = true
		ticket.ForResale = false
		ticket.ResalePrice = nil
		if err := s.store.UpdateTicket(txCtx, ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		result = ticket
		return s.emit(txCtx, eventID, domain.TicketUsed{TokenID: tokenID, By: actor})
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	return result, nil
}

// WithdrawProceeds releases the ledger escrow to the organizer once the
// event has taken place. The platform fee goes to the fee recipient.
func (s *LedgerService) WithdrawProceeds(ctx context.Context, actor domain.Address, eventID int64) (fees.Shares, error) {
	now := s.clock.Now()
	var shares fees.Shares
	err := s.inLedgerTx(ctx, func(txCtx context.Context, settings domain.Settings) error {
		event, err := s.store.GetEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		if actor.IsZero() || actor != event.Organizer {
			return fmt.Errorf("%w: only the organizer may withdraw", domain.ErrUnauthorized)
		}
		if event.IsCancelled || !event.Ended(now) {
			return domain.ErrProceedsLocked
		}
		escrow, err := s.store.Balance(txCtx, event.Ledger)
		if err != nil {
			return fmt.Errorf("read escrow: %w", err)
		}
		if escrow.Sign() == 0 {
			return domain.ErrNothingToWithdraw
		}

		shares, err = fees.Split(escrow, settings.PlatformFeeBps, 0)
		if err != nil {
			return fmt.Errorf("split proceeds: %w", err)
		}
		if err := s.transfer(txCtx, event.Ledger, settings.FeeRecipient, shares.Platform); err != nil {
			return err
		}
		if err := s.transfer(txCtx, event.Ledger, event.Organizer, shares.Remainder); err != nil {
			return err
		}
		event.ProceedsWithdrawn = true
		if err := s.store.UpdateEvent(txCtx, event); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		return s.emit(txCtx, eventID, domain.ProceedsWithdrawn{
			Organizer:     event.Organizer,
			Amount:        shares.Remainder,
			PlatformShare: shares.Platform,
		})
	})
	if err != nil {
		return fees.Shares{}, err
	}

	s.log.WithFields(logrus.Fields{
		"event_id": eventID,
		"amount":   shares.Remainder.String(),
	}).Info("proceeds withdrawn")
	return shares, nil
}

func (s *LedgerService) GetTicket(ctx context.Context, eventID, tokenID int64) (domain.Ticket, error) {
	return s.store.GetTicket(ctx, eventID, tokenID)
}

func (s *LedgerService) Tickets(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	return s.store.ListTickets(ctx, filter)
}

// The marketplace moves tickets only through these hooks, inside its own
// transaction.

func (s *LedgerService) holdForListing(ctx context.Context, eventID, tokenID, listingID int64) error {
	if err := s.ledgerOpen(ctx); err != nil {
		return err
	}
	ticket, err := s.store.GetTicket(ctx, eventID, tokenID)
	if err != nil {
		return err
	}
	if ticket.Listed() {
		return fmt.Errorf("%w: token %d", domain.ErrTicketListed, tokenID)
	}
	ticket.ListingID = listingID
	if err := s.store.UpdateTicket(ctx, ticket); err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	return nil
}

func (s *LedgerService) releaseListing(ctx context.Context, eventID, tokenID, listingID int64) error {
	ticket, err := s.store.GetTicket(ctx, eventID, tokenID)
	if err != nil {
		return err
	}
	if ticket.ListingID != listingID {
		return nil
	}
	ticket.ListingID = 0
	if err := s.store.UpdateTicket(ctx, ticket); err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	return nil
}

func (s *LedgerService) transferListed(ctx context.Context, eventID, tokenID, listingID int64, to domain.Address) (domain.Address, error) {
	if err := s.ledgerOpen(ctx); err != nil {
		return domain.ZeroAddress, err
	}
	ticket, err := s.store.GetTicket(ctx, eventID, tokenID)
	if err != nil {
		return domain.ZeroAddress, err
	}
	if ticket.ListingID != listingID {
		return domain.ZeroAddress, fmt.Errorf("%w: token %d is not held by listing %d", domain.ErrNotApproved, tokenID, listingID)
	}
	from := ticket.Owner
	ticket.Owner = to
	ticket.Approved = domain.ZeroAddress
	ticket.ListingID = 0
	if err := s.store.UpdateTicket(ctx, ticket); err != nil {
		return domain.ZeroAddress, fmt.Errorf("update ticket: %w", err)
	}
	return from, nil
}

func (s *LedgerService) ledgerOpen(ctx context.Context) error {
	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	if settings.LedgerPaused {
		return fmt.Errorf("%w: ticket ledger", domain.ErrContractPaused)
	}
	return nil
}
