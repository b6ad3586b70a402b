package domain

import "errors"

// Kind classifies an error by how the caller should react to it.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthorization
	KindStateConflict
	KindPayment
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindStateConflict:
		return "state_conflict"
	case KindPayment:
		return "payment"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a classified domain error. Values are compared by identity, so
// wrap them with fmt.Errorf("%w: ...") to add detail.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrInvalidInput     = newError(KindValidation, "invalid_input", "invalid input")
	ErrInvalidAddress   = newError(KindValidation, "invalid_address", "invalid address")
	ErrPriceExceedsMax  = newError(KindValidation, "price_exceeds_max", "price exceeds max resale price")
	ErrPriceBelowMin    = newError(KindValidation, "price_below_min", "price below min resale price")
	ErrLimitExceeded    = newError(KindValidation, "limit_exceeded", "limit exceeded")
	ErrFeeTooHigh       = newError(KindValidation, "fee_too_high", "fee too high")
	ErrWrongListingKind = newError(KindValidation, "wrong_listing_kind", "operation not supported for this listing kind")

	ErrUnauthorized        = newError(KindAuthorization, "unauthorized", "unauthorized")
	ErrNotOwner            = newError(KindAuthorization, "not_owner", "caller is not the ticket owner")
	ErrNotApproved         = newError(KindAuthorization, "not_approved", "marketplace is not approved for ticket")
	ErrCannotBuyOwnListing = newError(KindAuthorization, "cannot_buy_own_listing", "cannot buy own listing")

	ErrSeatTaken          = newError(KindStateConflict, "seat_taken", "seat already minted")
	ErrEventInactive      = newError(KindStateConflict, "event_inactive", "event is not active")
	ErrEventCancelled     = newError(KindStateConflict, "event_cancelled", "event is cancelled")
	ErrEventEnded         = newError(KindStateConflict, "event_ended", "event has already taken place")
	ErrNotCancelled       = newError(KindStateConflict, "not_cancelled", "event is not cancelled")
	ErrRefundWindowClosed = newError(KindStateConflict, "refund_window_closed", "event is inside the refund window")
	ErrAlreadyRefunded    = newError(KindStateConflict, "already_refunded", "ticket already refunded")
	ErrAlreadyUsed        = newError(KindStateConflict, "already_used", "ticket already used")
	ErrTicketListed       = newError(KindStateConflict, "ticket_listed", "ticket is already listed")
	ErrNotListed          = newError(KindStateConflict, "not_listed", "ticket is not listed for resale")
	ErrListingNotActive   = newError(KindStateConflict, "listing_not_active", "listing is not active")
	ErrAuctionNotExpired  = newError(KindStateConflict, "auction_not_expired", "auction has not expired")
	ErrListingNotExpired  = newError(KindStateConflict, "listing_not_expired", "listing has not expired")
	ErrContractPaused     = newError(KindStateConflict, "contract_paused", "contract is paused")
	ErrProceedsLocked     = newError(KindStateConflict, "proceeds_locked", "proceeds are locked until the event date")
	ErrNothingToWithdraw  = newError(KindStateConflict, "nothing_to_withdraw", "nothing to withdraw")

	ErrInsufficientPayment = newError(KindPayment, "insufficient_payment", "insufficient payment")
	ErrInsufficientFunds   = newError(KindPayment, "insufficient_funds", "insufficient funds")
	ErrBidTooLow           = newError(KindPayment, "bid_too_low", "bid too low")
	ErrTransferFailed      = newError(KindPayment, "transfer_failed", "transfer failed")

	ErrEventNotFound    = newError(KindNotFound, "event_not_found", "event not found")
	ErrTicketNotFound   = newError(KindNotFound, "ticket_not_found", "ticket not found")
	ErrListingNotFound  = newError(KindNotFound, "listing_not_found", "listing not found")
	ErrSettingsNotFound = newError(KindNotFound, "settings_not_found", "platform settings not initialized")
)

// KindOf reports the kind of the first domain error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// CodeOf reports the code of the first domain error in err's chain, or
// "internal_error" when err is not a domain error.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "internal_error"
}
