package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/oumaoumag/eventvex/internal/domain"
)

// PayeeGuard decides whether an address accepts incoming value. A rejected
// payee fails the transfer and with it the whole operation.
type PayeeGuard interface {
	Accepts(ctx context.Context, to domain.Address) bool
}

// PayeeGuardFunc adapts a function to PayeeGuard.
type PayeeGuardFunc func(ctx context.Context, to domain.Address) bool

func (f PayeeGuardFunc) Accepts(ctx context.Context, to domain.Address) bool {
	return f(ctx, to)
}

type acceptAll struct{}

func (acceptAll) Accepts(context.Context, domain.Address) bool { return true }

// transfer moves amount from one balance to another inside the current
// transaction. Zero amounts are a no-op.
func (c *core) transfer(ctx context.Context, from, to domain.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: negative transfer", domain.ErrInvalidInput)
	}
	if _, err := c.store.AdjustBalance(ctx, from, new(big.Int).Neg(amount)); err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	if !c.guard.Accepts(ctx, to) {
		return fmt.Errorf("%w: %s rejected %s wei", domain.ErrTransferFailed, to, amount)
	}
	if _, err := c.store.AdjustBalance(ctx, to, amount); err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}
	return nil
}

// collect debits the value attached to a call into escrow.
func (c *core) collect(ctx context.Context, payer, escrow domain.Address, value *big.Int) error {
	if value == nil || value.Sign() < 0 {
		return fmt.Errorf("%w: attached value must be non-negative", domain.ErrInvalidInput)
	}
	return c.transfer(ctx, payer, escrow, value)
}

// refundExcess returns whatever part of value exceeds owed.
func (c *core) refundExcess(ctx context.Context, escrow, payer domain.Address, value, owed *big.Int) error {
	excess := new(big.Int).Sub(value, owed)
	if excess.Sign() <= 0 {
		return nil
	}
	return c.transfer(ctx, escrow, payer, excess)
}

func requirePayment(value, owed *big.Int) error {
	if value == nil || value.Cmp(owed) < 0 {
		return fmt.Errorf("%w: need %s wei", domain.ErrInsufficientPayment, owed)
	}
	return nil
}
