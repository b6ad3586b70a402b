package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/oumaoumag/eventvex/internal/access"
	"github.com/oumaoumag/eventvex/internal/clock"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/oumaoumag/eventvex/internal/wei"
)

// AccountService exposes balances. Deposit is the only way value enters
// the system; everything else moves existing balances.
type AccountService struct {
	core
}

func NewAccountService(store Store, oracle access.Oracle, clk clock.Clock, opts ...Option) *AccountService {
	return &AccountService{core: newCore(store, oracle, clk, opts)}
}

func (s *AccountService) Deposit(ctx context.Context, actor, account domain.Address, amount *big.Int) (*big.Int, error) {
	if err := s.require(ctx, actor, access.CapAdminister); err != nil {
		return nil, err
	}
	if account.IsZero() {
		return nil, fmt.Errorf("%w: cannot credit the zero address", domain.ErrInvalidAddress)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: deposit must be positive", domain.ErrInvalidInput)
	}

	var balance *big.Int
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		balance, err = s.store.AdjustBalance(txCtx, account, amount)
		if err != nil {
			return fmt.Errorf("credit %s: %w", account, err)
		}
		return s.emit(txCtx, 0, domain.Deposit{Account: account, Amount: amount})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("account", account.String()).WithField("amount", wei.FormatEther(amount)).Info("deposit")
	return balance, nil
}

func (s *AccountService) Balance(ctx context.Context, addr domain.Address) (*big.Int, error) {
	return s.store.Balance(ctx, addr)
}
