package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/oumaoumag/eventvex/internal/domain"
)

func (s *Store) Balance(ctx context.Context, addr domain.Address) (*big.Int, error) {
	var bal *string
	err := s.queryRow(ctx, `SELECT balance::text FROM accounts WHERE address = $1`, addr.String()).Scan(&bal)
	if errors.Is(err, pgx.ErrNoRows) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select balance: %w", err)
	}
	v, err := parseAmount(bal)
	if err != nil {
		return nil, err
	}
	return domain.AmountOrZero(v), nil
}

// AdjustBalance enforces the zero floor in the UPDATE itself. Tripping the
// balance CHECK would abort the surrounding transaction.
func (s *Store) AdjustBalance(ctx context.Context, addr domain.Address, delta *big.Int) (*big.Int, error) {
	if delta == nil {
		delta = new(big.Int)
	}

	var (
		next *string
		err  error
	)
	if delta.Sign() >= 0 {
		err = s.queryRow(ctx, `
INSERT INTO accounts (address, balance) VALUES ($1, $2::text::numeric)
ON CONFLICT (address) DO UPDATE
SET balance = accounts.balance + EXCLUDED.balance, updated_at = NOW()
RETURNING balance::text`,
			addr.String(), amountArg(delta),
		).Scan(&next)
	} else {
		err = s.queryRow(ctx, `
UPDATE accounts
SET balance = balance + $2::text::numeric, updated_at = NOW()
WHERE address = $1 AND balance + $2::text::numeric >= 0
RETURNING balance::text`,
			addr.String(), amountArg(delta),
		).Scan(&next)
		if errors.Is(err, pgx.ErrNoRows) {
			current, balErr := s.Balance(ctx, addr)
			if balErr != nil {
				return nil, balErr
			}
			return nil, fmt.Errorf("%w: %s holds %s wei", domain.ErrInsufficientFunds, addr, current)
		}
	}
	if isCheckViolation(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInsufficientFunds, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("adjust balance: %w", err)
	}

	v, err := parseAmount(next)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Total sums every balance.
func (s *Store) Total(ctx context.Context) (*big.Int, error) {
	var total *string
	if err := s.queryRow(ctx, `SELECT COALESCE(SUM(balance), 0)::text FROM accounts`).Scan(&total); err != nil {
		return nil, fmt.Errorf("sum balances: %w", err)
	}
	return parseAmount(total)
}
