package memory

import (
	"context"
	"fmt"
	"math/big"

	"github.com/oumaoumag/eventvex/internal/domain"
)

func (s *Store) Balance(ctx context.Context, addr domain.Address) (*big.Int, error) {
	defer s.lock(ctx)()
	if bal, ok := s.st.balances[addr]; ok {
		return new(big.Int).Set(bal), nil
	}
	return new(big.Int), nil
}

func (s *Store) AdjustBalance(ctx context.Context, addr domain.Address, delta *big.Int) (*big.Int, error) {
	defer s.lock(ctx)()
	current, had := s.st.balances[addr]
	if current == nil {
		current = new(big.Int)
	}
	next := new(big.Int).Add(current, delta)
	if next.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s holds %s wei", domain.ErrInsufficientFunds, addr, current)
	}
	// Balances are replaced, never mutated, so current stays valid for undo.
	s.onRollback(ctx, func() {
		if had {
			s.st.balances[addr] = current
		} else {
			delete(s.st.balances, addr)
		}
	})
	s.st.balances[addr] = next
	return new(big.Int).Set(next), nil
}

// Total sums every balance. Tests use it to check conservation.
func (s *Store) Total() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := new(big.Int)
	for _, bal := range s.st.balances {
		total.Add(total, bal)
	}
	return total
}
