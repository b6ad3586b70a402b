// Package postgres is the Store backed by PostgreSQL through pgx. Write
// transactions are serialized by a transaction-scoped advisory lock.
package postgres

import (
	"context"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oumaoumag/eventvex/internal/domain"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.pool, fn)
}

func (s *Store) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return s.pool.Exec(ctx, sql, args...)
}

func (s *Store) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}

func (s *Store) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return s.pool.Query(ctx, sql, args...)
}

// Amounts cross the driver as decimal text so NUMERIC(78, 0) keeps every
// wei of a 256-bit value.

func amountArg(v *big.Int) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func parseAmount(s *string) (*big.Int, error) {
	if s == nil {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(*s, 10)
	if !ok {
		return nil, fmt.Errorf("parse amount %q", *s)
	}
	return v, nil
}

func parseAmounts(dst []**big.Int, src []*string) error {
	for i := range src {
		v, err := parseAmount(src[i])
		if err != nil {
			return err
		}
		*dst[i] = v
	}
	return nil
}

func parseAddresses(dst []*domain.Address, src []string) error {
	for i := range src {
		a, err := domain.ParseAddress(src[i])
		if err != nil {
			return fmt.Errorf("stored address: %w", err)
		}
		*dst[i] = a
	}
	return nil
}

// where accumulates AND-ed predicates with positional arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *where) addRaw(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	out := " WHERE " + w.clauses[0]
	for _, c := range w.clauses[1:] {
		out += " AND " + c
	}
	return out
}
