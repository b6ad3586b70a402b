package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/oumaoumag/eventvex/internal/domain"
)

const eventColumns = `id, organizer, ledger, title, description, location, event_date,
	ticket_price::text, max_tickets, max_resale_price::text, tickets_sold,
	is_active, is_cancelled, proceeds_withdrawn, created_at`

func scanEvent(row pgx.Row) (domain.Event, error) {
	var (
		e                  domain.Event
		organizer, ledger  string
		price, resaleLimit *string
	)
	if err := row.Scan(
		&e.ID, &organizer, &ledger, &e.Title, &e.Description, &e.Location, &e.EventDate,
		&price, &e.MaxTickets, &resaleLimit, &e.TicketsSold,
		&e.IsActive, &e.IsCancelled, &e.ProceedsWithdrawn, &e.CreatedAt,
	); err != nil {
		return domain.Event{}, err
	}
	if err := parseAddresses([]*domain.Address{&e.Organizer, &e.Ledger}, []string{organizer, ledger}); err != nil {
		return domain.Event{}, err
	}
	if err := parseAmounts([]**big.Int{&e.TicketPrice, &e.MaxResalePrice}, []*string{price, resaleLimit}); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

func (s *Store) CreateEvent(ctx context.Context, e domain.Event) (domain.Event, error) {
	err := s.WithTx(ctx, func(ctx context.Context) error {
		if err := s.queryRow(ctx, `SELECT nextval(pg_get_serial_sequence('events', 'id'))`).Scan(&e.ID); err != nil {
			return fmt.Errorf("next event id: %w", err)
		}
		e.Ledger = domain.LedgerAddress(e.ID)
		_, err := s.exec(ctx, `
INSERT INTO events (
	id, organizer, ledger, title, description, location, event_date,
	ticket_price, max_tickets, max_resale_price, tickets_sold,
	is_active, is_cancelled, proceeds_withdrawn, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::text::numeric, $9, $10::text::numeric, $11, $12, $13, $14, $15)`,
			e.ID, e.Organizer.String(), e.Ledger.String(), e.Title, e.Description, e.Location, e.EventDate,
			amountArg(domain.AmountOrZero(e.TicketPrice)), e.MaxTickets, amountArg(domain.AmountOrZero(e.MaxResalePrice)), e.TicketsSold,
			e.IsActive, e.IsCancelled, e.ProceedsWithdrawn, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

func (s *Store) GetEvent(ctx context.Context, id int64) (domain.Event, error) {
	return s.getEvent(ctx, `id = $1`, id)
}

func (s *Store) GetEventByLedger(ctx context.Context, ledger domain.Address) (domain.Event, error) {
	return s.getEvent(ctx, `ledger = $1`, ledger.String())
}

func (s *Store) getEvent(ctx context.Context, predicate string, arg any) (domain.Event, error) {
	sql := `SELECT ` + eventColumns + ` FROM events WHERE ` + predicate
	if txFromContext(ctx) != nil {
		sql += ` FOR UPDATE`
	}
	e, err := scanEvent(s.queryRow(ctx, sql, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("%w: %v", domain.ErrEventNotFound, arg)
	}
	if err != nil {
		return domain.Event{}, fmt.Errorf("select event: %w", err)
	}
	return e, nil
}

func (s *Store) UpdateEvent(ctx context.Context, e domain.Event) error {
	tag, err := s.exec(ctx, `
UPDATE events
SET tickets_sold = $2, is_active = $3, is_cancelled = $4, proceeds_withdrawn = $5
WHERE id = $1`,
		e.ID, e.TicketsSold, e.IsActive, e.IsCancelled, e.ProceedsWithdrawn,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", domain.ErrEventNotFound, e.ID)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	var w where
	if filter.Organizer != nil {
		w.add(`organizer = $%d`, filter.Organizer.String())
	}
	if filter.ActiveOnly {
		w.addRaw(`is_active AND NOT is_cancelled`)
	}
	if filter.StartsAfter != nil {
		w.add(`event_date > $%d`, *filter.StartsAfter)
	}

	rows, err := s.query(ctx, `SELECT `+eventColumns+` FROM events`+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
