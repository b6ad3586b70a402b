package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/oumaoumag/eventvex/internal/domain"
)

const ticketColumns = `event_id, token_id, seat, owner, approved, purchase_price::text,
	metadata_ref, for_resale, resale_price::text, listing_id, used, refunded, minted_at`

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var (
		t                     domain.Ticket
		owner, approved       string
		purchase, resalePrice *string
	)
	if err := row.Scan(
		&t.EventID, &t.TokenID, &t.Seat, &owner, &approved, &purchase,
		&t.MetadataRef, &t.ForResale, &resalePrice, &t.ListingID, &t.Used, &t.Refunded, &t.MintedAt,
	); err != nil {
		return domain.Ticket{}, err
	}
	if err := parseAddresses([]*domain.Address{&t.Owner, &t.Approved}, []string{owner, approved}); err != nil {
		return domain.Ticket{}, err
	}
	if err := parseAmounts([]**big.Int{&t.PurchasePrice, &t.ResalePrice}, []*string{purchase, resalePrice}); err != nil {
		return domain.Ticket{}, err
	}
	return t, nil
}

func (s *Store) CreateTicket(ctx context.Context, t domain.Ticket) error {
	_, err := s.exec(ctx, `
INSERT INTO tickets (
	event_id, token_id, seat, owner, approved, purchase_price,
	metadata_ref, for_resale, resale_price, listing_id, used, refunded, minted_at
) VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7, $8, $9::text::numeric, $10, $11, $12, $13)`,
		t.EventID, t.TokenID, t.Seat, t.Owner.String(), t.Approved.String(), amountArg(domain.AmountOrZero(t.PurchasePrice)),
		t.MetadataRef, t.ForResale, amountArg(t.ResalePrice), t.ListingID, t.Used, t.Refunded, t.MintedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: seat %d", domain.ErrSeatTaken, t.Seat)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: %d", domain.ErrEventNotFound, t.EventID)
	}
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (s *Store) GetTicket(ctx context.Context, eventID, tokenID int64) (domain.Ticket, error) {
	sql := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 AND token_id = $2`
	if txFromContext(ctx) != nil {
		sql += ` FOR UPDATE`
	}
	t, err := scanTicket(s.queryRow(ctx, sql, eventID, tokenID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Ticket{}, fmt.Errorf("%w: event %d token %d", domain.ErrTicketNotFound, eventID, tokenID)
	}
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("select ticket: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTicket(ctx context.Context, t domain.Ticket) error {
	tag, err := s.exec(ctx, `
UPDATE tickets
SET owner = $3, approved = $4, for_resale = $5, resale_price = $6::text::numeric,
	listing_id = $7, used = $8, refunded = $9
WHERE event_id = $1 AND token_id = $2`,
		t.EventID, t.TokenID, t.Owner.String(), t.Approved.String(), t.ForResale, amountArg(t.ResalePrice),
		t.ListingID, t.Used, t.Refunded,
	)
	if isCheckViolation(err) {
		return fmt.Errorf("%w: token %d", domain.ErrTicketListed, t.TokenID)
	}
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: event %d token %d", domain.ErrTicketNotFound, t.EventID, t.TokenID)
	}
	return nil
}

func (s *Store) ListTickets(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	var w where
	if filter.EventID != 0 {
		w.add(`event_id = $%d`, filter.EventID)
	}
	if filter.Owner != nil {
		w.add(`owner = $%d`, filter.Owner.String())
	}

	rows, err := s.query(ctx, `SELECT `+ticketColumns+` FROM tickets`+w.String()+` ORDER BY event_id, token_id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
