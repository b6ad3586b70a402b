package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/oumaoumag/eventvex/internal/domain"
)

const listingColumns = `id, kind, event_id, ledger, token_id, seller, price::text, status,
	created_at, expires_at, highest_bidder, highest_bid::text, buyer, sold_price::text, settled_at`

func scanListing(row pgx.Row) (domain.Listing, error) {
	var (
		l                             domain.Listing
		kind, status                  string
		ledger, seller, bidder, buyer string
		price, highest, sold          *string
	)
	if err := row.Scan(
		&l.ID, &kind, &l.EventID, &ledger, &l.TokenID, &seller, &price, &status,
		&l.CreatedAt, &l.ExpiresAt, &bidder, &highest, &buyer, &sold, &l.SettledAt,
	); err != nil {
		return domain.Listing{}, err
	}
	l.Kind = domain.ListingKind(kind)
	l.Status = domain.ListingStatus(status)
	if err := parseAddresses(
		[]*domain.Address{&l.Ledger, &l.Seller, &l.HighestBidder, &l.Buyer},
		[]string{ledger, seller, bidder, buyer},
	); err != nil {
		return domain.Listing{}, err
	}
	if err := parseAmounts(
		[]**big.Int{&l.Price, &l.HighestBid, &l.SoldPrice},
		[]*string{price, highest, sold},
	); err != nil {
		return domain.Listing{}, err
	}
	return l, nil
}

func (s *Store) CreateListing(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	err := s.queryRow(ctx, `
INSERT INTO listings (
	kind, event_id, ledger, token_id, seller, price, status,
	created_at, expires_at, highest_bidder, highest_bid, buyer, sold_price, settled_at
) VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7, $8, $9, $10, $11::text::numeric, $12, $13::text::numeric, $14)
RETURNING id`,
		string(l.Kind), l.EventID, l.Ledger.String(), l.TokenID, l.Seller.String(), amountArg(l.Price), string(l.Status),
		l.CreatedAt, l.ExpiresAt, l.HighestBidder.String(), amountArg(l.HighestBid), l.Buyer.String(), amountArg(l.SoldPrice), l.SettledAt,
	).Scan(&l.ID)
	if isUniqueViolation(err) {
		return domain.Listing{}, fmt.Errorf("%w: token %d", domain.ErrTicketListed, l.TokenID)
	}
	if isForeignKeyViolation(err) {
		return domain.Listing{}, fmt.Errorf("%w: event %d token %d", domain.ErrTicketNotFound, l.EventID, l.TokenID)
	}
	if err != nil {
		return domain.Listing{}, fmt.Errorf("insert listing: %w", err)
	}
	return l, nil
}

func (s *Store) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	sql := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	if txFromContext(ctx) != nil {
		sql += ` FOR UPDATE`
	}
	l, err := scanListing(s.queryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Listing{}, fmt.Errorf("%w: %d", domain.ErrListingNotFound, id)
	}
	if err != nil {
		return domain.Listing{}, fmt.Errorf("select listing: %w", err)
	}
	return l, nil
}

func (s *Store) UpdateListing(ctx context.Context, l domain.Listing) error {
	tag, err := s.exec(ctx, `
UPDATE listings
SET status = $2, highest_bidder = $3, highest_bid = $4::text::numeric,
	buyer = $5, sold_price = $6::text::numeric, settled_at = $7
WHERE id = $1`,
		l.ID, string(l.Status), l.HighestBidder.String(), amountArg(l.HighestBid),
		l.Buyer.String(), amountArg(l.SoldPrice), l.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", domain.ErrListingNotFound, l.ID)
	}
	return nil
}

func (s *Store) ListListings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	var w where
	if filter.Status != "" {
		w.add(`status = $%d`, string(filter.Status))
	}
	if filter.Seller != nil {
		w.add(`seller = $%d`, filter.Seller.String())
	}
	if filter.EventID != 0 {
		w.add(`event_id = $%d`, filter.EventID)
	}

	rows, err := s.query(ctx, `SELECT `+listingColumns+` FROM listings`+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) AddBid(ctx context.Context, b domain.Bid) error {
	_, err := s.exec(ctx, `
INSERT INTO bids (listing_id, bidder, amount, placed_at)
VALUES ($1, $2, $3::text::numeric, $4)`,
		b.ListingID, b.Bidder.String(), amountArg(domain.AmountOrZero(b.Amount)), b.PlacedAt,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: %d", domain.ErrListingNotFound, b.ListingID)
	}
	if err != nil {
		return fmt.Errorf("insert bid: %w", err)
	}
	return nil
}

func (s *Store) ListBids(ctx context.Context, listingID int64) ([]domain.Bid, error) {
	rows, err := s.query(ctx, `
SELECT listing_id, bidder, amount::text, placed_at
FROM bids
WHERE listing_id = $1
ORDER BY id`, listingID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Bid, 0)
	for rows.Next() {
		var (
			b      domain.Bid
			bidder string
			amount *string
		)
		if err := rows.Scan(&b.ListingID, &bidder, &amount, &b.PlacedAt); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		if err := parseAddresses([]*domain.Address{&b.Bidder}, []string{bidder}); err != nil {
			return nil, err
		}
		if b.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
