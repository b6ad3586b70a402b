package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/oumaoumag/eventvex/internal/domain"
)

func (s *Store) Settings(ctx context.Context) (domain.Settings, error) {
	sql := `
SELECT platform_fee_bps, organizer_royalty_bps, marketplace_fee_bps, fee_recipient,
	ledger_paused, marketplace_paused, total_events, active_events
FROM platform_settings
WHERE id = 1`
	if txFromContext(ctx) != nil {
		sql += ` FOR UPDATE`
	}

	var (
		st        domain.Settings
		recipient string
	)
	err := s.queryRow(ctx, sql).Scan(
		&st.PlatformFeeBps, &st.OrganizerRoyaltyBps, &st.MarketplaceFeeBps, &recipient,
		&st.LedgerPaused, &st.MarketplacePaused, &st.TotalEvents, &st.ActiveEvents,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Settings{}, domain.ErrSettingsNotFound
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("select settings: %w", err)
	}
	if err := parseAddresses([]*domain.Address{&st.FeeRecipient}, []string{recipient}); err != nil {
		return domain.Settings{}, err
	}
	return st, nil
}

func (s *Store) SaveSettings(ctx context.Context, st domain.Settings) error {
	tag, err := s.exec(ctx, `
UPDATE platform_settings
SET platform_fee_bps = $1, organizer_royalty_bps = $2, marketplace_fee_bps = $3,
	fee_recipient = $4, ledger_paused = $5, marketplace_paused = $6,
	total_events = $7, active_events = $8, updated_at = NOW()
WHERE id = 1`,
		st.PlatformFeeBps, st.OrganizerRoyaltyBps, st.MarketplaceFeeBps,
		st.FeeRecipient.String(), st.LedgerPaused, st.MarketplacePaused,
		st.TotalEvents, st.ActiveEvents,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSettingsNotFound
	}
	return nil
}

func (s *Store) InitSettings(ctx context.Context, st domain.Settings) error {
	_, err := s.exec(ctx, `
INSERT INTO platform_settings (
	id, platform_fee_bps, organizer_royalty_bps, marketplace_fee_bps, fee_recipient,
	ledger_paused, marketplace_paused, total_events, active_events
) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO NOTHING`,
		st.PlatformFeeBps, st.OrganizerRoyaltyBps, st.MarketplaceFeeBps,
		st.FeeRecipient.String(), st.LedgerPaused, st.MarketplacePaused,
		st.TotalEvents, st.ActiveEvents,
	)
	if err != nil {
		return fmt.Errorf("init settings: %w", err)
	}
	return nil
}
