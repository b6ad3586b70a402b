package app_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/oumaoumag/eventvex/internal/app"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmin_FeeUpdates(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		set     func(s *app.AdminService, bps int) (domain.Settings, error)
		read    func(s domain.Settings) int
		ceiling error
	}{
		{"platform fee", func(s *app.AdminService, bps int) (domain.Settings, error) {
			return s.SetPlatformFee(ctx, admin, bps)
		}, func(s domain.Settings) int { return s.PlatformFeeBps }, domain.ErrLimitExceeded},
		{"organizer royalty", func(s *app.AdminService, bps int) (domain.Settings, error) {
			return s.SetOrganizerRoyalty(ctx, admin, bps)
		}, func(s domain.Settings) int { return s.OrganizerRoyaltyBps }, domain.ErrLimitExceeded},
		{"marketplace fee", func(s *app.AdminService, bps int) (domain.Settings, error) {
			return s.SetMarketplaceFee(ctx, admin, bps)
		}, func(s domain.Settings) int { return s.MarketplaceFeeBps }, domain.ErrFeeTooHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			got, err := tt.set(h.admin, 1000)
			require.NoError(t, err)
			assert.Equal(t, 1000, tt.read(got))

			_, err = tt.set(h.admin, 1001)
			require.ErrorIs(t, err, tt.ceiling)
			_, err = tt.set(h.admin, -1)
			require.ErrorIs(t, err, domain.ErrInvalidInput)

			settings, err := h.admin.Settings(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1000, tt.read(settings))
			assert.Equal(t, []string{"PlatformConfigUpdated"}, h.recordNames(t))
		})
	}
}

func TestAdmin_ConfigRecordCarriesBeforeAndAfter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.admin.SetPlatformFee(ctx, admin, 300)
	require.NoError(t, err)

	records, err := h.records.Records(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	var body domain.PlatformConfigUpdated
	require.NoError(t, json.Unmarshal(records[0].Payload, &body))
	assert.Equal(t, domain.PlatformConfigUpdated{Parameter: "platformFee", Before: "250", After: "300"}, body)
}

func TestAdmin_RequiresAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.admin.SetPlatformFee(ctx, organizer, 100)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = h.admin.SetFeeRecipient(ctx, alice, bob)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = h.admin.SetFeeRecipient(ctx, admin, domain.ZeroAddress)
	require.ErrorIs(t, err, domain.ErrInvalidAddress)

	settings, err := h.admin.SetFeeRecipient(ctx, admin, carol)
	require.NoError(t, err)
	assert.Equal(t, carol, settings.FeeRecipient)
}

func TestAdmin_Pause(t *testing.T) {
	ctx := context.Background()

	t.Run("pauser pauses ledgers only", func(t *testing.T) {
		h := newHarness(t)
		settings, err := h.admin.SetPaused(ctx, pauser, app.TargetLedger, true)
		require.NoError(t, err)
		assert.True(t, settings.LedgerPaused)

		_, err = h.admin.SetPaused(ctx, pauser, app.TargetMarketplace, true)
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("repeat is a no-op", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.admin.SetPaused(ctx, admin, app.TargetMarketplace, true)
		require.NoError(t, err)
		_, err = h.admin.SetPaused(ctx, admin, app.TargetMarketplace, true)
		require.NoError(t, err)
		_, err = h.admin.SetPaused(ctx, admin, app.TargetMarketplace, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"Paused", "Unpaused"}, h.recordNames(t))
	})

	t.Run("unknown target", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.admin.SetPaused(ctx, admin, "registry", true)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestAccounts_Deposit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bal, err := h.accounts.Deposit(ctx, admin, alice, eth("1.5"))
	require.NoError(t, err)
	assert.Zero(t, bal.Cmp(eth("1.5")))

	_, err = h.accounts.Deposit(ctx, alice, alice, eth("1"))
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = h.accounts.Deposit(ctx, admin, alice, eth("0"))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = h.accounts.Deposit(ctx, admin, domain.ZeroAddress, eth("1"))
	require.ErrorIs(t, err, domain.ErrInvalidAddress)

	h.requireBalance(t, alice, "1.5")
	assert.Equal(t, []string{"Deposit"}, h.recordNames(t))
}
