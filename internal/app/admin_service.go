package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/oumaoumag/eventvex/internal/access"
	"github.com/oumaoumag/eventvex/internal/clock"
	"github.com/oumaoumag/eventvex/internal/domain"
)

// Pause targets.
const (
	TargetLedger      = "ledger"
	TargetMarketplace = "marketplace"
)

// AdminService changes platform configuration. Every mutation is gated on
// the oracle and leaves a before/after record.
type AdminService struct {
	core
}

func NewAdminService(store Store, oracle access.Oracle, clk clock.Clock, opts ...Option) *AdminService {
	return &AdminService{core: newCore(store, oracle, clk, opts)}
}

func (s *AdminService) Settings(ctx context.Context) (domain.Settings, error) {
	return s.settings(ctx)
}

// SetPlatformFee changes the platform cut taken from ledger resales and
// withdrawn proceeds.
func (s *AdminService) SetPlatformFee(ctx context.Context, actor domain.Address, bps int) (domain.Settings, error) {
	if err := s.checkBps(bps, domain.ErrLimitExceeded); err != nil {
		return domain.Settings{}, err
	}
	return s.update(ctx, actor, "platformFee", func(st *domain.Settings) (string, string) {
		before := strconv.Itoa(st.PlatformFeeBps)
		st.PlatformFeeBps = bps
		return before, strconv.Itoa(bps)
	})
}

func (s *AdminService) SetOrganizerRoyalty(ctx context.Context, actor domain.Address, bps int) (domain.Settings, error) {
	if err := s.checkBps(bps, domain.ErrLimitExceeded); err != nil {
		return domain.Settings{}, err
	}
	return s.update(ctx, actor, "organizerRoyalty", func(st *domain.Settings) (string, string) {
		before := strconv.Itoa(st.OrganizerRoyaltyBps)
		st.OrganizerRoyaltyBps = bps
		return before, strconv.Itoa(bps)
	})
}

func (s *AdminService) SetMarketplaceFee(ctx context.Context, actor domain.Address, bps int) (domain.Settings, error) {
	if err := s.checkBps(bps, domain.ErrFeeTooHigh); err != nil {
		return domain.Settings{}, err
	}
	return s.update(ctx, actor, "marketplaceFee", func(st *domain.Settings) (string, string) {
		before := strconv.Itoa(st.MarketplaceFeeBps)
		st.MarketplaceFeeBps = bps
		return before, strconv.Itoa(bps)
	})
}

func (s *AdminService) SetFeeRecipient(ctx context.Context, actor, recipient domain.Address) (domain.Settings, error) {
	if recipient.IsZero() {
		return domain.Settings{}, fmt.Errorf("%w: fee recipient must be set", domain.ErrInvalidAddress)
	}
	return s.update(ctx, actor, "feeRecipient", func(st *domain.Settings) (string, string) {
		before := st.FeeRecipient.String()
		st.FeeRecipient = recipient
		return before, recipient.String()
	})
}

func (s *AdminService) checkBps(bps int, ceilingErr error) error {
	if bps < 0 {
		return fmt.Errorf("%w: basis points must be non-negative", domain.ErrInvalidInput)
	}
	if bps > s.limits.MaxFeeBps {
		return fmt.Errorf("%w: at most %d bps", ceilingErr, s.limits.MaxFeeBps)
	}
	return nil
}

func (s *AdminService) update(ctx context.Context, actor domain.Address, parameter string, apply func(*domain.Settings) (before, after string)) (domain.Settings, error) {
	if err := s.require(ctx, actor, access.CapAdminister); err != nil {
		return domain.Settings{}, err
	}
	var result domain.Settings
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		settings, err := s.settings(txCtx)
		if err != nil {
			return err
		}
		before, after := apply(&settings)
		if err := s.store.SaveSettings(txCtx, settings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		result = settings
		return s.emit(txCtx, 0, domain.PlatformConfigUpdated{Parameter: parameter, Before: before, After: after})
	})
	if err != nil {
		return domain.Settings{}, err
	}

	s.log.WithField("parameter", parameter).Info("platform config updated")
	return result, nil
}

// SetPaused flips the pause flag of a target. Ledgers may be paused by a
// pauser or an admin, the marketplace by an admin only. Setting the current
// value again is a no-op.
func (s *AdminService) SetPaused(ctx context.Context, actor domain.Address, target string, paused bool) (domain.Settings, error) {
	capability := access.CapAdminister
	switch target {
	case TargetLedger:
		capability = access.CapPause
	case TargetMarketplace:
	default:
		return domain.Settings{}, fmt.Errorf("%w: unknown pause target %q", domain.ErrInvalidInput, target)
	}
	if err := s.require(ctx, actor, capability); err != nil {
		return domain.Settings{}, err
	}

	var result domain.Settings
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		settings, err := s.settings(txCtx)
		if err != nil {
			return err
		}
		flag := &settings.LedgerPaused
		if target == TargetMarketplace {
			flag = &settings.MarketplacePaused
		}
		result = settings
		if *flag == paused {
			return nil
		}
		*flag = paused
		if err := s.store.SaveSettings(txCtx, settings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		result = settings
		if paused {
			return s.emit(txCtx, 0, domain.Paused{Target: target, By: actor})
		}
		return s.emit(txCtx, 0, domain.Unpaused{Target: target, By: actor})
	})
	if err != nil {
		return domain.Settings{}, err
	}
	return result, nil
}
