package domain

import "time"

// Settings is the admin-mutable platform configuration and the registry
// counters. There is exactly one Settings value per store.
type Settings struct {
	PlatformFeeBps      int
	OrganizerRoyaltyBps int
	MarketplaceFeeBps   int
	FeeRecipient        Address
	LedgerPaused        bool
	MarketplacePaused   bool
	TotalEvents         int64
	ActiveEvents        int64
}

// DefaultSettings returns the launch configuration.
func DefaultSettings() Settings {
	return Settings{
		PlatformFeeBps:      250,
		OrganizerRoyaltyBps: 500,
		MarketplaceFeeBps:   250,
		FeeRecipient:        TreasuryAddress(),
	}
}

// Limits are the fixed protocol constants. They are configuration, not
// admin-mutable state.
type Limits struct {
	MaxTicketsPerEvent int
	// MaxResaleBps and MinResaleBps bound resale prices relative to the
	// ticket price (30000 = 300%).
	MaxResaleBps       int
	MinResaleBps       int
	RefundWindow       time.Duration
	MaxSeatsPerTx      int
	MaxFeeBps          int
	MaxTitleLen        int
	MaxDescriptionLen  int
	MaxLocationLen     int
	MaxListingDuration time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		MaxTicketsPerEvent: 10000,
		MaxResaleBps:       30000,
		MinResaleBps:       5000,
		RefundWindow:       24 * time.Hour,
		MaxSeatsPerTx:      10,
		MaxFeeBps:          1000,
		MaxTitleLen:        200,
		MaxDescriptionLen:  2000,
		MaxLocationLen:     200,
		MaxListingDuration: 30 * 24 * time.Hour,
	}
}
