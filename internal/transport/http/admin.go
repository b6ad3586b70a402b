package http

import (
	"net/http"

	"github.com/oumaoumag/eventvex/internal/domain"
)

func (a *api) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.Admin.Settings(r.Context())
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsView(settings))
}

type updateSettingsRequest struct {
	PlatformFeeBps      *int    `json:"platformFeeBps"`
	OrganizerRoyaltyBps *int    `json:"organizerRoyaltyBps"`
	MarketplaceFeeBps   *int    `json:"marketplaceFeeBps"`
	FeeRecipient        *string `json:"feeRecipient"`
}

// updateSettings applies the given fields one by one, in declaration
// order. A rejected field stops the update; earlier fields stay applied.
func (a *api) updateSettings(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req updateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	settings, err := a.Admin.Settings(ctx)
	if err == nil && req.PlatformFeeBps != nil {
		settings, err = a.Admin.SetPlatformFee(ctx, caller, *req.PlatformFeeBps)
	}
	if err == nil && req.OrganizerRoyaltyBps != nil {
		settings, err = a.Admin.SetOrganizerRoyalty(ctx, caller, *req.OrganizerRoyaltyBps)
	}
	if err == nil && req.MarketplaceFeeBps != nil {
		settings, err = a.Admin.SetMarketplaceFee(ctx, caller, *req.MarketplaceFeeBps)
	}
	if err == nil && req.FeeRecipient != nil {
		var recipient domain.Address
		if recipient, err = domain.ParseAddress(*req.FeeRecipient); err == nil {
			settings, err = a.Admin.SetFeeRecipient(ctx, caller, recipient)
		}
	}
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsView(settings))
}

type pauseRequest struct {
	Target string `json:"target"`
}

func (a *api) pause(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		var req pauseRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		settings, err := a.Admin.SetPaused(r.Context(), caller, req.Target, paused)
		if err != nil {
			writeDomainError(w, a.log, err)
			return
		}
		writeJSON(w, http.StatusOK, toSettingsView(settings))
	}
}
