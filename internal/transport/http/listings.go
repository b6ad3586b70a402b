package http

import (
	"net/http"
	"strconv"

	"github.com/oumaoumag/eventvex/internal/app"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/oumaoumag/eventvex/internal/wei"
)

type createListingRequest struct {
	Kind     string `json:"kind"`
	Ledger   string `json:"ledger"`
	TokenID  int64  `json:"tokenId"`
	Price    string `json:"price"`
	Duration string `json:"duration"`
}

func (a *api) createListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req createListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ledger, ok := parseAddress(w, req.Ledger, "ledger")
	if !ok {
		return
	}
	duration, ok := parseDuration(w, req.Duration)
	if !ok {
		return
	}
	price, err := amountArg(req.Price, "price", false)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}

	in := app.ListInput{Seller: caller, Ledger: ledger, TokenID: req.TokenID, Price: price, Duration: duration}
	var listing domain.Listing
	switch domain.ListingKind(req.Kind) {
	case domain.ListingKindFixedPrice, "":
		listing, err = a.Market.ListTicket(r.Context(), in)
	case domain.ListingKindAuction:
		listing, err = a.Market.ListTicketForAuction(r.Context(), in)
	default:
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "kind must be fixed_price or auction")
		return
	}
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingView(listing))
}

// listListings serves ?status=, ?seller= and ?event=.
func (a *api) listListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ListingFilter{Status: domain.ListingStatus(q.Get("status"))}
	if raw := q.Get("seller"); raw != "" {
		seller, ok := parseAddress(w, raw, "seller")
		if !ok {
			return
		}
		filter.Seller = &seller
	}
	if raw := q.Get("event"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidQuery, "invalid event")
			return
		}
		filter.EventID = id
	}

	listings, err := a.Market.Listings(r.Context(), filter)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(listings, toListingView))
}

func (a *api) getListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	listing, err := a.Market.GetListing(r.Context(), id)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingView(listing))
}

func (a *api) listBids(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bids, err := a.Market.Bids(r.Context(), id)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(bids, func(b domain.Bid) bidView {
		return bidView{Bidder: b.Bidder.String(), Amount: wei.FormatEther(b.Amount), PlacedAt: b.PlacedAt}
	}))
}

type listingCall func(caller domain.Address, listingID int64) (domain.Listing, error)

func (a *api) listingAction(w http.ResponseWriter, r *http.Request, call listingCall) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	listing, err := call(caller, id)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingView(listing))
}

func (a *api) placeBid(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a.listingAction(w, r, func(caller domain.Address, id int64) (domain.Listing, error) {
		value, err := amountArg(req.Value, "value", false)
		if err != nil {
			return domain.Listing{}, err
		}
		return a.Market.PlaceBid(r.Context(), app.BidInput{ListingID: id, Bidder: caller, Value: value})
	})
}

func (a *api) buyListing(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a.listingAction(w, r, func(caller domain.Address, id int64) (domain.Listing, error) {
		value, err := amountArg(req.Value, "value", false)
		if err != nil {
			return domain.Listing{}, err
		}
		return a.Market.BuyTicket(r.Context(), app.BuyInput{ListingID: id, Buyer: caller, Value: value})
	})
}

// endAuction and expireListing settle on behalf of anyone holding a token.
func (a *api) endAuction(w http.ResponseWriter, r *http.Request) {
	a.listingAction(w, r, func(_ domain.Address, id int64) (domain.Listing, error) {
		return a.Market.EndAuction(r.Context(), id)
	})
}

func (a *api) expireListing(w http.ResponseWriter, r *http.Request) {
	a.listingAction(w, r, func(_ domain.Address, id int64) (domain.Listing, error) {
		return a.Market.ExpireListing(r.Context(), id)
	})
}

func (a *api) cancelListing(w http.ResponseWriter, r *http.Request) {
	a.listingAction(w, r, func(caller domain.Address, id int64) (domain.Listing, error) {
		return a.Market.CancelListing(r.Context(), caller, id)
	})
}
