package http

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/oumaoumag/eventvex/internal/app"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/oumaoumag/eventvex/internal/wei"
	"github.com/sirupsen/logrus"
)

// Services bundles what the API serves. Health is optional.
type Services struct {
	Registry *app.RegistryService
	Ledger   *app.LedgerService
	Market   *app.MarketplaceService
	Admin    *app.AdminService
	Accounts *app.AccountService
	Records  *app.RecordService
	Health   func(ctx context.Context) error
}

type api struct {
	Services
	log logrus.FieldLogger
}

// NewRouter registers every route. Reads are public; writes need an
// authenticated caller, so wrap the result with Authenticate.
func NewRouter(svc Services, log logrus.FieldLogger) http.Handler {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	a := &api{Services: svc, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", HealthHandler(svc.Health))

	mux.HandleFunc("GET /events", a.listEvents)
	mux.HandleFunc("POST /events", a.createEvent)
	mux.HandleFunc("GET /events/{id}", a.getEvent)
	mux.HandleFunc("POST /events/{id}/deactivate", a.deactivateEvent)
	mux.HandleFunc("POST /events/{id}/cancel", a.cancelEvent)
	mux.HandleFunc("POST /events/{id}/withdraw", a.withdrawProceeds)

	mux.HandleFunc("GET /events/{id}/tickets", a.listEventTickets)
	mux.HandleFunc("POST /events/{id}/tickets", a.mintTickets)
	mux.HandleFunc("GET /events/{id}/tickets/{token}", a.getTicket)
	mux.HandleFunc("POST /events/{id}/tickets/{token}/resale", a.listForResale)
	mux.HandleFunc("DELETE /events/{id}/tickets/{token}/resale", a.cancelResale)
	mux.HandleFunc("POST /events/{id}/tickets/{token}/purchase", a.buyResale)
	mux.HandleFunc("POST /events/{id}/tickets/{token}/transfer", a.transferTicket)
	mux.HandleFunc("POST /events/{id}/tickets/{token}/approve", a.approveTicket)
	mux.HandleFunc("POST /events/{id}/tickets/{token}/refund", a.refundTicket)
	mux.HandleFunc("POST /events/{id}/tickets/{token}/use", a.useTicket)

	mux.HandleFunc("GET /listings", a.listListings)
	mux.HandleFunc("POST /listings", a.createListing)
	mux.HandleFunc("GET /listings/{id}", a.getListing)
	mux.HandleFunc("GET /listings/{id}/bids", a.listBids)
	mux.HandleFunc("POST /listings/{id}/bids", a.placeBid)
	mux.HandleFunc("POST /listings/{id}/buy", a.buyListing)
	mux.HandleFunc("POST /listings/{id}/end", a.endAuction)
	mux.HandleFunc("POST /listings/{id}/cancel", a.cancelListing)
	mux.HandleFunc("POST /listings/{id}/expire", a.expireListing)

	mux.HandleFunc("GET /admin/settings", a.getSettings)
	mux.HandleFunc("PATCH /admin/settings", a.updateSettings)
	mux.HandleFunc("POST /admin/pause", a.pause(true))
	mux.HandleFunc("POST /admin/unpause", a.pause(false))

	mux.HandleFunc("GET /accounts/{address}", a.getBalance)
	mux.HandleFunc("GET /accounts/{address}/tickets", a.accountTickets)
	mux.HandleFunc("POST /accounts/{address}/deposit", a.deposit)

	mux.HandleFunc("GET /records", a.listRecords)

	mux.HandleFunc("/", noRoute)
	return mux
}

// noRoute catches everything the patterns above do not match, including a
// known path with an unsupported method.
func noRoute(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, codeNotFound, "no route for "+r.Method+" "+r.URL.Path)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeInvalidID, "invalid "+name)
		return 0, false
	}
	return id, true
}

func pathTicket(w http.ResponseWriter, r *http.Request) (eventID, tokenID int64, ok bool) {
	if eventID, ok = pathID(w, r, "id"); !ok {
		return 0, 0, false
	}
	tokenID, err := strconv.ParseInt(r.PathValue("token"), 10, 64)
	if err != nil || tokenID < 0 {
		writeError(w, http.StatusBadRequest, codeInvalidID, "invalid token")
		return 0, 0, false
	}
	return eventID, tokenID, true
}

func parseAddress(w http.ResponseWriter, raw, field string) (domain.Address, bool) {
	addr, err := domain.ParseAddress(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidAddress, "invalid "+field)
		return domain.ZeroAddress, false
	}
	return addr, true
}

// amountArg parses an ether amount from a request. An empty optional
// amount is zero.
func amountArg(raw, field string, optional bool) (*big.Int, error) {
	if raw == "" && optional {
		return new(big.Int), nil
	}
	v, err := wei.ParseEther(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", domain.ErrInvalidInput, field, raw)
	}
	return v, nil
}

func queryBool(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, "invalid "+name)
		return false, false
	}
	return v, true
}

func parseDuration(w http.ResponseWriter, raw string) (time.Duration, bool) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid duration")
		return 0, false
	}
	return d, true
}
