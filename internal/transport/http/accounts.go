package http

import (
	"net/http"
	"strconv"

	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/oumaoumag/eventvex/internal/wei"
)

func (a *api) getBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, r.PathValue("address"), "address")
	if !ok {
		return
	}
	bal, err := a.Accounts.Balance(r.Context(), addr)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceView{Address: addr.String(), Balance: wei.FormatEther(bal)})
}

type depositRequest struct {
	Amount string `json:"amount"`
}

func (a *api) deposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	addr, ok := parseAddress(w, r.PathValue("address"), "address")
	if !ok {
		return
	}
	var req depositRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := amountArg(req.Amount, "amount", false)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	bal, err := a.Accounts.Deposit(r.Context(), caller, addr, amount)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceView{Address: addr.String(), Balance: wei.FormatEther(bal)})
}

// listRecords pages the record log with ?after=<seq>&limit=<n>.
func (a *api) listRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var after int64
	var limit int
	var err error
	if raw := q.Get("after"); raw != "" {
		if after, err = strconv.ParseInt(raw, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidQuery, "invalid after")
			return
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidQuery, "invalid limit")
			return
		}
	}

	records, err := a.Records.Records(r.Context(), after, limit)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}
