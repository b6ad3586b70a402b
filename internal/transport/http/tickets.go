package http

import (
	"net/http"

	"github.com/oumaoumag/eventvex/internal/app"
	"github.com/oumaoumag/eventvex/internal/domain"
)

type mintRequest struct {
	Seats       []int  `json:"seats"`
	MetadataRef string `json:"metadataRef"`
	Value       string `json:"value"`
}

func (a *api) mintTickets(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req mintRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	value, err := amountArg(req.Value, "value", false)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}

	tickets, err := a.Ledger.MintTickets(r.Context(), app.MintInput{
		EventID:     eventID,
		Buyer:       caller,
		Seats:       req.Seats,
		MetadataRef: req.MetadataRef,
		Value:       value,
	})
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapSlice(tickets, toTicketView))
}

func (a *api) listEventTickets(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	filter := domain.TicketFilter{EventID: eventID}
	if raw := r.URL.Query().Get("owner"); raw != "" {
		owner, ok := parseAddress(w, raw, "owner")
		if !ok {
			return
		}
		filter.Owner = &owner
	}
	a.writeTickets(w, r, filter)
}

func (a *api) accountTickets(w http.ResponseWriter, r *http.Request) {
	owner, ok := parseAddress(w, r.PathValue("address"), "address")
	if !ok {
		return
	}
	a.writeTickets(w, r, domain.TicketFilter{Owner: &owner})
}

func (a *api) writeTickets(w http.ResponseWriter, r *http.Request, filter domain.TicketFilter) {
	tickets, err := a.Ledger.Tickets(r.Context(), filter)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(tickets, toTicketView))
}

func (a *api) getTicket(w http.ResponseWriter, r *http.Request) {
	eventID, tokenID, ok := pathTicket(w, r)
	if !ok {
		return
	}
	ticket, err := a.Ledger.GetTicket(r.Context(), eventID, tokenID)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketView(ticket))
}

type ticketCall func(caller domain.Address, eventID, tokenID int64) (domain.Ticket, error)

// ticketAction authenticates, parses the ticket path and runs call.
func (a *api) ticketAction(w http.ResponseWriter, r *http.Request, call ticketCall) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	eventID, tokenID, ok := pathTicket(w, r)
	if !ok {
		return
	}
	ticket, err := call(caller, eventID, tokenID)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketView(ticket))
}

type priceRequest struct {
	Price string `json:"price"`
}

func (a *api) listForResale(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a.ticketAction(w, r, func(caller domain.Address, eventID, tokenID int64) (domain.Ticket, error) {
		price, err := amountArg(req.Price, "price", false)
		if err != nil {
			return domain.Ticket{}, err
		}
		return a.Ledger.ListForResale(r.Context(), caller, eventID, tokenID, price)
	})
}

func (a *api) cancelResale(w http.ResponseWriter, r *http.Request) {
	a.ticketAction(w, r, func(caller domain.Address, eventID, tokenID int64) (domain.Ticket, error) {
		return a.Ledger.CancelResale(r.Context(), caller, eventID, tokenID)
	})
}

type valueRequest struct {
	Value string `json:"value"`
}

func (a *api) buyResale(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a.ticketAction(w, r, func(caller domain.Address, eventID, tokenID int64) (domain.Ticket, error) {
		value, err := amountArg(req.Value, "value", false)
		if err != nil {
			return domain.Ticket{}, err
		}
		return a.Ledger.BuyResaleTicket(r.Context(), app.BuyResaleInput{
			EventID: eventID, TokenID: tokenID, Buyer: caller, Value: value,
		})
	})
}

type addressRequest struct {
	To       string `json:"to"`
	Operator string `json:"operator"`
}

func (a *api) transferTicket(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a.ticketAction(w, r, func(caller domain.Address, eventID, tokenID int64) (domain.Ticket, error) {
		to, err := domain.ParseAddress(req.To)
		if err != nil {
			return domain.Ticket{}, err
		}
		return a.Ledger.TransferTicket(r.Context(), caller, eventID, tokenID, to)
	})
}

// approveTicket sets the operator; an empty operator clears the approval.
func (a *api) approveTicket(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a.ticketAction(w, r, func(caller domain.Address, eventID, tokenID int64) (domain.Ticket, error) {
		operator := domain.ZeroAddress
		if req.Operator != "" {
			var err error
			if operator, err = domain.ParseAddress(req.Operator); err != nil {
				return domain.Ticket{}, err
			}
		}
		return a.Ledger.Approve(r.Context(), caller, eventID, tokenID, operator)
	})
}

func (a *api) refundTicket(w http.ResponseWriter, r *http.Request) {
	a.ticketAction(w, r, func(caller domain.Address, eventID, tokenID int64) (domain.Ticket, error) {
		return a.Ledger.RequestRefund(r.Context(), caller, eventID, tokenID)
	})
}

func (a *api) useTicket(w http.ResponseWriter, r *http.Request) {
	a.ticketAction(w, r, func(caller domain.Address, eventID, tokenID int64) (domain.Ticket, error) {
		return a.Ledger.UseTicket(r.Context(), caller, eventID, tokenID)
	})
}
