package http

import (
	"context"
	"net/http"
	"time"

	"github.com/oumaoumag/eventvex/internal/app"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/oumaoumag/eventvex/internal/wei"
)

type createEventRequest struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	EventDate      time.Time `json:"eventDate"`
	TicketPrice    string    `json:"ticketPrice"`
	MaxTickets     int       `json:"maxTickets"`
	MaxResalePrice string    `json:"maxResalePrice"`
}

func (a *api) createEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req createEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	price, err := amountArg(req.TicketPrice, "ticketPrice", false)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	resaleCap, err := amountArg(req.MaxResalePrice, "maxResalePrice", true)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}

	event, err := a.Registry.CreateEvent(r.Context(), app.CreateEventInput{
		Organizer:      caller,
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		EventDate:      req.EventDate,
		TicketPrice:    price,
		MaxTickets:     req.MaxTickets,
		MaxResalePrice: resaleCap,
	})
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventView(event))
}

// listEvents serves ?organizer=0x.., ?active=true and ?upcoming=true; the
// first one given wins.
func (a *api) listEvents(w http.ResponseWriter, r *http.Request) {
	var (
		events []domain.Event
		err    error
	)
	upcoming, ok := queryBool(w, r, "upcoming")
	if !ok {
		return
	}
	active, ok := queryBool(w, r, "active")
	if !ok {
		return
	}

	switch raw := r.URL.Query().Get("organizer"); {
	case raw != "":
		organizer, ok := parseAddress(w, raw, "organizer")
		if !ok {
			return
		}
		events, err = a.Registry.OrganizerEvents(r.Context(), organizer)
	case upcoming:
		events, err = a.Registry.UpcomingEvents(r.Context())
	case active:
		events, err = a.Registry.ActiveEvents(r.Context())
	default:
		events, err = a.Registry.Events(r.Context())
	}
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(events, toEventView))
}

func (a *api) getEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	event, err := a.Registry.GetEvent(r.Context(), id)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventView(event))
}

func (a *api) deactivateEvent(w http.ResponseWriter, r *http.Request) {
	a.eventAction(w, r, a.Registry.DeactivateEvent)
}

func (a *api) cancelEvent(w http.ResponseWriter, r *http.Request) {
	a.eventAction(w, r, a.Ledger.CancelEvent)
}

func (a *api) eventAction(w http.ResponseWriter, r *http.Request, do func(ctx context.Context, actor domain.Address, eventID int64) (domain.Event, error)) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	event, err := do(r.Context(), caller, id)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventView(event))
}

func (a *api) withdrawProceeds(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	shares, err := a.Ledger.WithdrawProceeds(r.Context(), caller, id)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawalView{
		Amount:        wei.FormatEther(shares.Remainder),
		PlatformShare: wei.FormatEther(shares.Platform),
	})
}
