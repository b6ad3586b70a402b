package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/oumaoumag/eventvex/internal/domain"
)

func (s *Store) CreateTicket(ctx context.Context, t domain.Ticket) error {
	defer s.lock(ctx)()
	key := ticketKey{eventID: t.EventID, tokenID: t.TokenID}
	if _, ok := s.st.tickets[key]; ok {
		return fmt.Errorf("%w: seat %d", domain.ErrSeatTaken, t.Seat)
	}
	s.onRollback(ctx, func() { delete(s.st.tickets, key) })
	s.st.tickets[key] = t.Clone()
	return nil
}

func (s *Store) GetTicket(ctx context.Context, eventID, tokenID int64) (domain.Ticket, error) {
	defer s.lock(ctx)()
	t, ok := s.st.tickets[ticketKey{eventID: eventID, tokenID: tokenID}]
	if !ok {
		return domain.Ticket{}, fmt.Errorf("%w: event %d token %d", domain.ErrTicketNotFound, eventID, tokenID)
	}
	return t.Clone(), nil
}

func (s *Store) UpdateTicket(ctx context.Context, t domain.Ticket) error {
	defer s.lock(ctx)()
	key := ticketKey{eventID: t.EventID, tokenID: t.TokenID}
	prev, ok := s.st.tickets[key]
	if !ok {
		return fmt.Errorf("%w: event %d token %d", domain.ErrTicketNotFound, t.EventID, t.TokenID)
	}
	s.onRollback(ctx, func() { s.st.tickets[key] = prev })
	s.st.tickets[key] = t.Clone()
	return nil
}

func (s *Store) ListTickets(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	defer s.lock(ctx)()
	out := make([]domain.Ticket, 0)
	for _, t := range s.st.tickets {
		if filter.Matches(t) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventID != out[j].EventID {
			return out[i].EventID < out[j].EventID
		}
		return out[i].TokenID < out[j].TokenID
	})
	return out, nil
}
