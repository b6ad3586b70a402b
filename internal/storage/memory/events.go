package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/oumaoumag/eventvex/internal/domain"
)

func (s *Store) Settings(ctx context.Context) (domain.Settings, error) {
	defer s.lock(ctx)()
	if s.st.settings == nil {
		return domain.Settings{}, domain.ErrSettingsNotFound
	}
	return *s.st.settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	defer s.lock(ctx)()
	prev := s.st.settings
	s.onRollback(ctx, func() { s.st.settings = prev })
	s.st.settings = &settings
	return nil
}

func (s *Store) InitSettings(ctx context.Context, settings domain.Settings) error {
	defer s.lock(ctx)()
	if s.st.settings == nil {
		s.onRollback(ctx, func() { s.st.settings = nil })
		s.st.settings = &settings
	}
	return nil
}

func (s *Store) CreateEvent(ctx context.Context, e domain.Event) (domain.Event, error) {
	defer s.lock(ctx)()
	s.st.nextEventID++
	e.ID = s.st.nextEventID
	s.onRollback(ctx, func() {
		delete(s.st.events, e.ID)
		s.st.nextEventID = e.ID - 1
	})
	e.Ledger = domain.LedgerAddress(e.ID)
	s.st.events[e.ID] = e.Clone()
	return e.Clone(), nil
}

func (s *Store) GetEvent(ctx context.Context, id int64) (domain.Event, error) {
	defer s.lock(ctx)()
	e, ok := s.st.events[id]
	if !ok {
		return domain.Event{}, fmt.Errorf("%w: %d", domain.ErrEventNotFound, id)
	}
	return e.Clone(), nil
}

func (s *Store) GetEventByLedger(ctx context.Context, ledger domain.Address) (domain.Event, error) {
	defer s.lock(ctx)()
	for _, e := range s.st.events {
		if e.Ledger == ledger {
			return e.Clone(), nil
		}
	}
	return domain.Event{}, fmt.Errorf("%w: ledger %s", domain.ErrEventNotFound, ledger)
}

func (s *Store) UpdateEvent(ctx context.Context, e domain.Event) error {
	defer s.lock(ctx)()
	prev, ok := s.st.events[e.ID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrEventNotFound, e.ID)
	}
	s.onRollback(ctx, func() { s.st.events[e.ID] = prev })
	s.st.events[e.ID] = e.Clone()
	return nil
}

func (s *Store) ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	defer s.lock(ctx)()
	out := make([]domain.Event, 0)
	for _, e := range s.st.events {
		if filter.Matches(e) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
