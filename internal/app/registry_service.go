package app

import (
	"context"
	"fmt"
	"math/big"
	"time"
	"unicode/utf8"

	"github.com/oumaoumag/eventvex/internal/access"
	"github.com/oumaoumag/eventvex/internal/clock"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/oumaoumag/eventvex/internal/fees"
	"github.com/sirupsen/logrus"
)

// RegistryService creates events and answers event queries.
type RegistryService struct {
	core
}

func NewRegistryService(store Store, oracle access.Oracle, clk clock.Clock, opts ...Option) *RegistryService {
	return &RegistryService{core: newCore(store, oracle, clk, opts)}
}

type CreateEventInput struct {
	Organizer   domain.Address
	Title       string
	Description string
	Location    string
	EventDate   time.Time
	TicketPrice *big.Int
	MaxTickets  int
	// MaxResalePrice defaults to the highest allowed resale price when nil or zero.
	MaxResalePrice *big.Int
}

func (s *RegistryService) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	if err := s.require(ctx, in.Organizer, access.CapCreateEvents); err != nil {
		return domain.Event{}, err
	}
	now := s.clock.Now()
	maxResale, err := s.validateEvent(in, now)
	if err != nil {
		return domain.Event{}, err
	}

	var created domain.Event
	err = s.store.WithTx(ctx, func(txCtx context.Context) error {
		settings, err := s.settings(txCtx)
		if err != nil {
			return err
		}

		created, err = s.store.CreateEvent(txCtx, domain.Event{
			Organizer:      in.Organizer,
			Title:          in.Title,
			Description:    in.Description,
			Location:       in.Location,
			EventDate:      in.EventDate.UTC(),
			TicketPrice:    domain.CloneAmount(in.TicketPrice),
			MaxTickets:     in.MaxTickets,
			MaxResalePrice: maxResale,
			IsActive:       true,
			CreatedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("create event: %w", err)
		}

		settings.TotalEvents++
		settings.ActiveEvents++
		if err := s.store.SaveSettings(txCtx, settings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}

		return s.emit(txCtx, created.ID, domain.EventCreated{
			EventID:     created.ID,
			Organizer:   created.Organizer,
			ContractRef: created.Ledger,
			Title:       created.Title,
			EventDate:   created.EventDate,
			TicketPrice: created.TicketPrice,
			MaxTickets:  created.MaxTickets,
		})
	})
	if err != nil {
		return domain.Event{}, err
	}

	s.log.WithFields(logrus.Fields{
		"event_id":  created.ID,
		"organizer": created.Organizer.String(),
		"ledger":    created.Ledger.String(),
	}).Info("event created")
	return created, nil
}

func (s *RegistryService) validateEvent(in CreateEventInput, now time.Time) (*big.Int, error) {
	lim := s.limits
	switch {
	case in.Title == "":
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	case utf8.RuneCountInString(in.Title) > lim.MaxTitleLen:
		return nil, fmt.Errorf("%w: title longer than %d", domain.ErrInvalidInput, lim.MaxTitleLen)
	case utf8.RuneCountInString(in.Description) > lim.MaxDescriptionLen:
		return nil, fmt.Errorf("%w: description longer than %d", domain.ErrInvalidInput, lim.MaxDescriptionLen)
	case utf8.RuneCountInString(in.Location) > lim.MaxLocationLen:
		return nil, fmt.Errorf("%w: location longer than %d", domain.ErrInvalidInput, lim.MaxLocationLen)
	case in.TicketPrice == nil || in.TicketPrice.Sign() <= 0:
		return nil, fmt.Errorf("%w: ticket price must be positive", domain.ErrInvalidInput)
	case in.MaxTickets < 1 || in.MaxTickets > lim.MaxTicketsPerEvent:
		return nil, fmt.Errorf("%w: max tickets must be within [1, %d]", domain.ErrInvalidInput, lim.MaxTicketsPerEvent)
	case !in.EventDate.After(now):
		return nil, fmt.Errorf("%w: event date must be in the future", domain.ErrInvalidInput)
	}

	ceiling := fees.Of(in.TicketPrice, lim.MaxResaleBps)
	if in.MaxResalePrice == nil || in.MaxResalePrice.Sign() == 0 {
		return ceiling, nil
	}
	floor := fees.Of(in.TicketPrice, lim.MinResaleBps)
	if in.MaxResalePrice.Cmp(floor) < 0 || in.MaxResalePrice.Cmp(ceiling) > 0 {
		return nil, fmt.Errorf("%w: max resale price must be within [%s, %s]", domain.ErrInvalidInput, floor, ceiling)
	}
	return domain.CloneAmount(in.MaxResalePrice), nil
}

// DeactivateEvent hides an event from the active listings. Repeating it is
// a no-op.
func (s *RegistryService) DeactivateEvent(ctx context.Context, actor domain.Address, eventID int64) (domain.Event, error) {
	var result domain.Event
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.store.GetEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		if err := s.requireOrganizerOr(txCtx, actor, event, access.CapAdminister); err != nil {
			return err
		}
		result = event
		if !event.IsActive {
			return nil
		}

		settings, err := s.settings(txCtx)
		if err != nil {
			return err
		}
		event.IsActive = false
		if err := s.store.UpdateEvent(txCtx, event); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		if settings.ActiveEvents > 0 {
			settings.ActiveEvents--
		}
		if err := s.store.SaveSettings(txCtx, settings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		result = event
		return s.emit(txCtx, event.ID, domain.EventDeactivated{EventID: event.ID, By: actor})
	})
	if err != nil {
		return domain.Event{}, err
	}
	return result, nil
}

func (s *RegistryService) GetEvent(ctx context.Context, eventID int64) (domain.Event, error) {
	return s.store.GetEvent(ctx, eventID)
}

// Events returns every event, including deactivated and cancelled ones.
func (s *RegistryService) Events(ctx context.Context) ([]domain.Event, error) {
	return s.store.ListEvents(ctx, domain.EventFilter{})
}

func (s *RegistryService) OrganizerEvents(ctx context.Context, organizer domain.Address) ([]domain.Event, error) {
	return s.store.ListEvents(ctx, domain.EventFilter{Organizer: &organizer})
}

func (s *RegistryService) ActiveEvents(ctx context.Context) ([]domain.Event, error) {
	return s.store.ListEvents(ctx, domain.EventFilter{ActiveOnly: true})
}

// UpcomingEvents returns active events dated strictly after now.
func (s *RegistryService) UpcomingEvents(ctx context.Context) ([]domain.Event, error) {
	now := s.clock.Now()
	return s.store.ListEvents(ctx, domain.EventFilter{ActiveOnly: true, StartsAfter: &now})
}
