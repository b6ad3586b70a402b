package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/oumaoumag/eventvex/internal/access"
	"github.com/oumaoumag/eventvex/internal/clock"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/sirupsen/logrus"
)

// core carries the dependencies every service shares.
type core struct {
	store  Store
	oracle access.Oracle
	clock  clock.Clock
	log    logrus.FieldLogger
	limits domain.Limits
	guard  PayeeGuard
}

// Option configures a service.
type Option func(*core)

// WithLogger sets the logger used for settlement lines.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *core) {
		if l != nil {
			c.log = l
		}
	}
}

// WithLimits overrides the protocol constants.
func WithLimits(l domain.Limits) Option {
	return func(c *core) {
		c.limits = l
	}
}

// WithPayeeGuard installs the check asked before any address is credited.
func WithPayeeGuard(g PayeeGuard) Option {
	return func(c *core) {
		if g != nil {
			c.guard = g
		}
	}
}

func newCore(store Store, oracle access.Oracle, clk clock.Clock, opts []Option) core {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := core{
		store:  store,
		oracle: oracle,
		clock:  clk,
		log:    discard,
		limits: domain.DefaultLimits(),
		guard:  acceptAll{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// emit appends a record inside the caller's transaction.
func (c *core) emit(ctx context.Context, eventID int64, p domain.RecordPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p.RecordName(), err)
	}
	_, err = c.store.AppendRecord(ctx, domain.Record{
		Name:      p.RecordName(),
		EventID:   eventID,
		Payload:   body,
		CreatedAt: c.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("append %s: %w", p.RecordName(), err)
	}
	return nil
}

// require checks a capability against the oracle.
func (c *core) require(ctx context.Context, actor domain.Address, capability access.Capability) error {
	return access.Require(ctx, c.oracle, actor, capability)
}

// requireOrganizerOr lets the event's organizer through and sends everyone
// else to the oracle.
func (c *core) requireOrganizerOr(ctx context.Context, actor domain.Address, event domain.Event, capability access.Capability) error {
	if !actor.IsZero() && actor == event.Organizer {
		return nil
	}
	return c.require(ctx, actor, capability)
}

func (c *core) settings(ctx context.Context) (domain.Settings, error) {
	s, err := c.store.Settings(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}
