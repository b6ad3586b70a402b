// Package access answers capability questions about addresses. Profiles
// and roles are owned by an external registry; the core only reads them,
// and reads them again on every gated call.
package access

import (
	"context"
	"fmt"

	"github.com/oumaoumag/eventvex/internal/domain"
)

type Role string

const (
	RoleOrganizer         Role = "organizer"
	RoleVerifiedOrganizer Role = "verified_organizer"
	RoleModerator         Role = "moderator"
	RoleAdmin             Role = "admin"
	RolePauser            Role = "pauser"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOrganizer, RoleVerifiedOrganizer, RoleModerator, RoleAdmin, RolePauser:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, s)
}

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusBanned    Status = "banned"
)

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusSuspended, StatusBanned:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, s)
}

// Oracle is the consumed access-control interface.
type Oracle interface {
	HasRole(ctx context.Context, role Role, addr domain.Address) (bool, error)
	CanCreateEvents(ctx context.Context, addr domain.Address) (bool, error)
	CanPurchaseTickets(ctx context.Context, addr domain.Address) (bool, error)
}

// Manager is an Oracle whose profiles can be administered. The bootstrap
// code uses it to seed configured admins.
type Manager interface {
	Oracle
	Grant(ctx context.Context, addr domain.Address, role Role) error
	Revoke(ctx context.Context, addr domain.Address, role Role) error
	SetStatus(ctx context.Context, addr domain.Address, status Status) error
}

// Capability is what a gated operation asks for.
type Capability int

const (
	CapCreateEvents Capability = iota + 1
	CapPurchaseTickets
	CapModerate
	CapAdminister
	CapPause
)

func (c Capability) String() string {
	switch c {
	case CapCreateEvents:
		return "create_events"
	case CapPurchaseTickets:
		return "purchase_tickets"
	case CapModerate:
		return "moderate"
	case CapAdminister:
		return "administer"
	case CapPause:
		return "pause"
	default:
		return "unknown"
	}
}

// Require returns nil when actor holds capability. A false answer and an
// oracle failure both become domain.ErrUnauthorized.
func Require(ctx context.Context, oracle Oracle, actor domain.Address, capability Capability) error {
	ok, err := Check(ctx, oracle, actor, capability)
	if err != nil {
		return fmt.Errorf("%w: %s check failed: %v", domain.ErrUnauthorized, capability, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s lacks %s", domain.ErrUnauthorized, actor, capability)
	}
	return nil
}

// Check answers a capability question without turning it into an error.
func Check(ctx context.Context, oracle Oracle, actor domain.Address, capability Capability) (bool, error) {
	if oracle == nil {
		return false, fmt.Errorf("no access oracle configured")
	}
	if actor.IsZero() {
		return false, nil
	}
	switch capability {
	case CapCreateEvents:
		return oracle.CanCreateEvents(ctx, actor)
	case CapPurchaseTickets:
		return oracle.CanPurchaseTickets(ctx, actor)
	case CapModerate:
		return anyRole(ctx, oracle, actor, RoleModerator, RoleAdmin)
	case CapAdminister:
		return anyRole(ctx, oracle, actor, RoleAdmin)
	case CapPause:
		return anyRole(ctx, oracle, actor, RolePauser, RoleAdmin)
	default:
		return false, fmt.Errorf("unknown capability %d", capability)
	}
}

func anyRole(ctx context.Context, oracle Oracle, actor domain.Address, roles ...Role) (bool, error) {
	for _, role := range roles {
		ok, err := oracle.HasRole(ctx, role, actor)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Profile rules shared by every Manager implementation.

func canCreate(status Status, roles map[Role]bool) bool {
	if status != StatusActive {
		return false
	}
	return roles[RoleOrganizer] || roles[RoleVerifiedOrganizer] || roles[RoleAdmin]
}

func canPurchase(status Status) bool {
	return status == StatusActive
}
