package access

import (
	"context"
	"sync"

	"github.com/oumaoumag/eventvex/internal/domain"
)

// Directory is an in-process Manager. Unknown addresses are Active with no
// roles.
type Directory struct {
	mu       sync.RWMutex
	statuses map[domain.Address]Status
	roles    map[domain.Address]map[Role]bool
}

func NewDirectory() *Directory {
	return &Directory{
		statuses: make(map[domain.Address]Status),
		roles:    make(map[domain.Address]map[Role]bool),
	}
}

func (d *Directory) HasRole(_ context.Context, role Role, addr domain.Address) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.roles[addr][role], nil
}

func (d *Directory) CanCreateEvents(_ context.Context, addr domain.Address) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return canCreate(d.statusLocked(addr), d.roles[addr]), nil
}

func (d *Directory) CanPurchaseTickets(_ context.Context, addr domain.Address) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return canPurchase(d.statusLocked(addr)), nil
}

func (d *Directory) Grant(_ context.Context, addr domain.Address, role Role) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.roles[addr] == nil {
		d.roles[addr] = make(map[Role]bool)
	}
	d.roles[addr][role] = true
	return nil
}

func (d *Directory) Revoke(_ context.Context, addr domain.Address, role Role) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.roles[addr], role)
	return nil
}

func (d *Directory) SetStatus(_ context.Context, addr domain.Address, status Status) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses[addr] = status
	return nil
}

func (d *Directory) statusLocked(addr domain.Address) Status {
	if st, ok := d.statuses[addr]; ok {
		return st
	}
	return StatusActive
}
