package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/oumaoumag/eventvex/internal/domain"
)

func (s *Store) CreateListing(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	defer s.lock(ctx)()
	for _, existing := range s.st.listings {
		if existing.Status == domain.ListingStatusActive &&
			existing.EventID == l.EventID && existing.TokenID == l.TokenID {
			return domain.Listing{}, fmt.Errorf("%w: token %d", domain.ErrTicketListed, l.TokenID)
		}
	}
	s.st.nextListingID++
	l.ID = s.st.nextListingID
	s.onRollback(ctx, func() {
		delete(s.st.listings, l.ID)
		s.st.nextListingID = l.ID - 1
	})
	s.st.listings[l.ID] = l.Clone()
	return l.Clone(), nil
}

func (s *Store) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	defer s.lock(ctx)()
	l, ok := s.st.listings[id]
	if !ok {
		return domain.Listing{}, fmt.Errorf("%w: %d", domain.ErrListingNotFound, id)
	}
	return l.Clone(), nil
}

func (s *Store) UpdateListing(ctx context.Context, l domain.Listing) error {
	defer s.lock(ctx)()
	prev, ok := s.st.listings[l.ID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrListingNotFound, l.ID)
	}
	s.onRollback(ctx, func() { s.st.listings[l.ID] = prev })
	s.st.listings[l.ID] = l.Clone()
	return nil
}

func (s *Store) ListListings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	defer s.lock(ctx)()
	out := make([]domain.Listing, 0)
	for _, l := range s.st.listings {
		if filter.Matches(l) {
			out = append(out, l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AddBid(ctx context.Context, b domain.Bid) error {
	defer s.lock(ctx)()
	if _, ok := s.st.listings[b.ListingID]; !ok {
		return fmt.Errorf("%w: %d", domain.ErrListingNotFound, b.ListingID)
	}
	b.Amount = domain.CloneAmount(b.Amount)
	n := len(s.st.bids[b.ListingID])
	s.onRollback(ctx, func() {
		if n == 0 {
			delete(s.st.bids, b.ListingID)
			return
		}
		s.st.bids[b.ListingID] = s.st.bids[b.ListingID][:n]
	})
	s.st.bids[b.ListingID] = append(s.st.bids[b.ListingID], b)
	return nil
}

func (s *Store) ListBids(ctx context.Context, listingID int64) ([]domain.Bid, error) {
	defer s.lock(ctx)()
	bids := s.st.bids[listingID]
	out := make([]domain.Bid, 0, len(bids))
	for _, b := range bids {
		b.Amount = domain.CloneAmount(b.Amount)
		out = append(out, b)
	}
	return out, nil
}
