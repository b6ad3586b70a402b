package memory

import (
	"context"

	"github.com/oumaoumag/eventvex/internal/domain"
)

func (s *Store) AppendRecord(ctx context.Context, r domain.Record) (domain.Record, error) {
	defer s.lock(ctx)()
	n := len(s.st.records)
	r.Seq = int64(n) + 1
	s.onRollback(ctx, func() { s.st.records = s.st.records[:n] })
	s.st.records = append(s.st.records, r)
	return r, nil
}

func (s *Store) ListRecords(ctx context.Context, after int64, limit int) ([]domain.Record, error) {
	defer s.lock(ctx)()
	out := make([]domain.Record, 0)
	for _, r := range s.st.records {
		if r.Seq <= after {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) RecordCursor(ctx context.Context, consumer string) (int64, error) {
	defer s.lock(ctx)()
	return s.st.cursors[consumer], nil
}

func (s *Store) SaveRecordCursor(ctx context.Context, consumer string, seq int64) error {
	defer s.lock(ctx)()
	prev, had := s.st.cursors[consumer]
	s.onRollback(ctx, func() {
		if had {
			s.st.cursors[consumer] = prev
		} else {
			delete(s.st.cursors, consumer)
		}
	})
	s.st.cursors[consumer] = seq
	return nil
}
