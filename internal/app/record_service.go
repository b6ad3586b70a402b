package app

import (
	"context"

	"github.com/oumaoumag/eventvex/internal/domain"
)

const maxRecordPage = 500

// RecordService reads the emitted-record log.
type RecordService struct {
	store RecordStore
}

func NewRecordService(store RecordStore) *RecordService {
	return &RecordService{store: store}
}

// Records returns records with a sequence number above after, oldest first.
func (s *RecordService) Records(ctx context.Context, after int64, limit int) ([]domain.Record, error) {
	if limit <= 0 || limit > maxRecordPage {
		limit = maxRecordPage
	}
	if after < 0 {
		after = 0
	}
	return s.store.ListRecords(ctx, after, limit)
}
