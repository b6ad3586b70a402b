package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/oumaoumag/eventvex/internal/domain"
)

// AppendRecord always runs under the write lock, so a record's sequence
// number is never visible before a smaller one.
func (s *Store) AppendRecord(ctx context.Context, r domain.Record) (domain.Record, error) {
	payload := string(r.Payload)
	if payload == "" {
		payload = "{}"
	}
	err := s.WithTx(ctx, func(ctx context.Context) error {
		return s.queryRow(ctx, `
INSERT INTO records (name, event_id, payload, created_at)
VALUES ($1, $2, $3::text::jsonb, $4)
RETURNING seq`,
			r.Name, r.EventID, payload, r.CreatedAt,
		).Scan(&r.Seq)
	})
	if err != nil {
		return domain.Record{}, fmt.Errorf("insert record: %w", err)
	}
	return r, nil
}

func (s *Store) ListRecords(ctx context.Context, after int64, limit int) ([]domain.Record, error) {
	sql := `
SELECT seq, name, event_id, payload::text, created_at
FROM records
WHERE seq > $1
ORDER BY seq`
	args := []any{after}
	if limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Record, 0)
	for rows.Next() {
		var (
			r       domain.Record
			payload string
		)
		if err := rows.Scan(&r.Seq, &r.Name, &r.EventID, &payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Payload = json.RawMessage(payload)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) RecordCursor(ctx context.Context, consumer string) (int64, error) {
	var seq int64
	err := s.queryRow(ctx, `SELECT seq FROM record_cursors WHERE consumer = $1`, consumer).Scan(&seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select cursor: %w", err)
	}
	return seq, nil
}

func (s *Store) SaveRecordCursor(ctx context.Context, consumer string, seq int64) error {
	_, err := s.exec(ctx, `
INSERT INTO record_cursors (consumer, seq) VALUES ($1, $2)
ON CONFLICT (consumer) DO UPDATE SET seq = EXCLUDED.seq, updated_at = NOW()`,
		consumer, seq,
	)
	if err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}
