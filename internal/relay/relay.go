// Package relay forwards the emitted-record log to a message broker. It
// keeps its position in the store, so a restart resumes after the last
// published record and delivery is at least once.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/oumaoumag/eventvex/internal/app"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/sirupsen/logrus"
)

type Relay struct {
	store    app.RecordStore
	pub      Publisher
	consumer string
	batch    int
	interval time.Duration
	log      logrus.FieldLogger
}

type Config struct {
	Consumer string
	Batch    int
	Interval time.Duration
}

func New(store app.RecordStore, pub Publisher, cfg Config, log logrus.FieldLogger) *Relay {
	if cfg.Consumer == "" {
		cfg.Consumer = "relay"
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Relay{
		store:    store,
		pub:      pub,
		consumer: cfg.Consumer,
		batch:    cfg.Batch,
		interval: cfg.Interval,
		log:      log.WithField("consumer", cfg.Consumer),
	}
}

// Run drains the log every interval until ctx is done. Publish failures
// are logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if n, err := r.Drain(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			r.log.WithError(err).Warn("relay drain failed")
		} else if n > 0 {
			r.log.WithField("count", n).Debug("records relayed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Drain publishes every record after the stored cursor and returns how
// many were sent.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	sent := 0
	for {
		after, err := r.store.RecordCursor(ctx, r.consumer)
		if err != nil {
			return sent, fmt.Errorf("load cursor: %w", err)
		}
		records, err := r.store.ListRecords(ctx, after, r.batch)
		if err != nil {
			return sent, fmt.Errorf("list records: %w", err)
		}
		if len(records) == 0 {
			return sent, nil
		}

		msgs := make([]Message, 0, len(records))
		for _, rec := range records {
			msg, err := encode(rec)
			if err != nil {
				return sent, err
			}
			msgs = append(msgs, msg)
		}
		if err := r.pub.Publish(ctx, msgs...); err != nil {
			return sent, fmt.Errorf("publish: %w", err)
		}
		last := records[len(records)-1].Seq
		if err := r.store.SaveRecordCursor(ctx, r.consumer, last); err != nil {
			return sent, fmt.Errorf("save cursor: %w", err)
		}
		sent += len(records)

		if len(records) < r.batch {
			return sent, nil
		}
	}
}

func encode(rec domain.Record) (Message, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return Message{}, fmt.Errorf("encode record %d: %w", rec.Seq, err)
	}
	return Message{
		Key:     []byte(strconv.FormatInt(rec.EventID, 10)),
		Value:   value,
		Name:    rec.Name,
		Created: rec.CreatedAt,
	}, nil
}
