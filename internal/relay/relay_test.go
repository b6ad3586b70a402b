package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/oumaoumag/eventvex/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu   sync.Mutex
	sent []Message
	fail error
}

func (p *fakePublisher) Publish(_ context.Context, msgs ...Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.sent = append(p.sent, msgs...)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.sent...)
}

func appendRecords(t *testing.T, s *memory.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := s.AppendRecord(context.Background(), domain.Record{
			Name:      "TicketMinted",
			EventID:   int64(i%2 + 1),
			Payload:   json.RawMessage(fmt.Sprintf(`{"tokenId":%d}`, i)),
			CreatedAt: time.Date(2026, 3, 1, 12, 0, i, 0, time.UTC),
		})
		require.NoError(t, err)
	}
}

func TestDrain_PublishesInBatchesAndAdvancesCursor(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	appendRecords(t, store, 5)
	pub := &fakePublisher{}

	r := New(store, pub, Config{Consumer: "test", Batch: 2}, nil)
	n, err := r.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	msgs := pub.messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, "1", string(msgs[0].Key))
	assert.Equal(t, "2", string(msgs[1].Key))
	assert.Equal(t, "TicketMinted", msgs[0].Name)

	var first domain.Record
	require.NoError(t, json.Unmarshal(msgs[0].Value, &first))
	assert.Equal(t, int64(1), first.Seq)
	assert.JSONEq(t, `{"tokenId":0}`, string(first.Payload))

	cursor, err := store.RecordCursor(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, int64(5), cursor)

	n, err = r.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing is sent twice")
}

func TestDrain_FailureKeepsCursor(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	appendRecords(t, store, 3)
	pub := &fakePublisher{fail: errors.New("broker down")}

	r := New(store, pub, Config{Consumer: "test", Batch: 10}, nil)
	_, err := r.Drain(ctx)
	require.Error(t, err)

	cursor, err := store.RecordCursor(ctx, "test")
	require.NoError(t, err)
	assert.Zero(t, cursor)

	pub.fail = nil
	n, err := r.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := memory.New()
	appendRecords(t, store, 2)
	pub := &fakePublisher{}
	r := New(store, pub, Config{Interval: 5 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return len(pub.messages()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
