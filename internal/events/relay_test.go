package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bookstore/internal/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	records []outbox.Record
	sent    map[int64]bool
}

func (s *memStore) FetchPending(_ context.Context, limit int) ([]outbox.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []outbox.Record
	for _, r := range s.records {
		if !s.sent[r.ID] && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) MarkSent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[id] = true
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	failOn string
}

func (p *recordingPublisher) Publish(_ context.Context, _, key string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if key == p.failOn {
		return errors.New("broker unavailable")
	}
	p.keys = append(p.keys, key)
	return nil
}

func newMemStore(keys ...string) *memStore {
	s := &memStore{sent: map[int64]bool{}}
	for i, k := range keys {
		s.records = append(s.records, outbox.Record{ID: int64(i + 1), Topic: "bookstore.orders", Key: k, Payload: []byte(`{}`)})
	}
	return s
}

func TestRelay_FlushPublishesInOrder(t *testing.T) {
	store := newMemStore("o1", "o2", "o3")
	pub := &recordingPublisher{}
	relay := NewRelay(store, pub, time.Second, 2, nil)

	n, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"o1", "o2", "o3"}, pub.keys)
}

func TestRelay_FlushStopsAtFailure(t *testing.T) {
	store := newMemStore("o1", "o2", "o3")
	pub := &recordingPublisher{failOn: "o2"}
	relay := NewRelay(store, pub, time.Second, 10, nil)

	n, err := relay.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, store.sent[2])
	assert.False(t, store.sent[3])
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	store := newMemStore("o1")
	pub := &recordingPublisher{}
	relay := NewRelay(store, pub, 10*time.Millisecond, 10, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.sent[1]
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
