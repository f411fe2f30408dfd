package events

import (
	"context"
	"time"

	"bookstore/internal/logging"
	"bookstore/internal/outbox"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

type pendingStore interface {
	FetchPending(ctx context.Context, limit int) ([]outbox.Record, error)
	MarkSent(ctx context.Context, id int64) error
}

// Relay ships outbox records to a Publisher. Delivery is at-least-once: a record
// published but not yet marked sent is published again on the next pass.
type Relay struct {
	store     pendingStore
	publisher Publisher
	interval  time.Duration
	batch     int
	logger    *zap.Logger
}

func NewRelay(store pendingStore, publisher Publisher, interval time.Duration, batch int, logger *zap.Logger) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	return &Relay{store: store, publisher: publisher, interval: interval, batch: batch, logger: logging.OrNop(logger)}
}

// Run polls until ctx is canceled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", zap.Duration("interval", r.interval), zap.Int("batch", r.batch))
	for {
		if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("outbox relay pass failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Flush publishes one batch and returns how many records were marked sent. It
// stops at the first publish failure so ordering per key is preserved.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	records, err := r.store.FetchPending(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, rec := range records {
		if err := r.publisher.Publish(ctx, rec.Topic, rec.Key, rec.Payload); err != nil {
			return sent, err
		}
		if err := r.store.MarkSent(ctx, rec.ID); err != nil {
			return sent, err
		}
		sent++
		r.logger.Debug("outbox record published", zap.Int64("id", rec.ID), zap.String("event_id", rec.EventID), zap.String("topic", rec.Topic))
	}
	return sent, nil
}
