// Package outbox stores integration events in the same transaction as the state
// change that produced them. The relay in internal/events ships them later.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookstore/internal/db"
	"github.com/google/uuid"
)

type Record struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"event_id"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at"`
}

// Message is what producers enqueue. An empty EventID gets a random UUID.
type Message struct {
	EventID string
	Topic   string
	Key     string
	Payload any
}

// Store is the outbox table reached through q, which may be a transaction.
type Store struct {
	q db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

// Enqueue inserts m and returns its event id.
func (s *Store) Enqueue(ctx context.Context, m Message) (string, error) {
	data, err := json.Marshal(m.Payload)
	if err != nil {
		return "", fmt.Errorf("encode outbox payload: %w", err)
	}
	eventID := m.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	_, err = s.q.Exec(ctx, `INSERT INTO outbox (event_id, topic, key, payload) VALUES ($1, $2, $3, $4)`,
		eventID, m.Topic, m.Key, data)
	if err != nil {
		return "", err
	}
	return eventID, nil
}

func (s *Store) MarkSent(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx, `UPDATE outbox SET sent_at = now() WHERE id = $1`, id)
	return err
}

// FetchPending returns unsent records, oldest first.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.q.Query(ctx, `
SELECT id, event_id::text, topic, key, payload, created_at, sent_at
FROM outbox
WHERE sent_at IS NULL
ORDER BY id
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &rec.Payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
