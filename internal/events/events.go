// Package events publishes order lifecycle events to Kafka through the outbox.
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the JSON document stored in the outbox and published as the
// Kafka message value.
type OrderEvent struct {
	Type          string          `json:"type"`
	OrderID       string          `json:"order_id"`
	ReferenceCode string          `json:"reference_code"`
	UserID        string          `json:"user_id"`
	Status        string          `json:"status"`
	Previous      string          `json:"previous_status,omitempty"`
	Currency      string          `json:"currency,omitempty"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
