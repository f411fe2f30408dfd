// Package paymenttest provides a scripted payment processor and signed webhook
// payloads for tests.
package paymenttest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"bookstore/internal/payment"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Processor serves line items from memory.
type Processor struct {
	mu    sync.Mutex
	Items map[string][]payment.LineItem
	Err   error
	Calls int
}

func NewProcessor() *Processor {
	return &Processor{Items: make(map[string][]payment.LineItem)}
}

func (p *Processor) ListLineItems(_ context.Context, sessionID string) ([]payment.LineItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Items[sessionID], nil
}

// BookLine builds a processor line item for a catalog book.
func BookLine(id, bookID, variantID, format, name string, qty, amount int64) payment.LineItem {
	return payment.LineItem{
		ID:             id,
		Description:    name,
		Quantity:       qty,
		AmountSubtotal: amount,
		AmountTotal:    amount,
		Currency:       "usd",
		ProductID:      "prod_" + id,
		ProductName:    name,
		ProductImages:  []string{"https://img.example.com/" + bookID + ".jpg"},
		ProductMetadata: map[string]string{
			payment.MetaType:      payment.ProductTypeBook,
			payment.MetaBookID:    bookID,
			payment.MetaVariantID: variantID,
			payment.MetaFormat:    format,
		},
	}
}

// FeeLine builds a non-catalog processor charge.
func FeeLine(id string, amount int64) payment.LineItem {
	return payment.LineItem{
		ID:              id,
		Description:     "Gift wrapping",
		Quantity:        1,
		AmountSubtotal:  amount,
		AmountTotal:     amount,
		Currency:        "usd",
		ProductMetadata: map[string]string{payment.MetaType: "fee"},
	}
}

// SessionObject is the JSON shape of a checkout session inside an event.
type SessionObject struct {
	ID             string            `json:"id"`
	Object         string            `json:"object"`
	AmountSubtotal int64             `json:"amount_subtotal"`
	AmountTotal    int64             `json:"amount_total"`
	Currency       string            `json:"currency"`
	PaymentStatus  string            `json:"payment_status"`
	PaymentIntent  string            `json:"payment_intent,omitempty"`
	Metadata       map[string]string `json:"metadata"`
	TotalDetails   map[string]int64  `json:"total_details,omitempty"`
	Customer       map[string]any    `json:"customer_details,omitempty"`
}

// CompletedSession is the `sess_123` fixture: $20.00 of books plus $8.00 shipping.
func CompletedSession(id, userID, cartID string) SessionObject {
	return SessionObject{
		ID:             id,
		Object:         "checkout.session",
		AmountSubtotal: 2000,
		AmountTotal:    2800,
		Currency:       "usd",
		PaymentStatus:  "paid",
		PaymentIntent:  "pi_" + id,
		Metadata:       map[string]string{"userId": userID, "cartId": cartID},
		TotalDetails:   map[string]int64{"amount_shipping": 800, "amount_tax": 0, "amount_discount": 0},
		Customer: map[string]any{
			"name":  "Ada Reader",
			"email": "ada@example.com",
			"phone": "+15550100",
			"address": map[string]string{
				"line1":       "1 Library Way",
				"city":        "Springfield",
				"state":       "IL",
				"postal_code": "62701",
				"country":     "US",
			},
		},
	}
}

// EventPayload wraps obj in a processor event envelope.
func EventPayload(eventID, eventType string, obj any) []byte {
	body, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"api_version": "2023-10-16",
		"created":     time.Now().Unix(),
		"type":        eventType,
		"data":        map[string]any{"object": obj},
	})
	if err != nil {
		panic(err)
	}
	return body
}

// Sign returns the signature header for payload under secret.
func Sign(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}
