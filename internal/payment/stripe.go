package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// Processor is the slice of the payment processor API the checkout flow needs.
type Processor interface {
	ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error)
}

// StripeProcessor talks to Stripe through an explicitly constructed client; it
// never touches the stripe package's global key.
type StripeProcessor struct {
	sessions *session.Client
}

// NewStripeProcessor builds a processor for secretKey. A nil backend uses the
// default API backend.
func NewStripeProcessor(secretKey string, backend stripe.Backend) *StripeProcessor {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &StripeProcessor{sessions: &session.Client{B: backend, Key: secretKey}}
}

// ListLineItems fetches every line item of the session with its product expanded.
func (p *StripeProcessor) ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{Session: stripe.String(sessionID)}
	params.Context = ctx
	params.Limit = stripe.Int64(100)
	params.AddExpand("data.price.product")

	var out []LineItem
	it := p.sessions.ListLineItems(params)
	for it.Next() {
		out = append(out, lineItemFromStripe(it.LineItem()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list line items for session %s: %w", sessionID, err)
	}
	return out, nil
}

func lineItemFromStripe(li *stripe.LineItem) LineItem {
	out := LineItem{
		ID:             li.ID,
		Description:    li.Description,
		Quantity:       li.Quantity,
		AmountSubtotal: li.AmountSubtotal,
		AmountTotal:    li.AmountTotal,
		Currency:       string(li.Currency),
	}
	if li.Price != nil && li.Price.Product != nil {
		p := li.Price.Product
		out.ProductID = p.ID
		out.ProductName = p.Name
		out.ProductImages = p.Images
		out.ProductMetadata = p.Metadata
	}
	return out
}
