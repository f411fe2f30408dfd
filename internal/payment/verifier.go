package payment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// SignatureHeader carries the processor's signature of the raw request body.
const SignatureHeader = "Stripe-Signature"

// Verifier authenticates webhook payloads against the endpoint's signing secret.
// It has no side effects; everything downstream trusts what it returns.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

// NewVerifier builds a Verifier. A zero tolerance falls back to the processor default.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance}
}

// Verify checks the signature header against payload and decodes the event.
func (v *Verifier) Verify(payload []byte, signature string) (Event, error) {
	if v.secret == "" {
		return Event{}, fmt.Errorf("%w: signing secret not configured", ErrInvalidSignature)
	}
	if strings.TrimSpace(signature) == "" {
		return Event{}, fmt.Errorf("%w: missing %s header", ErrInvalidSignature, SignatureHeader)
	}

	ev, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if out.Type != EventCheckoutSessionCompleted {
		return out, nil
	}
	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return Event{}, fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, ev.ID)
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
		return Event{}, fmt.Errorf("%w: decode checkout session: %v", ErrMalformedEvent, err)
	}
	if cs.ID == "" {
		return Event{}, fmt.Errorf("%w: checkout session without id", ErrMalformedEvent)
	}
	out.Session = sessionFromStripe(&cs)
	return out, nil
}

func sessionFromStripe(cs *stripe.CheckoutSession) *Session {
	s := &Session{
		ID:             cs.ID,
		Metadata:       cs.Metadata,
		Currency:       strings.ToUpper(string(cs.Currency)),
		PaymentStatus:  string(cs.PaymentStatus),
		AmountSubtotal: cs.AmountSubtotal,
		AmountTotal:    cs.AmountTotal,
	}
	if s.Metadata == nil {
		s.Metadata = map[string]string{}
	}
	if cs.PaymentIntent != nil {
		s.PaymentIntentID = cs.PaymentIntent.ID
	}
	if td := cs.TotalDetails; td != nil {
		s.AmountShipping = td.AmountShipping
		s.AmountTax = td.AmountTax
		s.AmountDiscount = td.AmountDiscount
	}
	if cd := cs.CustomerDetails; cd != nil {
		s.Customer.Name = cd.Name
		s.Customer.Email = cd.Email
		s.Customer.Phone = cd.Phone
		if cd.Address != nil {
			s.Customer.Address = addressFromStripe(cd.Address)
		}
	}
	// The shipping address wins over the billing one when both were collected.
	if sd := cs.ShippingDetails; sd != nil {
		if sd.Name != "" {
			s.Customer.Name = sd.Name
		}
		if sd.Phone != "" {
			s.Customer.Phone = sd.Phone
		}
		if sd.Address != nil {
			s.Customer.Address = addressFromStripe(sd.Address)
		}
	}
	return s
}

func addressFromStripe(a *stripe.Address) Address {
	return Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
