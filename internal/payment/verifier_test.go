package payment_test

import (
	"errors"
	"testing"
	"time"

	"bookstore/internal/payment"
	"bookstore/internal/payment/paymenttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "whsec_test_secret"

func TestVerifyCompletedSession(t *testing.T) {
	payload := paymenttest.EventPayload("evt_1", payment.EventCheckoutSessionCompleted,
		paymenttest.CompletedSession("sess_123", "u1", "c1"))
	v := payment.NewVerifier(secret, time.Minute)

	ev, err := v.Verify(payload, paymenttest.Sign(payload, secret))
	require.NoError(t, err)
	require.NotNil(t, ev.Session)

	s := ev.Session
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, "sess_123", s.ID)
	assert.Equal(t, "pi_sess_123", s.PaymentIntentID)
	assert.Equal(t, "USD", s.Currency)
	assert.Equal(t, "u1", s.UserID())
	assert.Equal(t, "c1", s.CartID())
	assert.True(t, s.Paid())
	assert.Equal(t, int64(2000), s.AmountSubtotal)
	assert.Equal(t, int64(2800), s.AmountTotal)
	assert.Equal(t, int64(800), s.AmountShipping)
	assert.Equal(t, "Ada Reader", s.Customer.Name)
	assert.Equal(t, "62701", s.Customer.Address.PostalCode)
}

func TestVerifyOtherEventTypeHasNoSession(t *testing.T) {
	payload := paymenttest.EventPayload("evt_2", "payment_intent.created", map[string]string{"id": "pi_1", "object": "payment_intent"})
	v := payment.NewVerifier(secret, 0)

	ev, err := v.Verify(payload, paymenttest.Sign(payload, secret))
	require.NoError(t, err)
	assert.Equal(t, "payment_intent.created", ev.Type)
	assert.Nil(t, ev.Session)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	payload := paymenttest.EventPayload("evt_1", payment.EventCheckoutSessionCompleted,
		paymenttest.CompletedSession("sess_123", "u1", "c1"))
	v := payment.NewVerifier(secret, 0)

	_, err := v.Verify(payload, paymenttest.Sign(payload, "whsec_other"))
	assert.True(t, errors.Is(err, payment.ErrInvalidSignature), "got %v", err)
}

func TestVerifyRejectsMissingOrMalformedHeader(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	v := payment.NewVerifier(secret, 0)

	for _, header := range []string{"", "   ", "garbage", "t=abc,v1=zz"} {
		_, err := v.Verify(payload, header)
		assert.ErrorIs(t, err, payment.ErrInvalidSignature, "header %q", header)
	}
}

func TestVerifyRejectsWithoutConfiguredSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	_, err := payment.NewVerifier("", 0).Verify(payload, paymenttest.Sign(payload, ""))
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)
}

func TestVerifyAnySingleByteMutationInvalidates(t *testing.T) {
	payload := paymenttest.EventPayload("evt_1", payment.EventCheckoutSessionCompleted,
		paymenttest.CompletedSession("sess_123", "u1", "c1"))
	header := paymenttest.Sign(payload, secret)
	v := payment.NewVerifier(secret, 0)

	_, err := v.Verify(payload, header)
	require.NoError(t, err)

	for i := range payload {
		mutated := append([]byte(nil), payload...)
		mutated[i] ^= 0x01
		_, err := v.Verify(mutated, header)
		require.ErrorIs(t, err, payment.ErrInvalidSignature, "byte %d", i)
	}
}

func TestVerifySignedButUndecodableSession(t *testing.T) {
	payload := paymenttest.EventPayload("evt_3", payment.EventCheckoutSessionCompleted, map[string]any{"object": "checkout.session"})
	v := payment.NewVerifier(secret, 0)

	_, err := v.Verify(payload, paymenttest.Sign(payload, secret))
	assert.ErrorIs(t, err, payment.ErrMalformedEvent)
}
