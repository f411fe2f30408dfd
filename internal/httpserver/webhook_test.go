package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"bookstore/internal/service/checkout"
)

func TestStripeWebhookPassesRawBody(t *testing.T) {
	deps := testDeps()
	hook := &stubCheckout{result: checkout.Result{Stage: checkout.StageAcknowledged, OrderReference: "BK-0A1B2C3D"}}
	deps.Checkout = hook
	router := testRouter(t, deps)

	body := `{"id":"evt_1",  "type":"checkout.session.completed"}`
	rec := serve(router, http.MethodPost, "/webhooks/stripe", body, map[string]string{"Stripe-Signature": "t=1,v1=abc"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if string(hook.payload) != body || hook.signature != "t=1,v1=abc" {
		t.Fatalf("payload or signature altered: %q %q", hook.payload, hook.signature)
	}
	if !strings.Contains(rec.Body.String(), `"received":true`) || !strings.Contains(rec.Body.String(), `"orderId":"BK-0A1B2C3D"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestStripeWebhookStatusByKind(t *testing.T) {
	cases := []struct {
		kind checkout.Kind
		want int
	}{
		{checkout.KindAuthentication, http.StatusBadRequest},
		{checkout.KindValidation, http.StatusBadRequest},
		{checkout.KindConflict, http.StatusInternalServerError},
		{checkout.KindTransient, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		deps := testDeps()
		deps.Checkout = &stubCheckout{err: &checkout.Error{Stage: checkout.StageVerified, Kind: tc.kind, Err: errors.New("boom")}}
		router := testRouter(t, deps)

		rec := serve(router, http.MethodPost, "/webhooks/stripe", `{}`, nil)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.kind, tc.want, rec.Code)
		}
	}
}

func TestStripeWebhookTooLarge(t *testing.T) {
	router := testRouter(t, testDeps())

	rec := serve(router, http.MethodPost, "/webhooks/stripe", strings.Repeat("x", maxWebhookBody+1), nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}
