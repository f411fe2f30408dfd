package checkout

import (
	"context"
	"errors"
	"testing"

	"bookstore/internal/domain"
	"bookstore/internal/events"
	"bookstore/internal/payment"
	"bookstore/internal/payment/paymenttest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "whsec_test_secret"

const (
	cart1      = "3b0c7a52-6f1d-4d8e-9a27-0000000000c1"
	cart2      = "3b0c7a52-6f1d-4d8e-9a27-0000000000c2"
	absentCart = "3b0c7a52-6f1d-4d8e-9a27-0000000000ff"
	book1      = "7d3f1c4e-2a6b-4c1d-9e8f-000000000b01"
	book2      = "7d3f1c4e-2a6b-4c1d-9e8f-000000000b02"
	book3      = "7d3f1c4e-2a6b-4c1d-9e8f-000000000b03"
	variant1   = "9a1e5b7c-3d2f-4e6a-8b9c-000000000f01"
	variant2   = "9a1e5b7c-3d2f-4e6a-8b9c-000000000f02"
	variant3   = "9a1e5b7c-3d2f-4e6a-8b9c-000000000f03"
)

type harness struct {
	orch      *Orchestrator
	tx        *memTransactor
	processor *paymenttest.Processor
	codes     *seqCodes
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		tx:        newMemTransactor(),
		processor: paymenttest.NewProcessor(),
		codes:     &seqCodes{},
	}
	h.orch = NewOrchestrator(
		payment.NewVerifier(secret, 0),
		payment.NewResolver(h.processor),
		h.tx,
		NewMaterializer(h.codes, nil),
		Config{EventsTopic: "bookstore.orders"},
		nil,
		nil,
	)
	return h
}

func (h *harness) deliver(t *testing.T, eventID string, obj any) (Result, error) {
	t.Helper()
	payload := paymenttest.EventPayload(eventID, payment.EventCheckoutSessionCompleted, obj)
	return h.orch.HandleWebhook(context.Background(), payload, paymenttest.Sign(payload, secret))
}

func cartItems(n int) []domain.CartItem {
	items := make([]domain.CartItem, n)
	for i := range items {
		items[i] = domain.CartItem{ID: string(rune('a' + i)), Quantity: 1}
	}
	return items
}

func onlyOrder(t *testing.T, st *memState) (domain.Order, []domain.OrderItem) {
	t.Helper()
	require.Len(t, st.orders, 1)
	for id, o := range st.orders {
		return o, st.items[id]
	}
	return domain.Order{}, nil
}

func TestHandleWebhook_EndToEndSession(t *testing.T) {
	h := newHarness(t)
	h.tx.addCart(cart1, "u1", cartItems(2)...)
	h.processor.Items["sess_123"] = []payment.LineItem{
		paymenttest.BookLine("li_1", book1, variant1, "HARDCOVER", "Dune", 1, 1200),
		paymenttest.BookLine("li_2", book2, variant2, "PAPERBACK", "Emma", 2, 800),
	}

	res, err := h.deliver(t, "evt_1", paymenttest.CompletedSession("sess_123", "u1", cart1))
	require.NoError(t, err)
	assert.Equal(t, StageAcknowledged, res.Stage)
	assert.False(t, res.Duplicate)
	assert.EqualValues(t, 2, res.ItemsCleared)

	st := h.tx.snapshot()
	order, items := onlyOrder(t, st)
	assert.Equal(t, res.OrderReference, order.ReferenceCode)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	assert.True(t, decimal.RequireFromString("28.00").Equal(order.Total), order.Total.String())
	assert.True(t, decimal.RequireFromString("8.00").Equal(order.ShippingFee))
	assert.True(t, order.Total.Equal(order.ComputedTotal()))
	assert.Equal(t, "USD", order.Currency)
	assert.Equal(t, "pi_sess_123", order.PaymentIntentID)
	assert.Equal(t, "Ada Reader", order.Customer.Name)
	assert.Equal(t, "62701", order.Customer.PostalCode)

	require.Len(t, items, 2)
	assert.True(t, decimal.RequireFromString("12.00").Equal(items[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("4.00").Equal(items[1].UnitPrice))
	assert.True(t, decimal.RequireFromString("8.00").Equal(items[1].SubTotal))

	cart, ok := st.carts[cart1]
	require.True(t, ok, "cart row survives")
	assert.Empty(t, cart.Items)

	require.Len(t, st.events, 1)
	ev, ok := st.events[0].Payload.(events.OrderEvent)
	require.True(t, ok)
	assert.Equal(t, events.TypeOrderCreated, ev.Type)
	assert.Equal(t, order.ReferenceCode, ev.ReferenceCode)
}

func TestHandleWebhook_AtomicWhenCartClearFails(t *testing.T) {
	h := newHarness(t)
	h.tx.addCart(cart1, "u1", cartItems(1)...)
	h.tx.clearErr = errors.New("connection reset")
	h.processor.Items["sess_123"] = []payment.LineItem{
		paymenttest.BookLine("li_1", book1, variant1, "HARDCOVER", "Dune", 1, 2000),
	}

	res, err := h.deliver(t, "evt_1", paymenttest.CompletedSession("sess_123", "u1", cart1))
	require.Error(t, err)
	assert.Equal(t, StageRejected, res.Stage)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StageMaterialized, ce.Stage)
	assert.Equal(t, KindTransient, ce.Kind)

	st := h.tx.snapshot()
	assert.Empty(t, st.orders)
	assert.Empty(t, st.items)
	assert.Empty(t, st.events)
	assert.Len(t, st.carts[cart1].Items, 1)
}

func TestHandleWebhook_AtomicWhenEventEnqueueFails(t *testing.T) {
	h := newHarness(t)
	h.tx.addCart(cart1, "u1", cartItems(1)...)
	h.tx.enqueueErr = errors.New("disk full")
	h.processor.Items["sess_123"] = []payment.LineItem{
		paymenttest.BookLine("li_1", book1, variant1, "HARDCOVER", "Dune", 1, 2000),
	}

	_, err := h.deliver(t, "evt_1", paymenttest.CompletedSession("sess_123", "u1", cart1))
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))

	st := h.tx.snapshot()
	assert.Empty(t, st.orders)
	assert.Len(t, st.carts[cart1].Items, 1)
}

func TestHandleWebhook_FiltersNonBookLines(t *testing.T) {
	h := newHarness(t)
	h.tx.addCart(cart1, "u1")
	h.processor.Items["sess_mixed"] = []payment.LineItem{
		paymenttest.BookLine("li_1", book1, variant1, "HARDCOVER", "Dune", 1, 1000),
		paymenttest.FeeLine("li_fee", 300),
		paymenttest.BookLine("li_2", book2, variant2, "EBOOK", "Emma", 1, 500),
		paymenttest.BookLine("li_3", book3, variant3, "AUDIOBOOK", "Ulysses", 3, 1500),
	}
	sess := paymenttest.CompletedSession("sess_mixed", "u1", cart1)
	sess.AmountSubtotal = 3300
	sess.AmountTotal = 4100

	_, err := h.deliver(t, "evt_1", sess)
	require.NoError(t, err)

	_, items := onlyOrder(t, h.tx.snapshot())
	assert.Len(t, items, 3)
	for _, it := range items {
		assert.NotEqual(t, "Gift wrapping", it.Name)
	}
}

func TestHandleWebhook_ItemSubtotalsReconcile(t *testing.T) {
	h := newHarness(t)
	h.tx.addCart(cart1, "u1")
	h.processor.Items["sess_sum"] = []payment.LineItem{
		paymenttest.BookLine("li_1", book1, variant1, "PAPERBACK", "Dune", 1, 1000),
		paymenttest.BookLine("li_2", book2, variant2, "PAPERBACK", "Emma", 1, 1500),
	}
	sess := paymenttest.CompletedSession("sess_sum", "u1", cart1)
	sess.AmountSubtotal = 2500
	sess.AmountTotal = 3300

	_, err := h.deliver(t, "evt_1", sess)
	require.NoError(t, err)

	order, items := onlyOrder(t, h.tx.snapshot())
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.SubTotal)
	}
	assert.True(t, decimal.RequireFromString("25.00").Equal(order.SubTotal))
	assert.True(t, sum.Equal(order.SubTotal))
}

func TestHandleWebhook_DuplicateDeliveryReturnsExistingOrder(t *testing.T) {
	h := newHarness(t)
	h.tx.addCart(cart1, "u1", cartItems(1)...)
	h.processor.Items["sess_123"] = []payment.LineItem{
		paymenttest.BookLine("li_1", book1, variant1, "HARDCOVER", "Dune", 1, 2000),
	}
	sess := paymenttest.CompletedSession("sess_123", "u1", cart1)

	first, err := h.deliver(t, "evt_1", sess)
	require.NoError(t, err)

	// The buyer starts a new cart before the processor redelivers.
	h.tx.addCart(cart1, "u1", cartItems(2)...)

	second, err := h.deliver(t, "evt_1", sess)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.OrderReference, second.OrderReference)

	st := h.tx.snapshot()
	assert.Len(t, st.orders, 1)
	assert.Len(t, st.events, 1)
	assert.Len(t, st.carts[cart1].Items, 2, "redelivery must not clear the new cart")
}

func TestHandleWebhook_RegeneratesCollidingReference(t *testing.T) {
	h := newHarness(t)
	h.tx.addCart(cart1, "u1")
	h.tx.addCart(cart2, "u2")
	h.codes.codes = []string{"BK-AAAAAAAA", "BK-AAAAAAAA", "BK-BBBBBBBB"}
	h.processor.Items["sess_a"] = []payment.LineItem{paymenttest.BookLine("li_1", book1, variant1, "EBOOK", "A", 1, 2000)}
	h.processor.Items["sess_b"] = []payment.LineItem{paymenttest.BookLine("li_2", book1, variant1, "EBOOK", "A", 1, 2000)}

	first, err := h.deliver(t, "evt_a", paymenttest.CompletedSession("sess_a", "u1", cart1))
	require.NoError(t, err)
	second, err := h.deliver(t, "evt_b", paymenttest.CompletedSession("sess_b", "u2", cart2))
	require.NoError(t, err)

	assert.Equal(t, "BK-AAAAAAAA", first.OrderReference)
	assert.Equal(t, "BK-BBBBBBBB", second.OrderReference)
	assert.False(t, second.Duplicate)
}

func TestHandleWebhook_ReferenceCollisionsExhausted(t *testing.T) {
	h := newHarness(t)
	h.tx.addCart(cart1, "u1")
	h.tx.addCart(cart2, "u2")
	h.codes.codes = []string{"BK-AAAAAAAA", "BK-AAAAAAAA", "BK-AAAAAAAA", "BK-AAAAAAAA", "BK-AAAAAAAA", "BK-AAAAAAAA"}
	h.processor.Items["sess_a"] = []payment.LineItem{paymenttest.BookLine("li_1", book1, variant1, "EBOOK", "A", 1, 2000)}
	h.processor.Items["sess_b"] = []payment.LineItem{paymenttest.BookLine("li_2", book1, variant1, "EBOOK", "A", 1, 2000)}

	_, err := h.deliver(t, "evt_a", paymenttest.CompletedSession("sess_a", "u1", cart1))
	require.NoError(t, err)
	_, err = h.deliver(t, "evt_b", paymenttest.CompletedSession("sess_b", "u2", cart2))
	require.ErrorIs(t, err, ErrReferenceCollision)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestHandleWebhook_BadSignatureStopsBeforeProcessor(t *testing.T) {
	h := newHarness(t)
	payload := paymenttest.EventPayload("evt_1", payment.EventCheckoutSessionCompleted, paymenttest.CompletedSession("sess_123", "u1", cart1))

	res, err := h.orch.HandleWebhook(context.Background(), payload, paymenttest.Sign(payload, "whsec_other"))
	require.Error(t, err)
	assert.Equal(t, StageRejected, res.Stage)
	assert.Equal(t, KindAuthentication, KindOf(err))
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	assert.Zero(t, h.processor.Calls)
	assert.Zero(t, h.tx.commitCalls)
}

func TestHandleWebhook_OtherEventTypesAcknowledged(t *testing.T) {
	h := newHarness(t)
	payload := paymenttest.EventPayload("evt_9", "payment_intent.created", map[string]any{"id": "pi_1", "object": "payment_intent"})

	res, err := h.orch.HandleWebhook(context.Background(), payload, paymenttest.Sign(payload, secret))
	require.NoError(t, err)
	assert.Equal(t, StageAcknowledged, res.Stage)
	assert.Empty(t, res.OrderReference)
	assert.Zero(t, h.processor.Calls)
}

func TestHandleWebhook_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*paymenttest.SessionObject)
		lines   []payment.LineItem
		wantErr error
		stage   Stage
	}{
		{
			name:    "missing user",
			mutate:  func(s *paymenttest.SessionObject) { delete(s.Metadata, "userId") },
			wantErr: ErrMissingUserID,
			stage:   StageVerified,
		},
		{
			name:    "missing cart",
			mutate:  func(s *paymenttest.SessionObject) { s.Metadata["cartId"] = " " },
			wantErr: ErrMissingCartID,
			stage:   StageVerified,
		},
		{
			name:    "non-UUID cart",
			mutate:  func(s *paymenttest.SessionObject) { s.Metadata["cartId"] = "cart-42" },
			wantErr: ErrInvalidCartID,
			stage:   StageVerified,
		},
		{
			name:    "non-UUID book id",
			lines:   []payment.LineItem{paymenttest.BookLine("li_1", "isbn-978", "hc", "HARDCOVER", "Dune", 1, 2000)},
			wantErr: payment.ErrInvalidMetadata,
			stage:   StageVerified,
		},
		{
			name:    "three-decimal currency",
			mutate:  func(s *paymenttest.SessionObject) { s.Currency = "kwd" },
			wantErr: payment.ErrUnsupportedCurrency,
			stage:   StageVerified,
		},
		{
			name:    "book line without variant",
			lines:   []payment.LineItem{func() payment.LineItem { li := paymenttest.BookLine("li_1", book1, variant1, "EBOOK", "A", 1, 2000); delete(li.ProductMetadata, payment.MetaVariantID); return li }()},
			wantErr: payment.ErrInvalidMetadata,
			stage:   StageVerified,
		},
		{
			name:    "only fees",
			lines:   []payment.LineItem{paymenttest.FeeLine("li_fee", 2000)},
			wantErr: ErrNoBookItems,
			stage:   StageVerified,
		},
		{
			name:    "total does not add up",
			mutate:  func(s *paymenttest.SessionObject) { s.AmountTotal = 9999 },
			wantErr: ErrInvalidAmount,
			stage:   StageResolved,
		},
		{
			name:    "unknown cart",
			mutate:  func(s *paymenttest.SessionObject) { s.Metadata["cartId"] = absentCart },
			wantErr: ErrCartNotFound,
			stage:   StageMaterialized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.tx.addCart(cart1, "u1", cartItems(1)...)
			lines := tt.lines
			if lines == nil {
				lines = []payment.LineItem{paymenttest.BookLine("li_1", book1, variant1, "EBOOK", "A", 1, 2000)}
			}
			h.processor.Items["sess_v"] = lines
			sess := paymenttest.CompletedSession("sess_v", "u1", cart1)
			if tt.mutate != nil {
				tt.mutate(&sess)
			}

			_, err := h.deliver(t, "evt_v", sess)
			require.ErrorIs(t, err, tt.wantErr)
			var ce *Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, KindValidation, ce.Kind)
			assert.Equal(t, tt.stage, ce.Stage)

			st := h.tx.snapshot()
			assert.Empty(t, st.orders)
			assert.Len(t, st.carts[cart1].Items, 1)
		})
	}
}

func TestHandleWebhook_ProcessorFailureIsTransient(t *testing.T) {
	h := newHarness(t)
	h.processor.Err = errors.New("stripe: 503")

	_, err := h.deliver(t, "evt_1", paymenttest.CompletedSession("sess_123", "u1", cart1))
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestHandleWebhook_UnpaidSessionIsPending(t *testing.T) {
	h := newHarness(t)
	h.tx.addCart(cart1, "u1")
	h.processor.Items["sess_async"] = []payment.LineItem{paymenttest.BookLine("li_1", book1, variant1, "EBOOK", "A", 1, 2000)}
	sess := paymenttest.CompletedSession("sess_async", "u1", cart1)
	sess.PaymentStatus = "unpaid"

	_, err := h.deliver(t, "evt_1", sess)
	require.NoError(t, err)

	order, _ := onlyOrder(t, h.tx.snapshot())
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "unpaid", order.PaymentStatus)
}

func TestReconciler_EnforcesOwner(t *testing.T) {
	tx := newMemTransactor()
	tx.addCart(cart1, "u1", cartItems(1)...)

	err := tx.InTx(context.Background(), func(st Store) error {
		_, err := Reconciler{}.Reconcile(context.Background(), st, "u2", cart1, true)
		return err
	})
	assert.ErrorIs(t, err, ErrCartOwnership)

	err = tx.InTx(context.Background(), func(st Store) error {
		n, err := Reconciler{}.Reconcile(context.Background(), st, "u2", cart1, false)
		assert.EqualValues(t, 1, n)
		return err
	})
	require.NoError(t, err)
	assert.Empty(t, tx.snapshot().carts[cart1].Items)
}
