// Package checkout turns a verified payment-completion webhook into an order and
// an emptied cart, exactly once per checkout session.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookstore/internal/domain"
	"bookstore/internal/events"
	"bookstore/internal/logging"
	"bookstore/internal/outbox"
	"bookstore/internal/payment"
	"go.uber.org/zap"
)

type verifier interface {
	Verify(payload []byte, signature string) (payment.Event, error)
}

type resolver interface {
	Resolve(ctx context.Context, s payment.Session) ([]payment.ResolvedItem, error)
}

// Result is what the webhook caller gets back. OrderReference is empty for
// events that do not create orders.
type Result struct {
	EventID        string
	EventType      string
	Stage          Stage
	OrderReference string
	Duplicate      bool
	ItemsCleared   int64
}

type Config struct {
	// EventsTopic is the outbox topic for order events. Empty disables them.
	EventsTopic string
	// EnforceCartOwner makes the reconciler check the cart owner against the
	// session's userId.
	EnforceCartOwner bool
}

// Orchestrator runs Verify, Resolve, Materialize and Reconcile for one webhook
// delivery. Materialize and Reconcile share a transaction.
type Orchestrator struct {
	verifier     verifier
	resolver     resolver
	tx           Transactor
	materializer *Materializer
	reconciler   Reconciler
	cfg          Config
	metrics      *Metrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewOrchestrator(v verifier, r resolver, tx Transactor, m *Materializer, cfg Config, metrics *Metrics, logger *zap.Logger) *Orchestrator {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Orchestrator{
		verifier:     v,
		resolver:     r,
		tx:           tx,
		materializer: m,
		cfg:          cfg,
		metrics:      metrics,
		logger:       logging.OrNop(logger),
		now:          time.Now,
	}
}

// HandleWebhook processes one delivery. Errors are *Error values carrying the
// stage reached and the error kind.
func (o *Orchestrator) HandleWebhook(ctx context.Context, payload []byte, signature string) (Result, error) {
	ev, err := o.verifier.Verify(payload, signature)
	if err != nil {
		kind := KindAuthentication
		if errors.Is(err, payment.ErrMalformedEvent) {
			kind = KindValidation
		}
		return Result{Stage: StageRejected}, o.rejected(reject(StageReceived, kind, err), "")
	}
	res := Result{EventID: ev.ID, EventType: ev.Type, Stage: StageVerified}

	if ev.Type != payment.EventCheckoutSessionCompleted || ev.Session == nil {
		res.Stage = StageAcknowledged
		o.metrics.Acknowledged.WithLabelValues(ev.Type).Inc()
		o.logger.Debug("webhook event acknowledged without action", zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		return res, nil
	}
	s := *ev.Session
	log := o.logger.With(zap.String("event_id", ev.ID), zap.String("session_id", s.ID))

	if s.UserID() == "" {
		return o.fail(res, reject(StageVerified, KindValidation, ErrMissingUserID), s.ID)
	}
	if s.CartID() == "" {
		return o.fail(res, reject(StageVerified, KindValidation, ErrMissingCartID), s.ID)
	}
	cartID, ok := domain.ParseID(s.CartID())
	if !ok {
		return o.fail(res, reject(StageVerified, KindValidation, fmt.Errorf("%w: %q", ErrInvalidCartID, s.CartID())), s.ID)
	}

	items, err := o.resolver.Resolve(ctx, s)
	if err != nil {
		kind := KindTransient
		if errors.Is(err, payment.ErrInvalidMetadata) || errors.Is(err, payment.ErrUnsupportedCurrency) {
			kind = KindValidation
		}
		return o.fail(res, reject(StageVerified, kind, err), s.ID)
	}
	if len(items) == 0 {
		return o.fail(res, reject(StageVerified, KindValidation, ErrNoBookItems), s.ID)
	}
	res.Stage = StageResolved

	var (
		order   *domain.Order
		created bool
		cleared int64
	)
	err = o.tx.InTx(ctx, func(st Store) error {
		var err error
		order, created, err = o.materializer.Materialize(ctx, st, s, items)
		if err != nil {
			return reject(StageResolved, materializeKind(err), err)
		}
		if !created {
			return nil
		}
		cleared, err = o.reconciler.Reconcile(ctx, st, s.UserID(), cartID, o.cfg.EnforceCartOwner)
		if err != nil {
			return reject(StageMaterialized, reconcileKind(err), err)
		}
		return o.enqueueCreated(ctx, st, order)
	})
	if err != nil {
		return o.fail(res, reject(StageReconciled, KindTransient, err), s.ID)
	}

	res.Stage = StageAcknowledged
	res.OrderReference = order.ReferenceCode
	res.Duplicate = !created
	res.ItemsCleared = cleared
	if created {
		o.metrics.Materialized.Inc()
		log.Info("order materialized",
			zap.String("reference", order.ReferenceCode),
			zap.String("status", string(order.Status)),
			zap.Int("items", len(order.Items)),
			zap.Int64("cart_items_cleared", cleared))
	} else {
		o.metrics.Duplicates.Inc()
		log.Info("duplicate checkout completion, returning existing order", zap.String("reference", order.ReferenceCode))
	}
	o.metrics.Acknowledged.WithLabelValues(ev.Type).Inc()
	return res, nil
}

func (o *Orchestrator) enqueueCreated(ctx context.Context, st Store, order *domain.Order) error {
	if o.cfg.EventsTopic == "" || st.Events == nil {
		return nil
	}
	_, err := st.Events.Enqueue(ctx, outbox.Message{
		Topic: o.cfg.EventsTopic,
		Key:   order.ID,
		Payload: events.OrderEvent{
			Type:          events.TypeOrderCreated,
			OrderID:       order.ID,
			ReferenceCode: order.ReferenceCode,
			UserID:        order.UserID,
			Status:        string(order.Status),
			Currency:      order.Currency,
			Total:         order.Total,
			ItemCount:     len(order.Items),
			OccurredAt:    o.now().UTC(),
		},
	})
	if err != nil {
		return reject(StageReconciled, KindTransient, err)
	}
	return nil
}

func (o *Orchestrator) fail(res Result, err *Error, sessionID string) (Result, error) {
	res.Stage = StageRejected
	return res, o.rejected(err, sessionID)
}

func (o *Orchestrator) rejected(err *Error, sessionID string) error {
	o.metrics.Rejections.WithLabelValues(string(err.Stage), string(err.Kind)).Inc()
	o.logger.Warn("webhook rejected",
		zap.String("session_id", sessionID),
		zap.String("stage", string(err.Stage)),
		zap.String("kind", string(err.Kind)),
		zap.Error(err.Err))
	return err
}

func materializeKind(err error) Kind {
	switch {
	case errors.Is(err, ErrMissingUserID), errors.Is(err, ErrInvalidAmount):
		return KindValidation
	case errors.Is(err, ErrReferenceCollision):
		return KindConflict
	default:
		return KindTransient
	}
}

func reconcileKind(err error) Kind {
	switch {
	case errors.Is(err, ErrCartNotFound):
		return KindValidation
	case errors.Is(err, ErrCartOwnership):
		return KindConflict
	default:
		return KindTransient
	}
}
