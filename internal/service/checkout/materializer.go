package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore/internal/domain"
	"bookstore/internal/logging"
	"bookstore/internal/payment"
	"go.uber.org/zap"
)

const defaultCodeAttempts = 5

type codeGenerator interface {
	New() (string, error)
}

// Materializer writes the order and its items for a completed session.
type Materializer struct {
	codes    codeGenerator
	attempts int
	logger   *zap.Logger
}

func NewMaterializer(codes codeGenerator, logger *zap.Logger) *Materializer {
	return &Materializer{codes: codes, attempts: defaultCodeAttempts, logger: logging.OrNop(logger)}
}

// Materialize creates the order for s inside st. When an order for the session
// already exists it is returned with created=false and nothing is written.
func (m *Materializer) Materialize(ctx context.Context, st Store, s payment.Session, items []payment.ResolvedItem) (*domain.Order, bool, error) {
	if s.UserID() == "" {
		return nil, false, ErrMissingUserID
	}
	if existing, err := m.existing(ctx, st, s.ID); existing != nil || err != nil {
		return existing, false, err
	}

	draft, err := orderFromSession(s)
	if err != nil {
		return nil, false, err
	}
	orderItems := orderItemsFrom(items)

	for attempt := 1; ; attempt++ {
		code, err := m.codes.New()
		if err != nil {
			return nil, false, fmt.Errorf("generate reference code: %w", err)
		}
		draft.ReferenceCode = code

		inserted, err := st.Orders.Insert(ctx, draft)
		if err == nil {
			if err := st.Orders.InsertItems(ctx, inserted.ID, orderItems); err != nil {
				return nil, false, err
			}
			inserted.Items = orderItems
			if !inserted.ItemsSubTotal().Equal(inserted.SubTotal) {
				m.logger.Warn("order items do not add up to session subtotal",
					zap.String("reference", inserted.ReferenceCode),
					zap.String("items_subtotal", inserted.ItemsSubTotal().String()),
					zap.String("subtotal", inserted.SubTotal.String()))
			}
			return inserted, true, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, false, err
		}

		// Either a concurrent delivery of the same session won, or the code collided.
		if existing, err := m.existing(ctx, st, s.ID); existing != nil || err != nil {
			return existing, false, err
		}
		if attempt >= m.attempts {
			return nil, false, ErrReferenceCollision
		}
		m.logger.Info("reference code collision, regenerating", zap.String("session_id", s.ID), zap.Int("attempt", attempt))
	}
}

func (m *Materializer) existing(ctx context.Context, st Store, sessionID string) (*domain.Order, error) {
	o, err := st.Orders.GetBySessionID(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return o, err
}

// orderFromSession derives the order header. Amounts must be non-negative and
// satisfy total = subtotal + shipping + tax - discount; zero totals are accepted
// when they do.
func orderFromSession(s payment.Session) (domain.Order, error) {
	for _, minor := range []int64{s.AmountSubtotal, s.AmountShipping, s.AmountTax, s.AmountDiscount, s.AmountTotal} {
		if minor < 0 {
			return domain.Order{}, fmt.Errorf("%w: negative amount %d", ErrInvalidAmount, minor)
		}
	}
	if want := s.AmountSubtotal + s.AmountShipping + s.AmountTax - s.AmountDiscount; want != s.AmountTotal {
		return domain.Order{}, fmt.Errorf("%w: total %d, components add up to %d", ErrInvalidAmount, s.AmountTotal, want)
	}

	status := domain.OrderStatusPending
	if s.Paid() {
		status = domain.OrderStatusPaid
	}
	c := s.Customer
	return domain.Order{
		UserID:            s.UserID(),
		CheckoutSessionID: s.ID,
		PaymentIntentID:   s.PaymentIntentID,
		Currency:          currencyCode(s.Currency),
		SubTotal:          payment.ToAmount(s.AmountSubtotal, s.Currency),
		ShippingFee:       payment.ToAmount(s.AmountShipping, s.Currency),
		Tax:               payment.ToAmount(s.AmountTax, s.Currency),
		Discount:          payment.ToAmount(s.AmountDiscount, s.Currency),
		Total:             payment.ToAmount(s.AmountTotal, s.Currency),
		Status:            status,
		PaymentStatus:     s.PaymentStatus,
		Customer: domain.CustomerSnapshot{
			Name:       c.Name,
			Email:      c.Email,
			Phone:      c.Phone,
			Line1:      c.Address.Line1,
			Line2:      c.Address.Line2,
			City:       c.Address.City,
			State:      c.Address.State,
			PostalCode: c.Address.PostalCode,
			Country:    c.Address.Country,
		},
	}, nil
}

func orderItemsFrom(items []payment.ResolvedItem) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.OrderItem{
			BookID:    it.BookID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			SubTotal:  it.SubTotal,
			Name:      it.Name,
			Format:    it.Format,
			Images:    it.Images,
		})
	}
	return out
}

func currencyCode(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}
