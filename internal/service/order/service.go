package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookstore/internal/db"
	"bookstore/internal/domain"
	"bookstore/internal/events"
	"bookstore/internal/logging"
	"bookstore/internal/outbox"
	"bookstore/internal/refcode"
	orderrepo "bookstore/internal/repository/order"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type orderReader interface {
	GetByReference(ctx context.Context, reference string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
	List(ctx context.Context, f orderrepo.ListFilter) ([]domain.Order, int, error)
	SalesSummary(ctx context.Context, from, to time.Time) (domain.SalesSummary, error)
	TopBooks(ctx context.Context, from, to time.Time, limit int) ([]domain.TopBook, error)
	CountByStatus(ctx context.Context) ([]domain.StatusCount, error)
}

type statusWriter interface {
	GetByReference(ctx context.Context, reference string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
}

type eventStore interface {
	Enqueue(ctx context.Context, m outbox.Message) (string, error)
}

// Tx is the transactional view used for status changes.
type Tx struct {
	Orders statusWriter
	Events eventStore
}

type Transactor interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

type postgresTransactor struct {
	pool *pgxpool.Pool
}

func NewPostgresTransactor(pool *pgxpool.Pool) Transactor {
	return &postgresTransactor{pool: pool}
}

func (t *postgresTransactor) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.InTx(ctx, t.pool, func(tx pgx.Tx) error {
		return fn(Tx{Orders: orderrepo.NewPostgres(tx), Events: outbox.NewStore(tx)})
	})
}

type Service struct {
	orders      orderReader
	tx          Transactor
	eventsTopic string
	logger      *zap.Logger
	now         func() time.Time
}

func New(orders orderReader, tx Transactor, eventsTopic string, logger *zap.Logger) *Service {
	return &Service{orders: orders, tx: tx, eventsTopic: eventsTopic, logger: logging.OrNop(logger), now: time.Now}
}

// Lookup finds an order by its customer-facing reference code. Typing
// mistakes such as O for 0 are tolerated. When userID is empty only the
// status fields are returned; a userID that does not own the order gets
// domain.ErrNotFound.
func (s *Service) Lookup(ctx context.Context, reference, userID string) (*domain.Order, error) {
	code := refcode.Normalize(reference)
	if !refcode.Valid(code) {
		return nil, domain.ErrNotFound
	}
	o, err := s.orders.GetByReference(ctx, code)
	if err != nil {
		return nil, err
	}
	switch {
	case userID == "":
		return &domain.Order{
			ReferenceCode: o.ReferenceCode,
			Status:        o.Status,
			PaymentStatus: o.PaymentStatus,
			CreatedAt:     o.CreatedAt,
			UpdatedAt:     o.UpdatedAt,
		}, nil
	case o.UserID != userID:
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrForbidden
	}
	return s.orders.ListByUser(ctx, userID, limit, offset)
}

type ListInput struct {
	Status string
	Limit  int
	Offset int
}

type Page struct {
	Orders []domain.Order `json:"orders"`
	Total  int            `json:"total"`
}

func (s *Service) List(ctx context.Context, in ListInput) (*Page, error) {
	status := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, in.Status)
	}
	orders, total, err := s.orders.List(ctx, orderrepo.ListFilter{Status: status, Limit: in.Limit, Offset: in.Offset})
	if err != nil {
		return nil, err
	}
	return &Page{Orders: orders, Total: total}, nil
}

// UpdateStatus moves an order along the fulfilment workflow and records an
// order.status_changed event in the same transaction.
func (s *Service) UpdateStatus(ctx context.Context, reference, next string) (*domain.Order, error) {
	to := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(next)))
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, next)
	}
	code := refcode.Normalize(reference)
	if !refcode.Valid(code) {
		return nil, domain.ErrNotFound
	}

	var updated *domain.Order
	err := s.tx.InTx(ctx, func(tx Tx) error {
		current, err := tx.Orders.GetByReference(ctx, code)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(to) {
			return fmt.Errorf("%w: cannot move order from %s to %s", domain.ErrConflict, current.Status, to)
		}
		updated, err = tx.Orders.UpdateStatus(ctx, current.ID, current.Status, to)
		if err != nil {
			return err
		}
		updated.Items = current.Items
		if s.eventsTopic == "" {
			return nil
		}
		_, err = tx.Events.Enqueue(ctx, outbox.Message{
			Topic: s.eventsTopic,
			Key:   updated.ID,
			Payload: events.OrderEvent{
				Type:          events.TypeOrderStatusChanged,
				OrderID:       updated.ID,
				ReferenceCode: updated.ReferenceCode,
				UserID:        updated.UserID,
				Status:        string(to),
				Previous:      string(current.Status),
				Currency:      updated.Currency,
				Total:         updated.Total,
				OccurredAt:    s.now().UTC(),
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status changed", zap.String("reference", updated.ReferenceCode), zap.String("status", string(to)))
	return updated, nil
}

// Dashboard aggregates sales KPIs over [from, to). A zero window means the
// last 30 days.
func (s *Service) Dashboard(ctx context.Context, from, to time.Time) (*domain.Dashboard, error) {
	now := s.now().UTC()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: from must be before to", domain.ErrInvalidInput)
	}

	sales, err := s.orders.SalesSummary(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("sales summary: %w", err)
	}
	top, err := s.orders.TopBooks(ctx, from, to, 5)
	if err != nil {
		return nil, fmt.Errorf("top books: %w", err)
	}
	byStatus, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	return &domain.Dashboard{Sales: sales, TopBooks: top, ByStatus: byStatus, Generated: now}, nil
}
