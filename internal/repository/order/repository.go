package order

import (
	"context"
	"time"

	"bookstore/internal/domain"
)

// ListFilter narrows admin order listings. An empty Status means any status.
type ListFilter struct {
	Status domain.OrderStatus
	Limit  int
	Offset int
}

type Repository interface {
	// Insert stores the order header. It returns domain.ErrAlreadyExists when the
	// checkout session or the reference code is already taken.
	Insert(ctx context.Context, o domain.Order) (*domain.Order, error)
	InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)
	GetByReference(ctx context.Context, reference string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
	List(ctx context.Context, f ListFilter) ([]domain.Order, int, error)
	// UpdateStatus moves the order from one status to another and returns
	// domain.ErrConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
	SalesSummary(ctx context.Context, from, to time.Time) (domain.SalesSummary, error)
	TopBooks(ctx context.Context, from, to time.Time, limit int) ([]domain.TopBook, error)
	CountByStatus(ctx context.Context) ([]domain.StatusCount, error)
}
