package checkout

import (
	"context"

	"bookstore/internal/db"
	"bookstore/internal/domain"
	"bookstore/internal/outbox"
	cartrepo "bookstore/internal/repository/cart"
	orderrepo "bookstore/internal/repository/order"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type orderStore interface {
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)
	Insert(ctx context.Context, o domain.Order) (*domain.Order, error)
	InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error
}

type cartStore interface {
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	ClearItems(ctx context.Context, cartID string) (int64, error)
}

type eventStore interface {
	Enqueue(ctx context.Context, m outbox.Message) (string, error)
}

// Store is what the materializer and reconciler see inside one transaction.
type Store struct {
	Orders orderStore
	Carts  cartStore
	Events eventStore
}

// Transactor runs fn against a Store whose writes commit together or not at all.
type Transactor interface {
	InTx(ctx context.Context, fn func(st Store) error) error
}

type postgresTransactor struct {
	pool *pgxpool.Pool
}

func NewPostgresTransactor(pool *pgxpool.Pool) Transactor {
	return &postgresTransactor{pool: pool}
}

func (t *postgresTransactor) InTx(ctx context.Context, fn func(st Store) error) error {
	return db.InTx(ctx, t.pool, func(tx pgx.Tx) error {
		return fn(Store{
			Orders: orderrepo.NewPostgres(tx),
			Carts:  cartrepo.NewPostgres(tx),
			Events: outbox.NewStore(tx),
		})
	})
}
