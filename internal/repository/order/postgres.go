package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookstore/internal/db"
	"bookstore/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	db db.Querier
}

func NewPostgres(q db.Querier) Repository {
	return &postgresRepo{db: q}
}

// Orders in these statuses count as revenue.
const revenueStatuses = `('PAID', 'IN_TRANSIT', 'DELIVERED')`

const orderColumns = `
id::text, reference_code, user_id, checkout_session_id, payment_intent_id, currency,
sub_total, shipping_fee, tax, discount, total, status, payment_status,
customer_name, customer_email, customer_phone, address_line1, address_line2,
city, state, postal_code, country, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.ReferenceCode, &o.UserID, &o.CheckoutSessionID, &o.PaymentIntentID, &o.Currency,
		&o.SubTotal, &o.ShippingFee, &o.Tax, &o.Discount, &o.Total, &o.Status, &o.PaymentStatus,
		&o.Customer.Name, &o.Customer.Email, &o.Customer.Phone, &o.Customer.Line1, &o.Customer.Line2,
		&o.Customer.City, &o.Customer.State, &o.Customer.PostalCode, &o.Customer.Country,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepo) Insert(ctx context.Context, o domain.Order) (*domain.Order, error) {
	const q = `
INSERT INTO orders (
    reference_code, user_id, checkout_session_id, payment_intent_id, currency,
    sub_total, shipping_fee, tax, discount, total, status, payment_status,
    customer_name, customer_email, customer_phone, address_line1, address_line2,
    city, state, postal_code, country
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
ON CONFLICT DO NOTHING
RETURNING ` + orderColumns
	c := o.Customer
	out, err := scanOrder(r.db.QueryRow(ctx, q,
		o.ReferenceCode, o.UserID, o.CheckoutSessionID, o.PaymentIntentID, o.Currency,
		o.SubTotal, o.ShippingFee, o.Tax, o.Discount, o.Total, string(o.Status), o.PaymentStatus,
		c.Name, c.Email, c.Phone, c.Line1, c.Line2, c.City, c.State, c.PostalCode, c.Country,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	const q = `
INSERT INTO order_items (order_id, book_id, variant_id, quantity, unit_price, sub_total, name, format, images)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	batch := &pgx.Batch{}
	for _, it := range items {
		images := it.Images
		if images == nil {
			images = []string{}
		}
		batch.Queue(q, orderID, it.BookID, it.VariantID, it.Quantity, it.UnitPrice, it.SubTotal, it.Name, string(it.Format), images)
	}
	br := r.db.SendBatch(ctx, batch)
	for i := range items {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert order item %d: %w", i, err)
		}
	}
	return br.Close()
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE checkout_session_id = $1`, sessionID)
}

func (r *postgresRepo) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE reference_code = $1`, reference)
}

func (r *postgresRepo) getOne(ctx context.Context, q, arg string) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	items, err := r.items(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *postgresRepo) items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const q = `
SELECT id::text, order_id::text, book_id::text, variant_id::text, quantity, unit_price, sub_total, name, format, images, created_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.db.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.VariantID, &it.Quantity, &it.UnitPrice,
			&it.SubTotal, &it.Name, &it.Format, &it.Images, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	limit, offset = page(limit, offset)
	q := `SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`
	rows, err := r.db.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Order, int, error) {
	limit, offset := page(f.Limit, f.Offset)
	q := `SELECT ` + orderColumns + `, COUNT(*) OVER ()
FROM orders
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`
	rows, err := r.db.Query(ctx, q, string(f.Status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		orders = []domain.Order{}
		total  int
	)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.ReferenceCode, &o.UserID, &o.CheckoutSessionID, &o.PaymentIntentID, &o.Currency,
			&o.SubTotal, &o.ShippingFee, &o.Tax, &o.Discount, &o.Total, &o.Status, &o.PaymentStatus,
			&o.Customer.Name, &o.Customer.Email, &o.Customer.Phone, &o.Customer.Line1, &o.Customer.Line2,
			&o.Customer.City, &o.Customer.State, &o.Customer.PostalCode, &o.Customer.Country,
			&o.CreatedAt, &o.UpdatedAt, &total,
		); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	q := `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2
RETURNING ` + orderColumns
	o, err := scanOrder(r.db.QueryRow(ctx, q, id, string(from), string(to)))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrConflict
}

func (r *postgresRepo) SalesSummary(ctx context.Context, from, to time.Time) (domain.SalesSummary, error) {
	q := `
SELECT
    COUNT(*),
    COALESCE(SUM(o.total), 0),
    COALESCE((
        SELECT SUM(oi.quantity)
        FROM order_items oi
        JOIN orders o2 ON o2.id = oi.order_id
        WHERE o2.status IN ` + revenueStatuses + `
          AND o2.created_at >= $1 AND o2.created_at < $2
    ), 0)
FROM orders o
WHERE o.status IN ` + revenueStatuses + `
  AND o.created_at >= $1 AND o.created_at < $2
`
	s := domain.SalesSummary{From: from, To: to}
	var booksSold int64
	if err := r.db.QueryRow(ctx, q, from, to).Scan(&s.OrderCount, &s.Revenue, &booksSold); err != nil {
		return domain.SalesSummary{}, err
	}
	s.BooksSold = int(booksSold)
	s.AverageOrderValue = decimal.Zero
	if s.OrderCount > 0 {
		s.AverageOrderValue = s.Revenue.DivRound(decimal.NewFromInt(int64(s.OrderCount)), 2)
	}
	return s, nil
}

func (r *postgresRepo) TopBooks(ctx context.Context, from, to time.Time, limit int) ([]domain.TopBook, error) {
	if limit <= 0 {
		limit = 5
	}
	q := `
SELECT oi.book_id::text, MAX(oi.name), SUM(oi.quantity), SUM(oi.sub_total)
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.status IN ` + revenueStatuses + `
  AND o.created_at >= $1 AND o.created_at < $2
GROUP BY oi.book_id
ORDER BY SUM(oi.quantity) DESC, SUM(oi.sub_total) DESC, oi.book_id ASC
LIMIT $3
`
	rows, err := r.db.Query(ctx, q, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.TopBook{}
	for rows.Next() {
		var (
			tb  domain.TopBook
			qty int64
		)
		if err := rows.Scan(&tb.BookID, &tb.Name, &qty, &tb.Revenue); err != nil {
			return nil, err
		}
		tb.Quantity = int(qty)
		out = append(out, tb)
	}
	return out, rows.Err()
}

func (r *postgresRepo) CountByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.StatusCount{}
	for rows.Next() {
		var sc domain.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
