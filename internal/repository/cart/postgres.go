package cart

import (
	"context"
	"errors"

	"bookstore/internal/db"
	"bookstore/internal/domain"
	"github.com/jackc/pgx/v5"
)

type postgresRepo struct {
	db db.Querier
}

func NewPostgres(q db.Querier) Repository {
	return &postgresRepo{db: q}
}

const cartColumns = `id::text, user_id, created_at, updated_at`

func (r *postgresRepo) GetOrCreateForUser(ctx context.Context, userID string) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING ` + cartColumns
	return r.fetchCart(ctx, q, userID)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	return r.fetchCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
}

func (r *postgresRepo) AddItem(ctx context.Context, cartID string, in AddItemInput) error {
	if in.Quantity <= 0 {
		return domain.ErrInvalidInput
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO cart_items (cart_id, book_id, variant_id, quantity)
VALUES ($1, $2, $3, $4)
ON CONFLICT (cart_id, variant_id) DO UPDATE
SET quantity = cart_items.quantity + EXCLUDED.quantity
`
	if _, err := tx.Exec(ctx, q, cartID, in.BookID, in.VariantID, in.Quantity); err != nil {
		return err
	}
	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	if quantity <= 0 {
		return r.RemoveItem(ctx, cartID, itemID)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
UPDATE cart_items
SET quantity = $1
WHERE id = $2 AND cart_id = $3
`, quantity, itemID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) RemoveItem(ctx context.Context, cartID, itemID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) ClearItems(ctx context.Context, cartID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return 0, err
	}
	if _, err := r.db.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID); err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, cartQuery string, args ...any) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.QueryRow(ctx, cartQuery, args...).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const itemsQuery = `
SELECT id::text, cart_id::text, book_id::text, variant_id::text, quantity, created_at
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.db.Query(ctx, itemsQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.BookID, &it.VariantID, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func touchCart(ctx context.Context, tx pgx.Tx, cartID string) error {
	cmd, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
