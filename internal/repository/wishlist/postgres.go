package wishlist

import (
	"context"
	"errors"

	"bookstore/internal/db"
	"bookstore/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

type postgresRepo struct {
	db db.Querier
}

func NewPostgres(q db.Querier) Repository {
	return &postgresRepo{db: q}
}

func (r *postgresRepo) Add(ctx context.Context, userID, bookID string) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO wishlist_items (user_id, book_id)
VALUES ($1, $2)
ON CONFLICT (user_id, book_id) DO NOTHING
`, userID, bookID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return domain.ErrNotFound
	}
	return err
}

func (r *postgresRepo) Remove(ctx context.Context, userID, bookID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM wishlist_items WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	const q = `
SELECT w.user_id, w.book_id::text, b.title, b.slug, w.created_at
FROM wishlist_items w
JOIN books b ON b.id = w.book_id
WHERE w.user_id = $1
ORDER BY w.created_at DESC
`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.WishlistItem{}
	for rows.Next() {
		var it domain.WishlistItem
		if err := rows.Scan(&it.UserID, &it.BookID, &it.Title, &it.Slug, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
