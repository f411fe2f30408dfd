package review

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

func (r *postgresRepo) Create(ctx context.Context, rv domain.Review) (*domain.Review, error) {
	const q = `
INSERT INTO reviews (book_id, user_id, rating, title, body)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text, created_at
`
	out := rv
	if err := r.db.QueryRow(ctx, q, rv.BookID, rv.UserID, rv.Rating, rv.Title, rv.Body).Scan(&out.ID, &out.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, domain.ErrAlreadyExists
			case "23503":
				return nil, domain.ErrNotFound
			}
		}
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) ListByBook(ctx context.Context, bookID string, limit, offset int) ([]domain.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const q = `
SELECT id::text, book_id::text, user_id, rating, title, body, created_at
FROM reviews
WHERE book_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`
	rows, err := r.db.Query(ctx, q, bookID, limit, max(offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.BookID, &rv.UserID, &rv.Rating, &rv.Title, &rv.Body, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *postgresRepo) RatingForBook(ctx context.Context, bookID string) (domain.Rating, error) {
	const q = `
SELECT COUNT(*), COALESCE(ROUND(AVG(rating)::numeric, 2), 0)::float8
FROM reviews
WHERE book_id = $1
`
	var rt domain.Rating
	if err := r.db.QueryRow(ctx, q, bookID).Scan(&rt.Count, &rt.Average); err != nil {
		return domain.Rating{}, err
	}
	return rt, nil
}
