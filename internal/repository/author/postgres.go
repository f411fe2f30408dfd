package author

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

func (r *postgresRepo) List(ctx context.Context) ([]domain.Author, error) {
	rows, err := r.db.Query(ctx, `SELECT id::text, slug, name, bio, created_at FROM authors ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Author{}
	for rows.Next() {
		var a domain.Author
		if err := rows.Scan(&a.ID, &a.Slug, &a.Name, &a.Bio, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Author, error) {
	var a domain.Author
	err := r.db.QueryRow(ctx, `SELECT id::text, slug, name, bio, created_at FROM authors WHERE slug = $1`, slug).
		Scan(&a.ID, &a.Slug, &a.Name, &a.Bio, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, a domain.Author) (*domain.Author, error) {
	const q = `
INSERT INTO authors (slug, name, bio)
VALUES ($1, $2, $3)
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name,
    bio = COALESCE(NULLIF(EXCLUDED.bio, ''), authors.bio)
RETURNING id::text, bio, created_at
`
	out := domain.Author{Slug: a.Slug, Name: a.Name}
	if err := r.db.QueryRow(ctx, q, a.Slug, a.Name, a.Bio).Scan(&out.ID, &out.Bio, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, slug string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM authors WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
