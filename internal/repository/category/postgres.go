package category

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

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id::text, slug, name, description, created_at
FROM categories
ORDER BY name ASC
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	const q = `
SELECT id::text, slug, name, description, created_at
FROM categories
WHERE slug = $1
`
	var c domain.Category
	if err := r.db.QueryRow(ctx, q, slug).Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (slug, name, description)
VALUES ($1, $2, $3)
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name,
    description = COALESCE(NULLIF(EXCLUDED.description, ''), categories.description)
RETURNING id::text, description, created_at
`
	out := domain.Category{Slug: c.Slug, Name: c.Name}
	if err := r.db.QueryRow(ctx, q, c.Slug, c.Name, c.Description).Scan(&out.ID, &out.Description, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, slug string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM categories WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
