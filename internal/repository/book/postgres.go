package book

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore/internal/db"
	"bookstore/internal/domain"
	"bookstore/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type postgresRepo struct {
	db     db.Querier
	logger *zap.Logger
}

func NewPostgres(q db.Querier, logger *zap.Logger) Repository {
	return &postgresRepo{db: q, logger: logging.OrNop(logger)}
}

const bookColumns = `
b.id::text, b.slug, b.title, b.description, b.isbn, b.author_id::text, COALESCE(a.name, ''),
b.category_id::text, COALESCE(c.slug, ''), b.images, b.created_at`

const bookFrom = `
FROM books b
LEFT JOIN authors a ON a.id = b.author_id
LEFT JOIN categories c ON c.id = b.category_id`

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]domain.Book, int, error) {
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	q := `SELECT` + bookColumns + `, COUNT(*) OVER ()` + bookFrom + `
WHERE ($1 = '' OR lower(b.title) LIKE '%' || lower($1) || '%' OR lower(a.name) LIKE '%' || lower($1) || '%' OR b.isbn = $1)
  AND ($2 = '' OR c.slug = $2)
  AND ($3 = '' OR a.slug = $3)
ORDER BY b.title ASC, b.id ASC
LIMIT $4 OFFSET $5
`
	rows, err := r.db.Query(ctx, q, strings.TrimSpace(f.Query), f.CategorySlug, f.AuthorSlug, limit, offset)
	if err != nil {
		r.logger.Error("book repo: list", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var (
		books []domain.Book
		total int
	)
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(&b.ID, &b.Slug, &b.Title, &b.Description, &b.ISBN, &b.AuthorID, &b.AuthorName,
			&b.CategoryID, &b.CategorySlug, &b.Images, &b.CreatedAt, &total); err != nil {
			return nil, 0, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachVariants(ctx, books); err != nil {
		return nil, 0, err
	}
	r.logger.Debug("book repo: list", zap.String("query", f.Query), zap.Int("count", len(books)), zap.Int("total", total))
	return books, total, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	return r.getOne(ctx, `SELECT`+bookColumns+bookFrom+` WHERE b.id = $1`, id)
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Book, error) {
	return r.getOne(ctx, `SELECT`+bookColumns+bookFrom+` WHERE b.slug = $1`, slug)
}

func (r *postgresRepo) getOne(ctx context.Context, q string, arg string) (*domain.Book, error) {
	var b domain.Book
	err := r.db.QueryRow(ctx, q, arg).Scan(&b.ID, &b.Slug, &b.Title, &b.Description, &b.ISBN, &b.AuthorID, &b.AuthorName,
		&b.CategoryID, &b.CategorySlug, &b.Images, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("book repo: get", zap.String("key", arg), zap.Error(err))
		return nil, err
	}
	books := []domain.Book{b}
	if err := r.attachVariants(ctx, books); err != nil {
		return nil, err
	}
	return &books[0], nil
}

func (r *postgresRepo) GetVariant(ctx context.Context, variantID string) (*domain.BookVariant, error) {
	const q = `
SELECT id::text, book_id::text, format, sku, price, currency, stock, created_at
FROM book_variants
WHERE id = $1
`
	var v domain.BookVariant
	err := r.db.QueryRow(ctx, q, variantID).Scan(&v.ID, &v.BookID, &v.Format, &v.SKU, &v.Price, &v.Currency, &v.Stock, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *postgresRepo) attachVariants(ctx context.Context, books []domain.Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]string, len(books))
	index := make(map[string]int, len(books))
	for i, b := range books {
		ids[i] = b.ID
		index[b.ID] = i
		books[i].Variants = []domain.BookVariant{}
	}

	const q = `
SELECT id::text, book_id::text, format, sku, price, currency, stock, created_at
FROM book_variants
WHERE book_id = ANY($1::uuid[])
ORDER BY price ASC, format ASC
`
	rows, err := r.db.Query(ctx, q, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.BookVariant
		if err := rows.Scan(&v.ID, &v.BookID, &v.Format, &v.SKU, &v.Price, &v.Currency, &v.Stock, &v.CreatedAt); err != nil {
			return err
		}
		i := index[v.BookID]
		books[i].Variants = append(books[i].Variants, v)
	}
	return rows.Err()
}

// Upsert writes the book keyed by slug and replaces its variant set keyed by SKU.
func (r *postgresRepo) Upsert(ctx context.Context, b domain.Book) (*domain.Book, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	images := b.Images
	if images == nil {
		images = []string{}
	}

	const bookQ = `
INSERT INTO books (slug, title, description, isbn, author_id, category_id, images)
VALUES ($1, $2, $3, $4, $5::uuid, $6::uuid, $7)
ON CONFLICT (slug) DO UPDATE
SET title = EXCLUDED.title,
    description = EXCLUDED.description,
    isbn = EXCLUDED.isbn,
    author_id = EXCLUDED.author_id,
    category_id = EXCLUDED.category_id,
    images = EXCLUDED.images
RETURNING id::text
`
	var id string
	if err := tx.QueryRow(ctx, bookQ, b.Slug, b.Title, b.Description, b.ISBN, b.AuthorID, b.CategoryID, images).Scan(&id); err != nil {
		r.logger.Error("book repo: upsert", zap.String("slug", b.Slug), zap.Error(err))
		return nil, err
	}

	skus := make([]string, 0, len(b.Variants))
	for _, v := range b.Variants {
		skus = append(skus, v.SKU)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM book_variants WHERE book_id = $1 AND NOT (sku = ANY($2::text[]))`, id, skus); err != nil {
		return nil, err
	}

	for _, v := range b.Variants {
		const variantQ = `
INSERT INTO book_variants (book_id, format, sku, price, currency, stock)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (sku) DO UPDATE
SET format = EXCLUDED.format,
    price = EXCLUDED.price,
    currency = EXCLUDED.currency,
    stock = EXCLUDED.stock
WHERE book_variants.book_id = EXCLUDED.book_id
RETURNING id::text
`
		var variantID string
		err := tx.QueryRow(ctx, variantQ, id, string(v.Format), v.SKU, v.Price, v.Currency, v.Stock).Scan(&variantID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("sku %s belongs to another book: %w", v.SKU, domain.ErrAlreadyExists)
			}
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return nil, fmt.Errorf("variant %s %s: %w", v.Format, v.SKU, domain.ErrAlreadyExists)
			}
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("book repo: upserted", zap.String("slug", b.Slug), zap.String("id", id), zap.Int("variants", len(skus)))
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
