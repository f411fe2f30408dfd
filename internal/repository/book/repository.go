package book

import (
	"context"

	"bookstore/internal/domain"
)

// Filter narrows catalog listings. Zero values mean "any".
type Filter struct {
	Query        string
	CategorySlug string
	AuthorSlug   string
	Limit        int
	Offset       int
}

type Repository interface {
	List(ctx context.Context, f Filter) ([]domain.Book, int, error)
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Book, error)
	GetVariant(ctx context.Context, variantID string) (*domain.BookVariant, error)
	Upsert(ctx context.Context, b domain.Book) (*domain.Book, error)
	Delete(ctx context.Context, id string) error
}
