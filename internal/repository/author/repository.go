package author

import (
	"context"

	"bookstore/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Author, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Author, error)
	Upsert(ctx context.Context, a domain.Author) (*domain.Author, error)
	Delete(ctx context.Context, slug string) error
}
