package category

import (
	"context"

	"bookstore/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, slug string) error
}
