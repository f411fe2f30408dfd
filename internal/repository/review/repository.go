package review

import (
	"context"

	"bookstore/internal/domain"
)

type Repository interface {
	// Create stores a review; a second review of the same book by the same user
	// is domain.ErrAlreadyExists.
	Create(ctx context.Context, r domain.Review) (*domain.Review, error)
	ListByBook(ctx context.Context, bookID string, limit, offset int) ([]domain.Review, error)
	RatingForBook(ctx context.Context, bookID string) (domain.Rating, error)
}
