package wishlist

import (
	"context"

	"bookstore/internal/domain"
)

type Repository interface {
	// Add is a no-op when the book is already wishlisted.
	Add(ctx context.Context, userID, bookID string) error
	Remove(ctx context.Context, userID, bookID string) error
	List(ctx context.Context, userID string) ([]domain.WishlistItem, error)
}
