package cart

import (
	"context"

	"bookstore/internal/domain"
)

type AddItemInput struct {
	BookID    string
	VariantID string
	Quantity  int
}

type Repository interface {
	// GetOrCreateForUser returns the user's cart, creating an empty one on first use.
	GetOrCreateForUser(ctx context.Context, userID string) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	// AddItem merges into an existing line for the same variant.
	AddItem(ctx context.Context, cartID string, in AddItemInput) error
	SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
	// ClearItems empties the cart and returns how many lines were removed.
	ClearItems(ctx context.Context, cartID string) (int64, error)
}
