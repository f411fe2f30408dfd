package checkout

import (
	"context"
	"errors"

	"bookstore/internal/domain"
)

// Reconciler empties the cart a completed session was opened from. The cart
// row itself is kept for reuse.
type Reconciler struct{}

// Reconcile clears cartID. With enforceOwner set the cart must belong to userID.
func (Reconciler) Reconcile(ctx context.Context, st Store, userID, cartID string, enforceOwner bool) (int64, error) {
	cart, err := st.Carts.GetByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, ErrCartNotFound
		}
		return 0, err
	}
	if enforceOwner && cart.UserID != userID {
		return 0, ErrCartOwnership
	}
	return st.Carts.ClearItems(ctx, cart.ID)
}
