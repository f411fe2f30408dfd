package domain

import "time"

// Cart is the single per-user bag of pending selections. It is created lazily and
// survives checkout empty.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Items     []CartItem `json:"items"`
}

type CartItem struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cartId"`
	BookID    string    `json:"bookId"`
	VariantID string    `json:"variantId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

// Item returns the cart item with the given id.
func (c Cart) Item(id string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return CartItem{}, false
}
