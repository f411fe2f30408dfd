package domain

import "time"

type Review struct {
	ID        string    `json:"id"`
	BookID    string    `json:"bookId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Rating aggregates the reviews of one book.
type Rating struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

type WishlistItem struct {
	UserID    string    `json:"-"`
	BookID    string    `json:"bookId"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}
