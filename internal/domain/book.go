package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Format is the physical or digital edition of a book.
type Format string

const (
	FormatHardcover Format = "HARDCOVER"
	FormatPaperback Format = "PAPERBACK"
	FormatEbook     Format = "EBOOK"
	FormatAudiobook Format = "AUDIOBOOK"
)

// ParseFormat accepts any casing and returns false for unknown formats.
func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToUpper(strings.TrimSpace(s))); f {
	case FormatHardcover, FormatPaperback, FormatEbook, FormatAudiobook:
		return f, true
	default:
		return "", false
	}
}

type Book struct {
	ID           string        `json:"id"`
	Slug         string        `json:"slug"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	ISBN         string        `json:"isbn,omitempty"`
	AuthorID     *string       `json:"authorId,omitempty"`
	AuthorName   string        `json:"authorName,omitempty"`
	CategoryID   *string       `json:"categoryId,omitempty"`
	CategorySlug string        `json:"categorySlug,omitempty"`
	Images       []string      `json:"images,omitempty"`
	Variants     []BookVariant `json:"variants"`
	CreatedAt    time.Time     `json:"createdAt"`
}

type BookVariant struct {
	ID        string          `json:"id"`
	BookID    string          `json:"bookId"`
	Format    Format          `json:"format"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Variant returns the variant with the given id.
func (b Book) Variant(id string) (BookVariant, bool) {
	for _, v := range b.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return BookVariant{}, false
}
