package seed

import (
	"context"
	"fmt"

	"bookstore/internal/domain"
	catalogsvc "bookstore/internal/service/catalog"
	"github.com/shopspring/decimal"
)

// Catalog is the subset of the catalog service used for seeding.
type Catalog interface {
	SaveBook(ctx context.Context, in catalogsvc.BookInput) (*domain.Book, error)
	SaveAuthor(ctx context.Context, a domain.Author) (*domain.Author, error)
	SaveCategory(ctx context.Context, c domain.Category) (*domain.Category, error)
}

var categories = []domain.Category{
	{Slug: "science-fiction", Name: "Science Fiction", Description: "Spaceships, far futures and other worlds"},
	{Slug: "classics", Name: "Classics"},
}

var authors = []domain.Author{
	{Slug: "frank-herbert", Name: "Frank Herbert"},
	{Slug: "jane-austen", Name: "Jane Austen", Bio: "English novelist, 1775-1817"},
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var books = []catalogsvc.BookInput{
	{
		Slug:         "dune",
		Title:        "Dune",
		Description:  "A desert planet, a noble family and the spice melange.",
		ISBN:         "9780441013593",
		AuthorSlug:   "frank-herbert",
		CategorySlug: "science-fiction",
		Variants: []catalogsvc.VariantInput{
			{Format: "PAPERBACK", SKU: "DUNE-PB", Price: price("10.00"), Currency: "USD", Stock: 25},
			{Format: "HARDCOVER", SKU: "DUNE-HC", Price: price("24.50"), Currency: "USD", Stock: 5},
			{Format: "EBOOK", SKU: "DUNE-EB", Price: price("7.99"), Currency: "USD"},
		},
	},
	{
		Slug:         "emma",
		Title:        "Emma",
		ISBN:         "9780141439587",
		AuthorSlug:   "jane-austen",
		CategorySlug: "classics",
		Variants: []catalogsvc.VariantInput{
			{Format: "PAPERBACK", SKU: "EMMA-PB", Price: price("8.00"), Currency: "USD", Stock: 40},
		},
	},
	{
		Slug:         "pride-and-prejudice",
		Title:        "Pride and Prejudice",
		ISBN:         "9780141439518",
		AuthorSlug:   "jane-austen",
		CategorySlug: "classics",
		Variants: []catalogsvc.VariantInput{
			{Format: "PAPERBACK", SKU: "PAP-PB", Price: price("8.50"), Currency: "USD", Stock: 30},
			{Format: "AUDIOBOOK", SKU: "PAP-AU", Price: price("14.99"), Currency: "USD"},
		},
	},
}

// Apply inserts demo catalog data for manual testing. Every write is an
// upsert, so running it twice is harmless.
func Apply(ctx context.Context, catalog Catalog) error {
	for _, c := range categories {
		if _, err := catalog.SaveCategory(ctx, c); err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Slug, err)
		}
	}
	for _, a := range authors {
		if _, err := catalog.SaveAuthor(ctx, a); err != nil {
			return fmt.Errorf("upsert author %s: %w", a.Slug, err)
		}
	}
	for _, b := range books {
		if _, err := catalog.SaveBook(ctx, b); err != nil {
			return fmt.Errorf("upsert book %s: %w", b.Slug, err)
		}
	}
	return nil
}
