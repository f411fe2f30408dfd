package payment

import (
	"context"
	"fmt"
	"strings"

	"bookstore/internal/domain"
	"github.com/shopspring/decimal"
)

// ProductTypeBook marks a processor product as a catalog book.
const ProductTypeBook = "book"

// Product metadata keys written when the checkout session is opened.
const (
	MetaType      = "type"
	MetaBookID    = "bookId"
	MetaVariantID = "variantId"
	MetaFormat    = "format"
)

// BookMetadata is the typed form of a book product's metadata.
type BookMetadata struct {
	BookID    string
	VariantID string
	Format    domain.Format
}

// IsBook reports whether product metadata claims a catalog book.
func IsBook(md map[string]string) bool {
	return strings.EqualFold(strings.TrimSpace(md[MetaType]), ProductTypeBook)
}

// ParseBookMetadata validates the identity fields of a book product. Every field is
// required: a paid-for book that cannot be identified must not be dropped.
func ParseBookMetadata(md map[string]string) (BookMetadata, error) {
	var missing []string
	bookID := strings.TrimSpace(md[MetaBookID])
	if bookID == "" {
		missing = append(missing, MetaBookID)
	}
	variantID := strings.TrimSpace(md[MetaVariantID])
	if variantID == "" {
		missing = append(missing, MetaVariantID)
	}
	rawFormat := strings.TrimSpace(md[MetaFormat])
	if rawFormat == "" {
		missing = append(missing, MetaFormat)
	}
	if len(missing) > 0 {
		return BookMetadata{}, fmt.Errorf("%w: missing %s", ErrInvalidMetadata, strings.Join(missing, ", "))
	}
	bookID, ok := domain.ParseID(bookID)
	if !ok {
		return BookMetadata{}, fmt.Errorf("%w: %s %q is not a UUID", ErrInvalidMetadata, MetaBookID, md[MetaBookID])
	}
	variantID, ok = domain.ParseID(variantID)
	if !ok {
		return BookMetadata{}, fmt.Errorf("%w: %s %q is not a UUID", ErrInvalidMetadata, MetaVariantID, md[MetaVariantID])
	}
	format, ok := domain.ParseFormat(rawFormat)
	if !ok {
		return BookMetadata{}, fmt.Errorf("%w: unknown format %q", ErrInvalidMetadata, rawFormat)
	}
	return BookMetadata{BookID: bookID, VariantID: variantID, Format: format}, nil
}

// ResolvedItem is a purchased book line, ready to become an order item.
type ResolvedItem struct {
	BookID    string
	VariantID string
	Format    domain.Format
	Quantity  int
	UnitPrice decimal.Decimal
	SubTotal  decimal.Decimal
	Name      string
	Images    []string
}

// Resolver turns a completed session into the book lines it paid for.
type Resolver struct {
	processor Processor
}

func NewResolver(p Processor) *Resolver {
	return &Resolver{processor: p}
}

// Resolve lists the session's line items and keeps the books. Non-book lines such
// as processor fees are skipped.
func (r *Resolver) Resolve(ctx context.Context, s Session) ([]ResolvedItem, error) {
	if !Supported(s.Currency) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, s.Currency)
	}
	lines, err := r.processor.ListLineItems(ctx, s.ID)
	if err != nil {
		return nil, err
	}

	var out []ResolvedItem
	for _, li := range lines {
		if !IsBook(li.ProductMetadata) {
			continue
		}
		item, err := resolveLine(li, s.Currency)
		if err != nil {
			return nil, fmt.Errorf("line item %s: %w", li.ID, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func resolveLine(li LineItem, sessionCurrency string) (ResolvedItem, error) {
	md, err := ParseBookMetadata(li.ProductMetadata)
	if err != nil {
		return ResolvedItem{}, err
	}
	if li.Quantity <= 0 {
		return ResolvedItem{}, fmt.Errorf("%w: quantity %d", ErrInvalidMetadata, li.Quantity)
	}
	if li.AmountSubtotal < 0 {
		return ResolvedItem{}, fmt.Errorf("%w: negative amount %d", ErrInvalidMetadata, li.AmountSubtotal)
	}

	currency := li.Currency
	if currency == "" {
		currency = sessionCurrency
	}
	if !Supported(currency) {
		return ResolvedItem{}, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}
	subTotal := ToAmount(li.AmountSubtotal, currency)
	// The processor reports line totals; recover the per-unit price from them.
	unit := subTotal.DivRound(decimal.NewFromInt(li.Quantity), Scale(currency))

	name := strings.TrimSpace(li.ProductName)
	if name == "" {
		name = li.Description
	}
	return ResolvedItem{
		BookID:    md.BookID,
		VariantID: md.VariantID,
		Format:    md.Format,
		Quantity:  int(li.Quantity),
		UnitPrice: unit,
		SubTotal:  subTotal,
		Name:      name,
		Images:    li.ProductImages,
	}, nil
}
