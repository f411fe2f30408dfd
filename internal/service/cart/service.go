package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore/internal/domain"
	cartrepo "bookstore/internal/repository/cart"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo  cartRepo
	books variantRepo
}

type cartRepo interface {
	GetOrCreateForUser(ctx context.Context, userID string) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID string, in cartrepo.AddItemInput) error
	SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
	ClearItems(ctx context.Context, cartID string) (int64, error)
}

type variantRepo interface {
	GetVariant(ctx context.Context, variantID string) (*domain.BookVariant, error)
}

func New(repo cartrepo.Repository, books variantRepo) *Service {
	return &Service{repo: repo, books: books}
}

type AddItemInput struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// View is a cart priced at current catalog prices.
type View struct {
	*domain.Cart
	Lines    []Line          `json:"lines"`
	SubTotal decimal.Decimal `json:"subTotal"`
	Currency string          `json:"currency,omitempty"`
}

type Line struct {
	ItemID    string          `json:"itemId"`
	BookID    string          `json:"bookId"`
	VariantID string          `json:"variantId"`
	Format    domain.Format   `json:"format"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	SubTotal  decimal.Decimal `json:"subTotal"`
}

// Get returns the user's cart, creating it on first use.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrForbidden
	}
	cart, err := s.repo.GetOrCreateForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, cart)
}

func (s *Service) AddItem(ctx context.Context, userID string, in AddItemInput) (*View, error) {
	variantID := strings.TrimSpace(in.VariantID)
	if variantID == "" {
		return nil, fmt.Errorf("%w: variantId required", domain.ErrInvalidInput)
	}
	variantID, ok := domain.ParseID(variantID)
	if !ok {
		return nil, fmt.Errorf("%w: variant not found", domain.ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	cart, err := s.own(ctx, userID)
	if err != nil {
		return nil, err
	}
	variant, err := s.books.GetVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: variant not found", domain.ErrInvalidInput)
		}
		return nil, err
	}
	if err := s.repo.AddItem(ctx, cart.ID, cartrepo.AddItemInput{
		BookID:    variant.BookID,
		VariantID: variant.ID,
		Quantity:  in.Quantity,
	}); err != nil {
		return nil, err
	}
	return s.reload(ctx, cart.ID)
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*View, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, fmt.Errorf("%w: itemId required", domain.ErrInvalidInput)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	itemID, ok := domain.ParseID(itemID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	cart, err := s.own(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
		return nil, err
	}
	return s.reload(ctx, cart.ID)
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (*View, error) {
	itemID, ok := domain.ParseID(itemID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	cart, err := s.own(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveItem(ctx, cart.ID, itemID); err != nil {
		return nil, err
	}
	return s.reload(ctx, cart.ID)
}

// Clear empties the user's cart. The cart itself is kept.
func (s *Service) Clear(ctx context.Context, userID string) (*View, error) {
	cart, err := s.own(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.reload(ctx, cart.ID)
}

// own resolves the caller's cart. Item operations are scoped to its id, so an
// item of another user's cart is simply not found.
func (s *Service) own(ctx context.Context, userID string) (*domain.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrForbidden
	}
	return s.repo.GetOrCreateForUser(ctx, userID)
}

func (s *Service) reload(ctx context.Context, cartID string) (*View, error) {
	cart, err := s.repo.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, cart)
}

func (s *Service) price(ctx context.Context, cart *domain.Cart) (*View, error) {
	view := &View{Cart: cart, Lines: []Line{}, SubTotal: decimal.Zero}
	for _, it := range cart.Items {
		v, err := s.books.GetVariant(ctx, it.VariantID)
		if err != nil {
			return nil, fmt.Errorf("price cart item %s: %w", it.ID, err)
		}
		line := Line{
			ItemID:    it.ID,
			BookID:    it.BookID,
			VariantID: it.VariantID,
			Format:    v.Format,
			SKU:       v.SKU,
			Quantity:  it.Quantity,
			UnitPrice: v.Price,
			SubTotal:  v.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		}
		view.Lines = append(view.Lines, line)
		view.SubTotal = view.SubTotal.Add(line.SubTotal)
		if view.Currency == "" {
			view.Currency = v.Currency
		}
	}
	return view, nil
}
