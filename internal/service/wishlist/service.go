package wishlist

import (
	"context"
	"fmt"
	"strings"

	"bookstore/internal/domain"
)

type wishlistRepo interface {
	Add(ctx context.Context, userID, bookID string) error
	Remove(ctx context.Context, userID, bookID string) error
	List(ctx context.Context, userID string) ([]domain.WishlistItem, error)
}

type bookRepo interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Book, error)
}

type Service struct {
	items wishlistRepo
	books bookRepo
}

func New(items wishlistRepo, books bookRepo) *Service {
	return &Service{items: items, books: books}
}

// Add wishlists a book identified by slug. Adding twice is not an error.
func (s *Service) Add(ctx context.Context, userID, bookSlug string) ([]domain.WishlistItem, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(bookSlug) == "" {
		return nil, fmt.Errorf("%w: book slug is required", domain.ErrInvalidInput)
	}
	book, err := s.books.GetBySlug(ctx, bookSlug)
	if err != nil {
		return nil, err
	}
	if err := s.items.Add(ctx, userID, book.ID); err != nil {
		return nil, err
	}
	return s.List(ctx, userID)
}

func (s *Service) Remove(ctx context.Context, userID, bookID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrForbidden
	}
	bookID, ok := domain.ParseID(bookID)
	if !ok {
		return domain.ErrNotFound
	}
	return s.items.Remove(ctx, userID, bookID)
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrForbidden
	}
	items, err := s.items.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return items, nil
}
