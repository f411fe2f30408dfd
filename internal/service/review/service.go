package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"bookstore/internal/domain"
)

const (
	maxTitleLen = 120
	maxBodyLen  = 4000
)

type reviewRepo interface {
	Create(ctx context.Context, r domain.Review) (*domain.Review, error)
	ListByBook(ctx context.Context, bookID string, limit, offset int) ([]domain.Review, error)
	RatingForBook(ctx context.Context, bookID string) (domain.Rating, error)
}

type bookRepo interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Book, error)
}

type Service struct {
	reviews reviewRepo
	books   bookRepo
}

func New(reviews reviewRepo, books bookRepo) *Service {
	return &Service{reviews: reviews, books: books}
}

type SubmitInput struct {
	Rating int    `json:"rating"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type Listing struct {
	Rating  domain.Rating   `json:"rating"`
	Reviews []domain.Review `json:"reviews"`
}

// Submit stores one review per user and book.
func (s *Service) Submit(ctx context.Context, userID, bookSlug string, in SubmitInput) (*domain.Review, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrForbidden
	}
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Body)

	var problems []string
	if in.Rating < 1 || in.Rating > 5 {
		problems = append(problems, "rating must be between 1 and 5")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		problems = append(problems, fmt.Sprintf("title is longer than %d characters", maxTitleLen))
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		problems = append(problems, fmt.Sprintf("body is longer than %d characters", maxBodyLen))
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}

	book, err := s.books.GetBySlug(ctx, bookSlug)
	if err != nil {
		return nil, err
	}
	r, err := s.reviews.Create(ctx, domain.Review{BookID: book.ID, UserID: userID, Rating: in.Rating, Title: title, Body: body})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil, fmt.Errorf("%w: book already reviewed", domain.ErrAlreadyExists)
	}
	return r, err
}

func (s *Service) ListForBook(ctx context.Context, bookSlug string, limit, offset int) (*Listing, error) {
	book, err := s.books.GetBySlug(ctx, bookSlug)
	if err != nil {
		return nil, err
	}
	rating, err := s.reviews.RatingForBook(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByBook(ctx, book.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return &Listing{Rating: rating, Reviews: reviews}, nil
}
