package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"bookstore/internal/domain"
	"bookstore/internal/payment"
	bookrepo "bookstore/internal/repository/book"
	"github.com/shopspring/decimal"
)

type bookRepo interface {
	List(ctx context.Context, f bookrepo.Filter) ([]domain.Book, int, error)
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Book, error)
	Upsert(ctx context.Context, b domain.Book) (*domain.Book, error)
	Delete(ctx context.Context, id string) error
}

type categoryRepo interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, slug string) error
}

type authorRepo interface {
	List(ctx context.Context) ([]domain.Author, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Author, error)
	Upsert(ctx context.Context, a domain.Author) (*domain.Author, error)
	Delete(ctx context.Context, slug string) error
}

type Service struct {
	books      bookRepo
	categories categoryRepo
	authors    authorRepo
}

func New(books bookRepo, categories categoryRepo, authors authorRepo) *Service {
	return &Service{books: books, categories: categories, authors: authors}
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}

type SearchInput struct {
	Query    string
	Category string
	Author   string
	Limit    int
	Offset   int
}

type Page struct {
	Books  []domain.Book `json:"books"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

func (s *Service) Search(ctx context.Context, in SearchInput) (*Page, error) {
	if in.Limit <= 0 || in.Limit > 100 {
		in.Limit = 20
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
	books, total, err := s.books.List(ctx, bookrepo.Filter{
		Query:        strings.TrimSpace(in.Query),
		CategorySlug: strings.TrimSpace(in.Category),
		AuthorSlug:   strings.TrimSpace(in.Author),
		Limit:        in.Limit,
		Offset:       in.Offset,
	})
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []domain.Book{}
	}
	return &Page{Books: books, Total: total, Limit: in.Limit, Offset: in.Offset}, nil
}

func (s *Service) GetBook(ctx context.Context, slug string) (*domain.Book, error) {
	return s.books.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

type VariantInput struct {
	Format   string          `json:"format"`
	SKU      string          `json:"sku"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Stock    int             `json:"stock"`
}

type BookInput struct {
	Slug         string         `json:"slug"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	ISBN         string         `json:"isbn"`
	AuthorSlug   string         `json:"authorSlug"`
	CategorySlug string         `json:"categorySlug"`
	Images       []string       `json:"images"`
	Variants     []VariantInput `json:"variants"`
}

// SaveBook creates or replaces the book with in.Slug, derived from the title
// when empty.
func (s *Service) SaveBook(ctx context.Context, in BookInput) (*domain.Book, error) {
	b, err := s.bookFromInput(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.books.Upsert(ctx, *b)
}

func (s *Service) bookFromInput(ctx context.Context, in BookInput) (*domain.Book, error) {
	var problems []string
	title := strings.TrimSpace(in.Title)
	if title == "" {
		problems = append(problems, "title required")
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if !slugPattern.MatchString(slug) {
		problems = append(problems, fmt.Sprintf("invalid slug %q", slug))
	}
	if len(in.Variants) == 0 {
		problems = append(problems, "at least one variant required")
	}

	b := &domain.Book{
		Slug:        slug,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		ISBN:        strings.ReplaceAll(strings.TrimSpace(in.ISBN), "-", ""),
		Images:      in.Images,
	}
	seenFormat := map[domain.Format]bool{}
	seenSKU := map[string]bool{}
	for i, vi := range in.Variants {
		format, ok := domain.ParseFormat(vi.Format)
		if !ok {
			problems = append(problems, fmt.Sprintf("variant %d: unknown format %q", i, vi.Format))
			continue
		}
		sku := strings.ToUpper(strings.TrimSpace(vi.SKU))
		switch {
		case sku == "":
			problems = append(problems, fmt.Sprintf("variant %d: sku required", i))
		case seenSKU[sku]:
			problems = append(problems, fmt.Sprintf("variant %d: duplicate sku %s", i, sku))
		case seenFormat[format]:
			problems = append(problems, fmt.Sprintf("variant %d: duplicate format %s", i, format))
		}
		if vi.Price.IsNegative() {
			problems = append(problems, fmt.Sprintf("variant %d: price must not be negative", i))
		}
		if vi.Stock < 0 {
			problems = append(problems, fmt.Sprintf("variant %d: stock must not be negative", i))
		}
		currency := strings.ToUpper(strings.TrimSpace(vi.Currency))
		if currency == "" {
			currency = "USD"
		}
		switch {
		case len(currency) != 3:
			problems = append(problems, fmt.Sprintf("variant %d: invalid currency %q", i, vi.Currency))
		case !payment.Supported(currency):
			problems = append(problems, fmt.Sprintf("variant %d: unsupported currency %s", i, currency))
		}
		seenFormat[format] = true
		seenSKU[sku] = true
		b.Variants = append(b.Variants, domain.BookVariant{
			Format:   format,
			SKU:      sku,
			Price:    vi.Price.Round(2),
			Currency: currency,
			Stock:    vi.Stock,
		})
	}

	if slug := strings.TrimSpace(in.AuthorSlug); slug != "" {
		a, err := s.authors.GetBySlug(ctx, slug)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			problems = append(problems, fmt.Sprintf("unknown author %q", slug))
		case err != nil:
			return nil, err
		default:
			b.AuthorID = &a.ID
		}
	}
	if slug := strings.TrimSpace(in.CategorySlug); slug != "" {
		c, err := s.categories.GetBySlug(ctx, slug)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			problems = append(problems, fmt.Sprintf("unknown category %q", slug))
		case err != nil:
			return nil, err
		default:
			b.CategoryID = &c.ID
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return b, nil
}

func (s *Service) DeleteBook(ctx context.Context, id string) error {
	id, ok := domain.ParseID(id)
	if !ok {
		return domain.ErrNotFound
	}
	return s.books.Delete(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *Service) SaveCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, fmt.Errorf("%w: name required", domain.ErrInvalidInput)
	}
	if c.Slug = strings.TrimSpace(c.Slug); c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	if !slugPattern.MatchString(c.Slug) {
		return nil, fmt.Errorf("%w: invalid slug %q", domain.ErrInvalidInput, c.Slug)
	}
	return s.categories.Upsert(ctx, c)
}

func (s *Service) DeleteCategory(ctx context.Context, slug string) error {
	return s.categories.Delete(ctx, slug)
}

func (s *Service) Authors(ctx context.Context) ([]domain.Author, error) {
	return s.authors.List(ctx)
}

func (s *Service) SaveAuthor(ctx context.Context, a domain.Author) (*domain.Author, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return nil, fmt.Errorf("%w: name required", domain.ErrInvalidInput)
	}
	if a.Slug = strings.TrimSpace(a.Slug); a.Slug == "" {
		a.Slug = Slugify(a.Name)
	}
	if !slugPattern.MatchString(a.Slug) {
		return nil, fmt.Errorf("%w: invalid slug %q", domain.ErrInvalidInput, a.Slug)
	}
	return s.authors.Upsert(ctx, a)
}

func (s *Service) DeleteAuthor(ctx context.Context, slug string) error {
	return s.authors.Delete(ctx, slug)
}
