package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bookstore/internal/domain"
	catalogsvc "bookstore/internal/service/catalog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Catalog is the write side of the catalog the importer feeds.
type Catalog interface {
	SaveBook(ctx context.Context, in catalogsvc.BookInput) (*domain.Book, error)
	SaveAuthor(ctx context.Context, a domain.Author) (*domain.Author, error)
	SaveCategory(ctx context.Context, c domain.Category) (*domain.Category, error)
}

// CSVImporter reads book CSV files and upserts books with their authors and
// categories. A row with an empty slug and title continues the previous book:
// it may add a variant, an image, or both.
type CSVImporter struct {
	reader  *csv.Reader
	catalog Catalog
	logger  *zap.Logger

	authors    map[string]string
	categories map[string]string
}

func NewCSVImporter(r io.Reader, catalog Catalog, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVImporter{
		reader:     csvr,
		catalog:    catalog,
		logger:     logger,
		authors:    map[string]string{},
		categories: map[string]string{},
	}
}

type bookRow struct {
	line     int
	slug     string
	title    string
	desc     string
	isbn     string
	author   string
	category string
	variants []catalogsvc.VariantInput
	images   []string
}

// Run parses CSV rows and upserts books grouped by slug or title.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["title"]; !ok {
		return 0, errors.New("missing title column")
	}

	var (
		current  *bookRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		row, err := parseRow(record, index, line)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		if row.title != "" || row.slug != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		if current == nil {
			return imported, fmt.Errorf("line %d: continuation row before any book", line)
		}
		current.variants = append(current.variants, row.variants...)
		current.images = append(current.images, row.images...)
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *bookRow) error {
	in := catalogsvc.BookInput{
		Slug:        row.slug,
		Title:       row.title,
		Description: row.desc,
		ISBN:        row.isbn,
		Images:      row.images,
		Variants:    row.variants,
	}
	if row.author != "" {
		slug, err := i.ensureAuthor(ctx, row.author)
		if err != nil {
			return fmt.Errorf("line %d: author %q: %w", row.line, row.author, err)
		}
		in.AuthorSlug = slug
	}
	if row.category != "" {
		slug, err := i.ensureCategory(ctx, row.category)
		if err != nil {
			return fmt.Errorf("line %d: category %q: %w", row.line, row.category, err)
		}
		in.CategorySlug = slug
	}

	book, err := i.catalog.SaveBook(ctx, in)
	if err != nil {
		return fmt.Errorf("line %d: save book %q: %w", row.line, row.title, err)
	}
	i.logger.Debug("imported book", zap.String("slug", book.Slug), zap.Int("variants", len(book.Variants)))
	return nil
}

func (i *CSVImporter) ensureAuthor(ctx context.Context, name string) (string, error) {
	if slug, ok := i.authors[name]; ok {
		return slug, nil
	}
	a, err := i.catalog.SaveAuthor(ctx, domain.Author{Name: name})
	if err != nil {
		return "", err
	}
	i.authors[name] = a.Slug
	return a.Slug, nil
}

func (i *CSVImporter) ensureCategory(ctx context.Context, name string) (string, error) {
	if slug, ok := i.categories[name]; ok {
		return slug, nil
	}
	c, err := i.catalog.SaveCategory(ctx, domain.Category{Name: name})
	if err != nil {
		return "", err
	}
	i.categories[name] = c.Slug
	return c.Slug, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*bookRow, error) {
	row := &bookRow{
		line:     line,
		slug:     pick(record, index, "slug"),
		title:    pick(record, index, "title"),
		desc:     pick(record, index, "description"),
		isbn:     pick(record, index, "isbn"),
		author:   pick(record, index, "author"),
		category: pick(record, index, "category"),
	}
	if img := pick(record, index, "image"); img != "" {
		row.images = []string{img}
	}

	if format := pick(record, index, "format"); format != "" {
		v := catalogsvc.VariantInput{
			Format:   format,
			SKU:      pick(record, index, "sku"),
			Currency: pick(record, index, "currency"),
		}
		price, err := decimal.NewFromString(pick(record, index, "price"))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid price: %w", line, err)
		}
		v.Price = price
		if s := pick(record, index, "stock"); s != "" {
			stock, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid stock %q", line, s)
			}
			v.Stock = stock
		}
		row.variants = []catalogsvc.VariantInput{v}
	}

	if row.title == "" && row.slug == "" && len(row.variants) == 0 && len(row.images) == 0 {
		return nil, nil
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
