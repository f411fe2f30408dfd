package httpserver

import (
	"context"
	"testing"
	"time"

	"bookstore/internal/domain"
	catalogsvc "bookstore/internal/service/catalog"
	cartsvc "bookstore/internal/service/cart"
	"bookstore/internal/service/checkout"
	ordersvc "bookstore/internal/service/order"
	reviewsvc "bookstore/internal/service/review"
	"github.com/gin-gonic/gin"
)

type stubCatalog struct {
	books      map[string]*domain.Book
	saveErr    error
	lastSearch catalogsvc.SearchInput
	deleted    []string
}

func (s *stubCatalog) Search(_ context.Context, in catalogsvc.SearchInput) (*catalogsvc.Page, error) {
	s.lastSearch = in
	out := []domain.Book{}
	for _, b := range s.books {
		out = append(out, *b)
	}
	return &catalogsvc.Page{Books: out, Total: len(out), Limit: in.Limit, Offset: in.Offset}, nil
}

func (s *stubCatalog) GetBook(_ context.Context, slug string) (*domain.Book, error) {
	b, ok := s.books[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (s *stubCatalog) SaveBook(_ context.Context, in catalogsvc.BookInput) (*domain.Book, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	return &domain.Book{ID: "b-new", Slug: in.Slug, Title: in.Title}, nil
}

func (s *stubCatalog) DeleteBook(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubCatalog) Categories(_ context.Context) ([]domain.Category, error) {
	return []domain.Category{{Slug: "fiction", Name: "Fiction"}}, nil
}

func (s *stubCatalog) SaveCategory(_ context.Context, c domain.Category) (*domain.Category, error) {
	return &c, nil
}

func (s *stubCatalog) DeleteCategory(_ context.Context, slug string) error {
	s.deleted = append(s.deleted, slug)
	return nil
}

func (s *stubCatalog) Authors(_ context.Context) ([]domain.Author, error) {
	return []domain.Author{}, nil
}

func (s *stubCatalog) SaveAuthor(_ context.Context, a domain.Author) (*domain.Author, error) {
	return &a, nil
}

func (s *stubCatalog) DeleteAuthor(_ context.Context, slug string) error {
	s.deleted = append(s.deleted, slug)
	return nil
}

type stubCart struct {
	lastUser string
	lastQty  int
	err      error
}

func (s *stubCart) view(userID string) (*cartsvc.View, error) {
	s.lastUser = userID
	if s.err != nil {
		return nil, s.err
	}
	return &cartsvc.View{Cart: &domain.Cart{ID: "c1", UserID: userID}, Lines: []cartsvc.Line{}}, nil
}

func (s *stubCart) Get(_ context.Context, userID string) (*cartsvc.View, error) {
	return s.view(userID)
}

func (s *stubCart) AddItem(_ context.Context, userID string, in cartsvc.AddItemInput) (*cartsvc.View, error) {
	s.lastQty = in.Quantity
	return s.view(userID)
}

func (s *stubCart) UpdateQuantity(_ context.Context, userID, _ string, quantity int) (*cartsvc.View, error) {
	s.lastQty = quantity
	return s.view(userID)
}

func (s *stubCart) RemoveItem(_ context.Context, userID, _ string) (*cartsvc.View, error) {
	return s.view(userID)
}

func (s *stubCart) Clear(_ context.Context, userID string) (*cartsvc.View, error) {
	return s.view(userID)
}

type stubOrders struct {
	order      *domain.Order
	lookupUser string
	statusErr  error
	from, to   time.Time
}

func (s *stubOrders) Lookup(_ context.Context, reference, userID string) (*domain.Order, error) {
	s.lookupUser = userID
	if s.order == nil || s.order.ReferenceCode != reference {
		return nil, domain.ErrNotFound
	}
	return s.order, nil
}

func (s *stubOrders) ListForUser(_ context.Context, _ string, _, _ int) ([]domain.Order, error) {
	return nil, nil
}

func (s *stubOrders) List(_ context.Context, _ ordersvc.ListInput) (*ordersvc.Page, error) {
	return &ordersvc.Page{Orders: []domain.Order{}}, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, _, status string) (*domain.Order, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	o := *s.order
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func (s *stubOrders) Dashboard(_ context.Context, from, to time.Time) (*domain.Dashboard, error) {
	s.from, s.to = from, to
	return &domain.Dashboard{}, nil
}

type stubReviews struct{}

func (stubReviews) Submit(_ context.Context, userID, _ string, in reviewsvc.SubmitInput) (*domain.Review, error) {
	return &domain.Review{ID: "r1", UserID: userID, Rating: in.Rating}, nil
}

func (stubReviews) ListForBook(_ context.Context, _ string, _, _ int) (*reviewsvc.Listing, error) {
	return &reviewsvc.Listing{Reviews: []domain.Review{}}, nil
}

type stubWishlist struct{}

func (stubWishlist) Add(_ context.Context, _, _ string) ([]domain.WishlistItem, error) {
	return []domain.WishlistItem{{BookID: "b1"}}, nil
}

func (stubWishlist) Remove(_ context.Context, _, _ string) error { return nil }

func (stubWishlist) List(_ context.Context, _ string) ([]domain.WishlistItem, error) {
	return []domain.WishlistItem{}, nil
}

type stubCheckout struct {
	payload   []byte
	signature string
	result    checkout.Result
	err       error
}

func (s *stubCheckout) HandleWebhook(_ context.Context, payload []byte, signature string) (checkout.Result, error) {
	s.payload, s.signature = payload, signature
	return s.result, s.err
}

func testDeps() Deps {
	return Deps{
		Catalog:  &stubCatalog{books: map[string]*domain.Book{"dune": {ID: "b1", Slug: "dune", Title: "Dune"}}},
		Cart:     &stubCart{},
		Orders:   &stubOrders{},
		Reviews:  stubReviews{},
		Wishlist: stubWishlist{},
		Checkout: &stubCheckout{},
	}
}

func testRouter(t *testing.T, deps Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(nil, nil, deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}
