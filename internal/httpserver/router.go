package httpserver

import (
	"context"
	"errors"
	"time"

	"bookstore/internal/domain"
	"bookstore/internal/logging"
	catalogsvc "bookstore/internal/service/catalog"
	cartsvc "bookstore/internal/service/cart"
	"bookstore/internal/service/checkout"
	ordersvc "bookstore/internal/service/order"
	reviewsvc "bookstore/internal/service/review"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type CatalogService interface {
	Search(ctx context.Context, in catalogsvc.SearchInput) (*catalogsvc.Page, error)
	GetBook(ctx context.Context, slug string) (*domain.Book, error)
	SaveBook(ctx context.Context, in catalogsvc.BookInput) (*domain.Book, error)
	DeleteBook(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]domain.Category, error)
	SaveCategory(ctx context.Context, c domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, slug string) error
	Authors(ctx context.Context) ([]domain.Author, error)
	SaveAuthor(ctx context.Context, a domain.Author) (*domain.Author, error)
	DeleteAuthor(ctx context.Context, slug string) error
}

type CartService interface {
	Get(ctx context.Context, userID string) (*cartsvc.View, error)
	AddItem(ctx context.Context, userID string, in cartsvc.AddItemInput) (*cartsvc.View, error)
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*cartsvc.View, error)
	RemoveItem(ctx context.Context, userID, itemID string) (*cartsvc.View, error)
	Clear(ctx context.Context, userID string) (*cartsvc.View, error)
}

type OrderService interface {
	Lookup(ctx context.Context, reference, userID string) (*domain.Order, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
	List(ctx context.Context, in ordersvc.ListInput) (*ordersvc.Page, error)
	UpdateStatus(ctx context.Context, reference, status string) (*domain.Order, error)
	Dashboard(ctx context.Context, from, to time.Time) (*domain.Dashboard, error)
}

type ReviewService interface {
	Submit(ctx context.Context, userID, bookSlug string, in reviewsvc.SubmitInput) (*domain.Review, error)
	ListForBook(ctx context.Context, bookSlug string, limit, offset int) (*reviewsvc.Listing, error)
}

type WishlistService interface {
	Add(ctx context.Context, userID, bookSlug string) ([]domain.WishlistItem, error)
	Remove(ctx context.Context, userID, bookID string) error
	List(ctx context.Context, userID string) ([]domain.WishlistItem, error)
}

type WebhookHandler interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (checkout.Result, error)
}

// Deps are the services behind the routes. Metrics is optional.
type Deps struct {
	Catalog  CatalogService
	Cart     CartService
	Orders   OrderService
	Reviews  ReviewService
	Wishlist WishlistService
	Checkout WebhookHandler

	// AdminTokenHash is the bcrypt hash of the admin bearer token. Empty
	// disables the admin routes.
	AdminTokenHash     string
	CORSAllowedOrigins []string
	Metrics            *Metrics
}

func (d Deps) validate() error {
	var errs []error
	if d.Catalog == nil {
		errs = append(errs, errors.New("catalog service is required"))
	}
	if d.Cart == nil {
		errs = append(errs, errors.New("cart service is required"))
	}
	if d.Orders == nil {
		errs = append(errs, errors.New("order service is required"))
	}
	if d.Reviews == nil {
		errs = append(errs, errors.New("review service is required"))
	}
	if d.Wishlist == nil {
		errs = append(errs, errors.New("wishlist service is required"))
	}
	if d.Checkout == nil {
		errs = append(errs, errors.New("checkout handler is required"))
	}
	return errors.Join(errs...)
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db Pinger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	logger = logging.OrNop(logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(accessLog(logger), gin.Recovery())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.middleware())
	}
	if len(deps.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", userHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handlers{deps: deps, logger: logger}

	router.POST("/webhooks/stripe", h.stripeWebhook)

	router.GET("/books", h.searchBooks)
	router.GET("/books/:slug", h.getBook)
	router.GET("/books/:slug/reviews", h.listReviews)
	router.GET("/categories", h.listCategories)
	router.GET("/authors", h.listAuthors)
	router.GET("/orders/:reference", optionalUser(), h.lookupOrder)

	me := router.Group("/", requireUser())
	me.GET("/me/cart", h.getCart)
	me.POST("/me/cart/items", h.addCartItem)
	me.PATCH("/me/cart/items/:itemId", h.updateCartItem)
	me.DELETE("/me/cart/items/:itemId", h.removeCartItem)
	me.DELETE("/me/cart", h.clearCart)
	me.GET("/me/orders", h.myOrders)
	me.GET("/me/wishlist", h.getWishlist)
	me.POST("/me/wishlist", h.addWishlist)
	me.DELETE("/me/wishlist/:bookId", h.removeWishlist)
	me.POST("/books/:slug/reviews", h.submitReview)

	admin := router.Group("/admin", requireAdmin(deps.AdminTokenHash))
	admin.PUT("/books", h.saveBook)
	admin.DELETE("/books/:id", h.deleteBook)
	admin.PUT("/categories", h.saveCategory)
	admin.DELETE("/categories/:slug", h.deleteCategory)
	admin.PUT("/authors", h.saveAuthor)
	admin.DELETE("/authors/:slug", h.deleteAuthor)
	admin.GET("/orders", h.listOrders)
	admin.PATCH("/orders/:reference/status", h.updateOrderStatus)
	admin.GET("/dashboard", h.dashboard)

	return router, nil
}
