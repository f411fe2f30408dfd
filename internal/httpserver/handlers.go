package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookstore/internal/domain"
	catalogsvc "bookstore/internal/service/catalog"
	cartsvc "bookstore/internal/service/cart"
	ordersvc "bookstore/internal/service/order"
	reviewsvc "bookstore/internal/service/review"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

func intQuery(c *gin.Context, key string, def int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func (h *handlers) searchBooks(c *gin.Context) {
	page, err := h.deps.Catalog.Search(c.Request.Context(), catalogsvc.SearchInput{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Author:   c.Query("author"),
		Limit:    intQuery(c, "limit", 20),
		Offset:   intQuery(c, "offset", 0),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *handlers) getBook(c *gin.Context) {
	book, err := h.deps.Catalog.GetBook(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *handlers) listCategories(c *gin.Context) {
	categories, err := h.deps.Catalog.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *handlers) listAuthors(c *gin.Context) {
	authors, err := h.deps.Catalog.Authors(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authors": authors})
}

func (h *handlers) listReviews(c *gin.Context) {
	listing, err := h.deps.Reviews.ListForBook(c.Request.Context(), c.Param("slug"), intQuery(c, "limit", 20), intQuery(c, "offset", 0))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *handlers) submitReview(c *gin.Context) {
	var in reviewsvc.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid review body")
		return
	}
	review, err := h.deps.Reviews.Submit(c.Request.Context(), userFrom(c), c.Param("slug"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *handlers) getCart(c *gin.Context) {
	view, err := h.deps.Cart.Get(c.Request.Context(), userFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) addCartItem(c *gin.Context) {
	var in cartsvc.AddItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid cart item body")
		return
	}
	view, err := h.deps.Cart.AddItem(c.Request.Context(), userFrom(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "quantity is required")
		return
	}
	view, err := h.deps.Cart.UpdateQuantity(c.Request.Context(), userFrom(c), c.Param("itemId"), *req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	view, err := h.deps.Cart.RemoveItem(c.Request.Context(), userFrom(c), c.Param("itemId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) clearCart(c *gin.Context) {
	view, err := h.deps.Cart.Clear(c.Request.Context(), userFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) myOrders(c *gin.Context) {
	orders, err := h.deps.Orders.ListForUser(c.Request.Context(), userFrom(c), intQuery(c, "limit", 20), intQuery(c, "offset", 0))
	if err != nil {
		h.fail(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *handlers) lookupOrder(c *gin.Context) {
	order, err := h.deps.Orders.Lookup(c.Request.Context(), c.Param("reference"), userFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) getWishlist(c *gin.Context) {
	items, err := h.deps.Wishlist.List(c.Request.Context(), userFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type wishlistRequest struct {
	Slug string `json:"slug"`
}

func (h *handlers) addWishlist(c *gin.Context) {
	var req wishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid wishlist body")
		return
	}
	items, err := h.deps.Wishlist.Add(c.Request.Context(), userFrom(c), req.Slug)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *handlers) removeWishlist(c *gin.Context) {
	if err := h.deps.Wishlist.Remove(c.Request.Context(), userFrom(c), c.Param("bookId")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) saveBook(c *gin.Context) {
	var in catalogsvc.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid book body")
		return
	}
	book, err := h.deps.Catalog.SaveBook(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *handlers) deleteBook(c *gin.Context) {
	if err := h.deps.Catalog.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) saveCategory(c *gin.Context) {
	var in domain.Category
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid category body")
		return
	}
	category, err := h.deps.Catalog.SaveCategory(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *handlers) deleteCategory(c *gin.Context) {
	if err := h.deps.Catalog.DeleteCategory(c.Request.Context(), c.Param("slug")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) saveAuthor(c *gin.Context) {
	var in domain.Author
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid author body")
		return
	}
	author, err := h.deps.Catalog.SaveAuthor(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, author)
}

func (h *handlers) deleteAuthor(c *gin.Context) {
	if err := h.deps.Catalog.DeleteAuthor(c.Request.Context(), c.Param("slug")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listOrders(c *gin.Context) {
	page, err := h.deps.Orders.List(c.Request.Context(), ordersvc.ListInput{
		Status: c.Query("status"),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid status body")
		return
	}
	order, err := h.deps.Orders.UpdateStatus(c.Request.Context(), c.Param("reference"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// dashboard accepts from/to as RFC 3339 timestamps or YYYY-MM-DD dates.
func (h *handlers) dashboard(c *gin.Context) {
	from, err := parseTimeQuery(c.Query("from"))
	if err != nil {
		badRequest(c, "from: "+err.Error())
		return
	}
	to, err := parseTimeQuery(c.Query("to"))
	if err != nil {
		badRequest(c, "to: "+err.Error())
		return
	}
	d, err := h.deps.Orders.Dashboard(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func parseTimeQuery(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}
