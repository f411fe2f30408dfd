package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusInTransit OrderStatus = "IN_TRANSIT"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCanceled},
	OrderStatusPaid:      {OrderStatusInTransit, OrderStatusRefunded, OrderStatusCanceled},
	OrderStatusInTransit: {OrderStatusDelivered, OrderStatusRefunded},
	OrderStatusDelivered: {OrderStatusRefunded},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusInTransit,
		OrderStatusDelivered, OrderStatusRefunded, OrderStatusCanceled:
		return true
	}
	return false
}

// CanTransition reports whether fulfilment may move an order from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is the durable record of a completed purchase. Customer and shipping fields
// are a snapshot taken at checkout and are never re-joined to a profile.
type Order struct {
	ID                string           `json:"-"`
	ReferenceCode     string           `json:"referenceCode"`
	UserID            string           `json:"userId"`
	CheckoutSessionID string           `json:"-"`
	PaymentIntentID   string           `json:"-"`
	Currency          string           `json:"currency"`
	SubTotal          decimal.Decimal  `json:"subTotal"`
	ShippingFee       decimal.Decimal  `json:"shippingFee"`
	Tax               decimal.Decimal  `json:"tax"`
	Discount          decimal.Decimal  `json:"discount"`
	Total             decimal.Decimal  `json:"total"`
	Status            OrderStatus      `json:"status"`
	PaymentStatus     string           `json:"paymentStatus"`
	Customer          CustomerSnapshot `json:"customer"`
	Items             []OrderItem      `json:"items,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

type CustomerSnapshot struct {
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

type OrderItem struct {
	ID        string          `json:"-"`
	OrderID   string          `json:"-"`
	BookID    string          `json:"bookId"`
	VariantID string          `json:"variantId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	SubTotal  decimal.Decimal `json:"subTotal"`
	Name      string          `json:"name"`
	Format    Format          `json:"format"`
	Images    []string        `json:"images,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ComputedTotal is subtotal + shipping + tax - discount.
func (o Order) ComputedTotal() decimal.Decimal {
	return o.SubTotal.Add(o.ShippingFee).Add(o.Tax).Sub(o.Discount)
}

// ItemsSubTotal sums the line subtotals of the loaded items.
func (o Order) ItemsSubTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.SubTotal)
	}
	return sum
}
