package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesSummary aggregates paid-or-later orders over a time window.
type SalesSummary struct {
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	OrderCount        int             `json:"orderCount"`
	Revenue           decimal.Decimal `json:"revenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	BooksSold         int             `json:"booksSold"`
}

type TopBook struct {
	BookID   string          `json:"bookId"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type StatusCount struct {
	Status OrderStatus `json:"status"`
	Count  int         `json:"count"`
}

type Dashboard struct {
	Sales     SalesSummary  `json:"sales"`
	TopBooks  []TopBook     `json:"topBooks"`
	ByStatus  []StatusCount `json:"byStatus"`
	Generated time.Time     `json:"generatedAt"`
}
