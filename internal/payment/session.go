package payment

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// EventCheckoutSessionCompleted is the only event type that materializes an order.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// StatusPaid is the processor payment status that marks an order PAID.
const StatusPaid = "paid"

var (
	// ErrInvalidSignature means the payload was not signed with the shared secret.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedEvent means a correctly signed event could not be decoded.
	ErrMalformedEvent = errors.New("malformed webhook event")
	// ErrInvalidMetadata means a line item claiming to be a book lacks required metadata.
	ErrInvalidMetadata = errors.New("invalid line item metadata")
	// ErrUnsupportedCurrency means amounts in the currency cannot be stored at two decimals.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// Event is a verified processor notification.
type Event struct {
	ID   string
	Type string
	// Session is set for checkout session events only.
	Session *Session
}

// Session is the processor's completed checkout, as observed once at completion.
// Amounts are in minor units of Currency.
type Session struct {
	ID              string
	PaymentIntentID string
	Metadata        map[string]string
	Currency        string
	PaymentStatus   string
	AmountSubtotal  int64
	AmountTotal     int64
	AmountShipping  int64
	AmountTax       int64
	AmountDiscount  int64
	Customer        Customer
}

// UserID is the buyer the storefront attached when it opened the session.
func (s Session) UserID() string {
	return strings.TrimSpace(s.Metadata["userId"])
}

// CartID is the cart the session was opened from.
func (s Session) CartID() string {
	return strings.TrimSpace(s.Metadata["cartId"])
}

// Paid reports whether the processor considers the session paid.
func (s Session) Paid() bool {
	return strings.EqualFold(s.PaymentStatus, StatusPaid)
}

type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address Address
}

type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// LineItem is one purchased entry as reported by the processor.
type LineItem struct {
	ID              string
	Description     string
	Quantity        int64
	AmountSubtotal  int64
	AmountTotal     int64
	Currency        string
	ProductID       string
	ProductName     string
	ProductImages   []string
	ProductMetadata map[string]string
}

var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {}, "KRW": {}, "MGA": {},
	"PYG": {}, "RWF": {}, "UGX": {}, "VND": {}, "VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

var threeDecimalCurrencies = map[string]struct{}{
	"BHD": {}, "JOD": {}, "KWD": {}, "OMR": {}, "TND": {},
}

// Scale is the number of decimal places of the currency's minor unit.
func Scale(currency string) int32 {
	c := strings.ToUpper(strings.TrimSpace(currency))
	if _, ok := zeroDecimalCurrencies[c]; ok {
		return 0
	}
	if _, ok := threeDecimalCurrencies[c]; ok {
		return 3
	}
	return 2
}

// Supported reports whether order amounts in the currency fit the two decimal
// places orders are stored with.
func Supported(currency string) bool {
	return Scale(currency) <= 2
}

// ToAmount converts minor units (e.g. cents) to currency units.
func ToAmount(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -Scale(currency))
}
