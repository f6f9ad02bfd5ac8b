package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/cart"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidField = errors.New("invalid order status field")
)

const (
	StatusCreated   = "Created"
	StatusProcessed = "Processed"
	StatusPaid      = "Paid"

	DeliveryPending   = "Pending"
	DeliveryDelivered = "Delivered"
)

// Field names one of the two independently updated status columns.
type Field int

const (
	FieldStatus Field = iota
	FieldDeliveryStatus
)

// Order is a completed checkout. Only the status fields change after it is
// created.
type Order struct {
	ID             int             `json:"orderId"`
	UserID         int             `json:"userId"`
	Total          decimal.Decimal `json:"totalAmount"`
	Status         string          `json:"status"`
	DeliveryStatus string          `json:"deliveryStatus"`
	CreatedAt      time.Time       `json:"createdAt"`
	Items          []Item          `json:"items"`
}

// Item is an order line. Price is the unit price at checkout time and does
// not follow later catalogue changes.
type Item struct {
	ID          int             `json:"orderItemId"`
	OrderID     int             `json:"orderId"`
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Draft is a priced order that has not been stored yet.
type Draft struct {
	Total decimal.Decimal
	Items []Item
}

// Builder prices the locked cart lines of a checkout.
type Builder func(lines []cart.Line) (Draft, error)

// Price freezes the current product prices of lines into a Draft. An empty
// cart yields ErrEmptyCart.
func Price(lines []cart.Line) (Draft, error) {
	if len(lines) == 0 {
		return Draft{}, ErrEmptyCart
	}
	d := Draft{Total: decimal.Zero, Items: make([]Item, 0, len(lines))}
	for _, l := range lines {
		d.Total = d.Total.Add(l.Subtotal())
		d.Items = append(d.Items, Item{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			Price:       l.Product.Price,
		})
	}
	return d, nil
}
