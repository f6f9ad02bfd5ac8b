package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/product"
)

var (
	ErrCartNotFound   = errors.New("cart not found")
	ErrInvalidProduct = errors.New("invalid product id")
	ErrLoginRequired  = errors.New("login required")
)

// Cart is the persisted cart of an authenticated user. It is created on the
// first add and is never deleted; checkout leaves it empty.
type Cart struct {
	ID     int `json:"cartId"`
	UserID int `json:"userId"`
}

// Item is one row of a persisted cart. There is at most one Item per
// (CartID, ProductID) and Quantity is always positive.
type Item struct {
	ID        int `json:"cartItemId"`
	CartID    int `json:"cartId"`
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// Line is a cart entry resolved against the catalogue.
type Line struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Subtotal is price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// View is what a viewer sees of their cart regardless of where it is stored.
type View struct {
	Lines []Line          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func newView(lines []Line) View {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	if lines == nil {
		lines = []Line{}
	}
	return View{Lines: lines, Total: total}
}

// Shopper is the set of cart operations available to one viewer. The
// database-backed and the session-backed carts both implement it.
type Shopper interface {
	View(ctx context.Context) (View, error)
	Add(ctx context.Context, productID int) error
	Remove(ctx context.Context, productID int) error
	Count(ctx context.Context) (int, error)
}

// SessionStore is the per-request session holding an anonymous cart as a
// product id -> quantity map. Load never fails; Save persists the map.
type SessionStore interface {
	Load() map[string]int
	Save(cart map[string]int) error
}
