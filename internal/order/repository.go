package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/product"
)

// Repository defines persistence operations for orders.
type Repository interface {
	// Checkout converts the user's cart into an order in one step: the
	// cart is read, priced by build, stored as an order and emptied. If
	// build fails nothing is written.
	Checkout(ctx context.Context, userID int, build Builder) (Order, error)
	GetByID(ctx context.Context, id int) (Order, error)
	// ListByUser and ListAll return orders newest first.
	ListByUser(ctx context.Context, userID int) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id int, field Field, value string) (Order, error)
}

// InMemoryRepository keeps orders in memory and empties carts held by a
// cart.Repository. Checkouts are serialized by a single mutex.
type InMemoryRepository struct {
	mu       sync.Mutex
	carts    cart.Repository
	products product.Repository
	orders   []Order
	nextID   int
	nextItem int
	now      func() time.Time
}

func NewInMemoryRepository(carts cart.Repository, products product.Repository) *InMemoryRepository {
	return &InMemoryRepository{
		carts:    carts,
		products: products,
		nextID:   1,
		nextItem: 1,
		now:      time.Now,
	}
}

func (r *InMemoryRepository) Checkout(ctx context.Context, userID int, build Builder) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.carts.FindCart(ctx, userID)
	if errors.Is(err, cart.ErrCartNotFound) {
		_, err = build(nil)
		return Order{}, err
	}
	if err != nil {
		return Order{}, err
	}
	items, err := r.carts.ListItems(ctx, c.ID)
	if err != nil {
		return Order{}, err
	}
	ids := make([]int, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := r.products.ListByIDs(ctx, ids)
	if err != nil {
		return Order{}, err
	}
	byID := make(map[int]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	lines := make([]cart.Line, 0, len(items))
	for _, it := range items {
		if p, ok := byID[it.ProductID]; ok {
			lines = append(lines, cart.Line{Product: p, Quantity: it.Quantity})
		}
	}

	draft, err := build(lines)
	if err != nil {
		return Order{}, err
	}

	ord := Order{
		ID:             r.nextID,
		UserID:         userID,
		Total:          draft.Total,
		Status:         StatusCreated,
		DeliveryStatus: DeliveryPending,
		CreatedAt:      r.now().UTC(),
		Items:          make([]Item, 0, len(draft.Items)),
	}
	r.nextID++
	for _, it := range draft.Items {
		it.ID = r.nextItem
		it.OrderID = ord.ID
		r.nextItem++
		ord.Items = append(ord.Items, it)
	}
	for _, it := range items {
		if _, err := r.carts.DeleteItem(ctx, c.ID, it.ProductID); err != nil {
			return Order{}, err
		}
	}
	r.orders = append(r.orders, ord)
	return cloneOrder(ord), nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			return cloneOrder(o), nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID int) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	newestFirst(out)
	return out, nil
}

func (r *InMemoryRepository) ListAll(_ context.Context) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, cloneOrder(o))
	}
	newestFirst(out)
	return out, nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id int, field Field, value string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders {
		if r.orders[i].ID != id {
			continue
		}
		switch field {
		case FieldStatus:
			r.orders[i].Status = value
		case FieldDeliveryStatus:
			r.orders[i].DeliveryStatus = value
		default:
			return Order{}, ErrInvalidField
		}
		return cloneOrder(r.orders[i]), nil
	}
	return Order{}, ErrNotFound
}

func newestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

func cloneOrder(o Order) Order {
	items := make([]Item, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
