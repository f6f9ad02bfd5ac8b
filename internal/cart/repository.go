package cart

import (
	"context"
	"sort"
	"sync"
)

// Repository persists the carts of authenticated users.
type Repository interface {
	FindCart(ctx context.Context, userID int) (Cart, error)
	// EnsureCart returns the user's cart, creating it when missing.
	EnsureCart(ctx context.Context, userID int) (Cart, error)
	ListItems(ctx context.Context, cartID int) ([]Item, error)
	// IncrementItem adds delta to the (cart, product) row, creating it with
	// quantity delta when absent.
	IncrementItem(ctx context.Context, cartID, productID, delta int) (Item, error)
	// DeleteItem removes the (cart, product) row and reports whether one existed.
	DeleteItem(ctx context.Context, cartID, productID int) (bool, error)
	// CountItems sums the quantities in the user's cart; 0 without a cart.
	CountItems(ctx context.Context, userID int) (int, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu         sync.RWMutex
	carts      map[int]Cart
	items      map[int]Item
	nextCartID int
	nextItemID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		carts:      make(map[int]Cart),
		items:      make(map[int]Item),
		nextCartID: 1,
		nextItemID: 1,
	}
}

func (r *InMemoryRepository) FindCart(_ context.Context, userID int) (Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[userID]
	if !ok {
		return Cart{}, ErrCartNotFound
	}
	return c, nil
}

func (r *InMemoryRepository) EnsureCart(_ context.Context, userID int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[userID]; ok {
		return c, nil
	}
	c := Cart{ID: r.nextCartID, UserID: userID}
	r.nextCartID++
	r.carts[userID] = c
	return c, nil
}

func (r *InMemoryRepository) ListItems(_ context.Context, cartID int) ([]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Item, 0)
	for _, it := range r.items {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) IncrementItem(_ context.Context, cartID, productID, delta int) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, it := range r.items {
		if it.CartID == cartID && it.ProductID == productID {
			it.Quantity += delta
			r.items[id] = it
			return it, nil
		}
	}
	it := Item{ID: r.nextItemID, CartID: cartID, ProductID: productID, Quantity: delta}
	r.nextItemID++
	r.items[it.ID] = it
	return it, nil
}

func (r *InMemoryRepository) DeleteItem(_ context.Context, cartID, productID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, it := range r.items {
		if it.CartID == cartID && it.ProductID == productID {
			delete(r.items, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryRepository) CountItems(_ context.Context, userID int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[userID]
	if !ok {
		return 0, nil
	}
	n := 0
	for _, it := range r.items {
		if it.CartID == c.ID {
			n += it.Quantity
		}
	}
	return n, nil
}
