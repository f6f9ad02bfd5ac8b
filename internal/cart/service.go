package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/wichananm65/storefront-backend/internal/product"
)

// Service hands out the cart of a viewer. Which backend serves it is decided
// once, when the Shopper is built.
type Service struct {
	repo     Repository
	products product.Repository
}

func NewService(repo Repository, products product.Repository) *Service {
	return &Service{repo: repo, products: products}
}

// ForUser returns the database-backed cart of an authenticated user.
func (s *Service) ForUser(userID int) Shopper {
	return &userCart{svc: s, userID: userID}
}

// ForSession returns the cart kept in an anonymous visitor's session.
func (s *Service) ForSession(store SessionStore) Shopper {
	return &sessionCart{svc: s, store: store}
}

// resolve pairs product ids with catalogue entries in the order given.
// Ids that no longer resolve are dropped.
func (s *Service) resolve(ctx context.Context, ids []int, qty func(int) int) ([]Line, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	products, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve cart products: %w", err)
	}
	byID := make(map[int]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	lines := make([]Line, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		lines = append(lines, Line{Product: p, Quantity: qty(id)})
	}
	return lines, nil
}

type userCart struct {
	svc    *Service
	userID int
}

func (u *userCart) View(ctx context.Context) (View, error) {
	c, err := u.svc.repo.FindCart(ctx, u.userID)
	if errors.Is(err, ErrCartNotFound) {
		return newView(nil), nil
	}
	if err != nil {
		return View{}, err
	}
	items, err := u.svc.repo.ListItems(ctx, c.ID)
	if err != nil {
		return View{}, err
	}
	qty := make(map[int]int, len(items))
	ids := make([]int, 0, len(items))
	for _, it := range items {
		qty[it.ProductID] = it.Quantity
		ids = append(ids, it.ProductID)
	}
	lines, err := u.svc.resolve(ctx, ids, func(id int) int { return qty[id] })
	if err != nil {
		return View{}, err
	}
	return newView(lines), nil
}

func (u *userCart) Add(ctx context.Context, productID int) error {
	if productID <= 0 {
		return ErrInvalidProduct
	}
	c, err := u.svc.repo.EnsureCart(ctx, u.userID)
	if err != nil {
		return err
	}
	_, err = u.svc.repo.IncrementItem(ctx, c.ID, productID, 1)
	return err
}

func (u *userCart) Remove(ctx context.Context, productID int) error {
	c, err := u.svc.repo.FindCart(ctx, u.userID)
	if errors.Is(err, ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = u.svc.repo.DeleteItem(ctx, c.ID, productID)
	return err
}

func (u *userCart) Count(ctx context.Context) (int, error) {
	return u.svc.repo.CountItems(ctx, u.userID)
}

type sessionCart struct {
	svc   *Service
	store SessionStore
}

func (s *sessionCart) View(ctx context.Context) (View, error) {
	stored := s.store.Load()
	qty := make(map[int]int, len(stored))
	ids := make([]int, 0, len(stored))
	for key, n := range stored {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		qty[id] = n
		ids = append(ids, id)
	}
	sort.Ints(ids)
	lines, err := s.svc.resolve(ctx, ids, func(id int) int { return qty[id] })
	if err != nil {
		return View{}, err
	}
	return newView(lines), nil
}

func (s *sessionCart) Add(_ context.Context, productID int) error {
	if productID <= 0 {
		return ErrInvalidProduct
	}
	stored := s.store.Load()
	stored[strconv.Itoa(productID)]++
	return s.store.Save(stored)
}

// Remove has no anonymous counterpart; visitors must sign in first.
func (s *sessionCart) Remove(context.Context, int) error {
	return ErrLoginRequired
}

func (s *sessionCart) Count(context.Context) (int, error) {
	n := 0
	for _, q := range s.store.Load() {
		n += q
	}
	return n, nil
}
