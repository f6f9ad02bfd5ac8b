package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/product"
)

type fixture struct {
	carts    *cart.InMemoryRepository
	products *product.InMemoryRepository
	cartSvc  *cart.Service
	service  *Service
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixture() fixture {
	products := product.NewInMemoryRepository([]product.Product{
		{ID: 1, Name: "ProductA", Price: price("10.00")},
		{ID: 2, Name: "ProductB", Price: price("5.00")},
	})
	carts := cart.NewInMemoryRepository()
	return fixture{
		carts:    carts,
		products: products,
		cartSvc:  cart.NewService(carts, products),
		service:  NewService(NewInMemoryRepository(carts, products)),
	}
}

func (f fixture) fill(t *testing.T, userID int, productIDs ...int) {
	t.Helper()
	for _, pid := range productIDs {
		if err := f.cartSvc.ForUser(userID).Add(context.Background(), pid); err != nil {
			t.Fatalf("add %d: %v", pid, err)
		}
	}
}

func TestCheckout_EmptyOrAbsentCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if _, err := f.service.Checkout(ctx, 9); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("absent cart: expected ErrEmptyCart, got %v", err)
	}
	if _, err := f.carts.FindCart(ctx, 9); !errors.Is(err, cart.ErrCartNotFound) {
		t.Fatalf("checkout must not create a cart")
	}

	f.fill(t, 9, 1)
	if err := f.cartSvc.ForUser(9).Remove(ctx, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := f.service.Checkout(ctx, 9); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("empty cart: expected ErrEmptyCart, got %v", err)
	}

	orders, _ := f.service.ListForUser(ctx, 9)
	if len(orders) != 0 {
		t.Fatalf("no order may be created, got %d", len(orders))
	}
}

func TestCheckout_ConvertsCartIntoOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.fill(t, 5, 1, 1, 2)

	before, _ := f.cartSvc.ForUser(5).View(ctx)
	if !before.Total.Equal(price("25.00")) {
		t.Fatalf("expected cart total 25.00, got %s", before.Total)
	}

	ord, err := f.service.Checkout(ctx, 5)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !ord.Total.Equal(before.Total) {
		t.Fatalf("order total %s differs from cart total %s", ord.Total, before.Total)
	}
	if ord.Status != StatusCreated || ord.DeliveryStatus != DeliveryPending {
		t.Fatalf("unexpected initial status %q/%q", ord.Status, ord.DeliveryStatus)
	}
	if len(ord.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(ord.Items))
	}
	if !ord.Items[0].Price.Equal(price("10.00")) || ord.Items[0].Quantity != 2 {
		t.Fatalf("unexpected first item %+v", ord.Items[0])
	}
	if !ord.Items[1].Price.Equal(price("5.00")) || ord.Items[1].Quantity != 1 {
		t.Fatalf("unexpected second item %+v", ord.Items[1])
	}
	sum := decimal.Zero
	for _, it := range ord.Items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if !sum.Equal(ord.Total) {
		t.Fatalf("total %s != sum of items %s", ord.Total, sum)
	}

	c, err := f.carts.FindCart(ctx, 5)
	if err != nil {
		t.Fatalf("cart must survive checkout: %v", err)
	}
	items, _ := f.carts.ListItems(ctx, c.ID)
	if len(items) != 0 {
		t.Fatalf("expected zero cart items after checkout, got %d", len(items))
	}
}

func TestCheckout_PriceFrozenAgainstCatalogueChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.fill(t, 5, 1, 1)

	ord, err := f.service.Checkout(ctx, 5)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if err := f.products.Update(product.Product{ID: 1, Name: "ProductA", Price: price("99.00")}); err != nil {
		t.Fatalf("update: %v", err)
	}

	orders, _ := f.service.ListForUser(ctx, 5)
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if !orders[0].Total.Equal(price("20.00")) || !orders[0].Items[0].Price.Equal(price("10.00")) {
		t.Fatalf("stored order changed with catalogue price: %+v", orders[0])
	}
	if orders[0].ID != ord.ID {
		t.Fatalf("unexpected order id %d", orders[0].ID)
	}
}

func TestCheckout_ConcurrentSameCartYieldsOneOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.fill(t, 5, 1, 2)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		placed  int
		empties int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Checkout(ctx, 5)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case errors.Is(err, ErrEmptyCart):
				empties++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()
	if placed != 1 || empties != 7 {
		t.Fatalf("expected 1 order and 7 empty carts, got %d and %d", placed, empties)
	}
}

func TestCheckout_DropsDanglingItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.fill(t, 5, 1, 404)

	ord, err := f.service.Checkout(ctx, 5)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(ord.Items) != 1 || !ord.Total.Equal(price("10")) {
		t.Fatalf("unresolvable item must not be ordered, got %+v", ord)
	}
	if n, _ := f.carts.CountItems(ctx, 5); n != 0 {
		t.Fatalf("cart must be emptied, still holds %d", n)
	}
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.fill(t, 5, 2)
	ord, _ := f.service.Checkout(ctx, 5)

	if _, err := f.service.MarkProcessed(ctx, ord.ID); err != nil {
		t.Fatalf("process: %v", err)
	}
	got, err := f.service.MarkDelivered(ctx, ord.ID)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if got.Status != StatusProcessed || got.DeliveryStatus != DeliveryDelivered {
		t.Fatalf("unexpected statuses %q/%q", got.Status, got.DeliveryStatus)
	}

	if _, err := f.service.MarkPaid(ctx, 6, ord.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign order must look absent, got %v", err)
	}
	paid, err := f.service.MarkPaid(ctx, 5, ord.ID)
	if err != nil || paid.Status != StatusPaid {
		t.Fatalf("expected Paid, got %+v %v", paid, err)
	}
	if !paid.Total.Equal(ord.Total) {
		t.Fatalf("status change must not alter the total")
	}

	if _, err := f.service.MarkProcessed(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPrice(t *testing.T) {
	if _, err := Price(nil); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	d, err := Price([]cart.Line{
		{Product: product.Product{ID: 1, Price: price("0.10")}, Quantity: 3},
		{Product: product.Product{ID: 2, Price: price("0.20")}, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !d.Total.Equal(price("0.50")) {
		t.Fatalf("decimal arithmetic must be exact, got %s", d.Total)
	}
}
