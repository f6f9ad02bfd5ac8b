package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/product"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	lockCartQuery = `SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`
	// cart items whose product has gone away come back with NULL product columns
	lockCartItemsQuery = `
		SELECT ci.id, ci.quantity, p.id, p.name, p.price, p.image
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
		FOR UPDATE OF ci
	`
	insertOrderQuery = `
		INSERT INTO orders (user_id, total_amount, status, delivery_status)
		VALUES ($1, 0, $2, $3)
		RETURNING id, created_at
	`
	insertOrderItemQuery = `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	deleteCartItemsQuery = `DELETE FROM cart_items WHERE id = ANY($1::int[])`
	setOrderTotalQuery   = `UPDATE orders SET total_amount = $1 WHERE id = $2`

	selectOrderColumns = `SELECT id, user_id, total_amount, status, delivery_status, created_at FROM orders`
	getOrderQuery      = selectOrderColumns + ` WHERE id = $1`
	listByUserQuery    = selectOrderColumns + ` WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	listAllQuery       = selectOrderColumns + ` ORDER BY created_at DESC, id DESC`
	listItemsQuery     = `
		SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, ''), oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1::int[])
		ORDER BY oi.id
	`
	updateStatusQuery         = `UPDATE orders SET status = $1 WHERE id = $2`
	updateDeliveryStatusQuery = `UPDATE orders SET delivery_status = $1 WHERE id = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Checkout runs the whole cart to order transition in one transaction. The
// cart row and its items stay locked until commit, so a second checkout of
// the same cart waits and then finds it empty.
func (r *PostgresRepository) Checkout(ctx context.Context, userID int, build Builder) (Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback()

	var cartID int
	err = tx.QueryRowContext(ctx, lockCartQuery, userID).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = build(nil)
		return Order{}, err
	}
	if err != nil {
		return Order{}, fmt.Errorf("lock cart: %w", err)
	}

	lines, itemIDs, err := lockCartLines(ctx, tx, cartID)
	if err != nil {
		return Order{}, err
	}
	draft, err := build(lines)
	if err != nil {
		return Order{}, err
	}

	ord := Order{UserID: userID, Status: StatusCreated, DeliveryStatus: DeliveryPending}
	if err := tx.QueryRowContext(ctx, insertOrderQuery, userID, ord.Status, ord.DeliveryStatus).Scan(&ord.ID, &ord.CreatedAt); err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	ord.Items = make([]Item, 0, len(draft.Items))
	for _, it := range draft.Items {
		it.OrderID = ord.ID
		if err := tx.QueryRowContext(ctx, insertOrderItemQuery, ord.ID, it.ProductID, it.Quantity, it.Price).Scan(&it.ID); err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
		ord.Items = append(ord.Items, it)
	}
	if _, err := tx.ExecContext(ctx, deleteCartItemsQuery, pq.Array(itemIDs)); err != nil {
		return Order{}, fmt.Errorf("empty cart: %w", err)
	}
	if _, err := tx.ExecContext(ctx, setOrderTotalQuery, draft.Total, ord.ID); err != nil {
		return Order{}, fmt.Errorf("set order total: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Order{}, err
	}
	ord.Total = draft.Total
	return ord, nil
}

func lockCartLines(ctx context.Context, tx *sql.Tx, cartID int) ([]cart.Line, []int, error) {
	rows, err := tx.QueryContext(ctx, lockCartItemsQuery, cartID)
	if err != nil {
		return nil, nil, fmt.Errorf("lock cart items: %w", err)
	}
	defer rows.Close()

	var (
		lines []cart.Line
		ids   []int
	)
	for rows.Next() {
		var (
			itemID, qty int
			pid         sql.NullInt64
			name, image sql.NullString
			price       decimal.NullDecimal
		)
		if err := rows.Scan(&itemID, &qty, &pid, &name, &price, &image); err != nil {
			return nil, nil, err
		}
		ids = append(ids, itemID)
		if !pid.Valid {
			continue
		}
		lines = append(lines, cart.Line{
			Product:  product.Product{ID: int(pid.Int64), Name: name.String, Price: price.Decimal, Image: image.String},
			Quantity: qty,
		})
	}
	return lines, ids, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Order, error) {
	orders, err := r.queryOrders(ctx, getOrderQuery, id)
	if err != nil {
		return Order{}, err
	}
	if len(orders) == 0 {
		return Order{}, ErrNotFound
	}
	return orders[0], nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	return r.queryOrders(ctx, listByUserQuery, userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	return r.queryOrders(ctx, listAllQuery)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int, field Field, value string) (Order, error) {
	var q string
	switch field {
	case FieldStatus:
		q = updateStatusQuery
	case FieldDeliveryStatus:
		q = updateDeliveryStatusQuery
	default:
		return Order{}, ErrInvalidField
	}
	result, err := r.db.ExecContext(ctx, q, value, id)
	if err != nil {
		return Order{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Order{}, err
	}
	if affected == 0 {
		return Order{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// queryOrders loads orders and then their items with a single ANY($1) query.
func (r *PostgresRepository) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	index := map[int]int{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.DeliveryStatus, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Items = []Item{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	itemRows, err := r.db.QueryContext(ctx, listItemsQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it Item
		if err := itemRows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return orders, itemRows.Err()
}
