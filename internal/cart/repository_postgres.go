package cart

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	findCartQuery = `SELECT id, user_id FROM carts WHERE user_id = $1`
	// the no-op update makes RETURNING yield the existing row on conflict
	ensureCartQuery = `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id
	`
	listItemsQuery = `
		SELECT id, cart_id, product_id, quantity
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id
	`
	incrementItemQuery = `
		INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, cart_id, product_id, quantity
	`
	deleteItemQuery = `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`
	countItemsQuery = `
		SELECT COALESCE(SUM(ci.quantity), 0)
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE c.user_id = $1
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindCart(ctx context.Context, userID int) (Cart, error) {
	var c Cart
	if err := r.db.QueryRowContext(ctx, findCartQuery, userID).Scan(&c.ID, &c.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, ErrCartNotFound
		}
		return Cart{}, err
	}
	return c, nil
}

func (r *PostgresRepository) EnsureCart(ctx context.Context, userID int) (Cart, error) {
	var c Cart
	if err := r.db.QueryRowContext(ctx, ensureCartQuery, userID).Scan(&c.ID, &c.UserID); err != nil {
		return Cart{}, err
	}
	return c, nil
}

func (r *PostgresRepository) ListItems(ctx context.Context, cartID int) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, listItemsQuery, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) IncrementItem(ctx context.Context, cartID, productID, delta int) (Item, error) {
	var it Item
	err := r.db.QueryRowContext(ctx, incrementItemQuery, cartID, productID, delta).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity)
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

func (r *PostgresRepository) DeleteItem(ctx context.Context, cartID, productID int) (bool, error) {
	result, err := r.db.ExecContext(ctx, deleteItemQuery, cartID, productID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PostgresRepository) CountItems(ctx context.Context, userID int) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countItemsQuery, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
