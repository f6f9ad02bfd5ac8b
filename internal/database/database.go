// Package database opens the PostgreSQL pool and creates the schema.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects through the pgx stdlib driver and checks the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	if url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// cart_items.product_id has no foreign key: a cart may reference a product
// that no longer exists, and readers skip such rows.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		image TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		id SERIAL PRIMARY KEY,
		user_id INT NOT NULL UNIQUE REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id SERIAL PRIMARY KEY,
		cart_id INT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		product_id INT NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		UNIQUE (cart_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		user_id INT NOT NULL REFERENCES users(id),
		total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'Created',
		delivery_status TEXT NOT NULL DEFAULT 'Pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id SERIAL PRIMARY KEY,
		order_id INT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id INT NOT NULL REFERENCES products(id),
		quantity INT NOT NULL CHECK (quantity > 0),
		price NUMERIC(12,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS order_items_order_id_idx ON order_items (order_id)`,
}

// Migrate creates any missing tables. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
