package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	listProductsQuery = `
		SELECT id, name, price, image
		FROM products
		ORDER BY id
	`
	getProductByIDQuery = `
		SELECT id, name, price, image
		FROM products
		WHERE id = $1
	`
	listProductsByIDsQuery = `
		SELECT id, name, price, image
		FROM products
		WHERE id = ANY($1::int[])
		ORDER BY id
	`
	countProductsQuery = `SELECT COUNT(*) FROM products`
	insertProductQuery = `INSERT INTO products (name, price, image) VALUES ($1, $2, $3)`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, listProductsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	rows, err := r.db.QueryContext(ctx, listProductsByIDsQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// SeedIfEmpty inserts products only when the table has no rows. It reports
// how many rows were inserted.
func (r *PostgresRepository) SeedIfEmpty(ctx context.Context, products []Product) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, countProductsQuery).Scan(&count); err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	inserted := 0
	for _, p := range products {
		if _, err := r.db.ExecContext(ctx, insertProductQuery, p.Name, p.Price, p.Image); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func scanProducts(rows *sql.Rows) ([]Product, error) {
	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(scanner rowScanner) (Product, error) {
	var p Product
	var image sql.NullString
	if err := scanner.Scan(&p.ID, &p.Name, &p.Price, &image); err != nil {
		return Product{}, err
	}
	p.Image = image.String
	return p, nil
}
