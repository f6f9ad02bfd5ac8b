package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

// uniqueViolation is the PostgreSQL SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

const (
	selectUserColumns   = `SELECT id, email, password, is_admin, created_at FROM users`
	getUserByIDQuery    = selectUserColumns + ` WHERE id = $1`
	getUserByEmailQuery = selectUserColumns + ` WHERE lower(email) = lower($1)`
	insertUserQuery     = `
		INSERT INTO users (email, password, is_admin)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByIDQuery, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByEmailQuery, email))
}

func (r *PostgresRepository) Create(ctx context.Context, user User) (User, error) {
	err := r.db.QueryRowContext(ctx, insertUserQuery, user.Email, user.Password, user.IsAdmin).
		Scan(&user.ID, &user.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return User{}, ErrEmailExists
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}
