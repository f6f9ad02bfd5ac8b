package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPostgresFindCart_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT id, user_id FROM carts").WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))

	if _, err := repo.FindCart(context.Background(), 5); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresAdd_UpsertsCartAndItem(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("INSERT INTO carts").WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(11, 5))
	mock.ExpectQuery("INSERT INTO cart_items").WithArgs(11, 3, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cart_id", "product_id", "quantity"}).AddRow(70, 11, 3, 4))

	svc := NewService(NewPostgresRepository(db), nil)
	if err := svc.ForUser(5).Add(context.Background(), 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDeleteItem_ReportsMatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("DELETE FROM cart_items").WithArgs(11, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM cart_items").WithArgs(11, 4).WillReturnResult(sqlmock.NewResult(0, 0))

	if ok, err := repo.DeleteItem(context.Background(), 11, 3); err != nil || !ok {
		t.Fatalf("expected a deleted row, got %v %v", ok, err)
	}
	if ok, err := repo.DeleteItem(context.Background(), 11, 4); err != nil || ok {
		t.Fatalf("expected no row, got %v %v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCountItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COALESCE\\(SUM").WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(6))

	n, err := NewPostgresRepository(db).CountItems(context.Background(), 5)
	if err != nil || n != 6 {
		t.Fatalf("expected 6, got %d %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
