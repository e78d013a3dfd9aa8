package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCartAddItemRefusesPurchasedMovie(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	// The purchase check fires first; a hit must stop the add before any
	// cart row is touched.
	mock.ExpectQuery("FROM order_items oi").
		WithArgs(uint64(1), uint64(9), "paid").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewCartRepo(db)
	if err := repo.AddItem(context.Background(), 1, 9); err != ErrAlreadyPurchased {
		t.Fatalf("err = %v, want ErrAlreadyPurchased", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCartAddItemDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM order_items oi").
		WithArgs(uint64(1), uint64(9), "paid").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT id FROM carts WHERE user_id=\\?").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectExec("INSERT INTO cart_items").
		WithArgs(uint64(3), uint64(9)).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '3-9' for key 'uq_cart_items'"))

	repo := NewCartRepo(db)
	if err := repo.AddItem(context.Background(), 1, 9); err != ErrAlreadyInCart {
		t.Fatalf("err = %v, want ErrAlreadyInCart", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
