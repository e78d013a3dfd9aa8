package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestValidateRefreshRejectsRevoked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs("somehash").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(5, time.Now().Add(time.Hour), time.Now()))

	repo := NewTokenRepo(db)
	if _, err := repo.ValidateRefresh(context.Background(), "somehash"); err != sql.ErrNoRows {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestValidateRefreshRejectsExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs("somehash").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(5, time.Now().Add(-time.Minute), nil))

	repo := NewTokenRepo(db)
	if _, err := repo.ValidateRefresh(context.Background(), "somehash"); err != sql.ErrNoRows {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestRevokeAllForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	// Logout-everywhere must only touch the user's still-active tokens.
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=NOW\\(\\) WHERE user_id=\\? AND revoked_at IS NULL").
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewTokenRepo(db)
	if err := repo.RevokeAllForUser(context.Background(), 5); err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteExpiredTokens(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM activation_tokens WHERE expires_at < UTC_TIMESTAMP\\(\\)").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM password_reset_tokens WHERE expires_at < UTC_TIMESTAMP\\(\\)").
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := NewTokenRepo(db)
	n, err := repo.DeleteExpiredActivation(context.Background())
	if err != nil || n != 4 {
		t.Fatalf("DeleteExpiredActivation = %d, %v, want 4, nil", n, err)
	}
	n, err = repo.DeleteExpiredReset(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("DeleteExpiredReset = %d, %v, want 2, nil", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
