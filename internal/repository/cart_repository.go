package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/AntonKrinichnyi/CineFlow/internal/model"
)

// CartRepo persists per-user carts.  A cart is created lazily on the
// first add and survives emptying; the purchase check against paid
// orders lives here because both the cart add and the checkout need it.
type CartRepo struct{ db *sql.DB }

func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{db: db} }

// getOrCreate returns the user's cart ID, inserting the row when absent.
func (r *CartRepo) getOrCreate(ctx context.Context, userID uint64) (uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM carts WHERE user_id=? LIMIT 1", userID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, "INSERT INTO carts (user_id) VALUES (?)", userID)
	if err != nil {
		// Lost a race with a concurrent first add; reread.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			err = r.db.QueryRowContext(ctx,
				"SELECT id FROM carts WHERE user_id=? LIMIT 1", userID).Scan(&id)
			return id, err
		}
		return 0, err
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(newID), nil
}

// HasPurchased reports whether the user owns the movie through any paid
// order.
func (r *CartRepo) HasPurchased(ctx context.Context, userID, movieID uint64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE o.user_id=? AND oi.movie_id=? AND o.status=?)`,
		userID, movieID, model.OrderStatusPaid).Scan(&ok)
	return ok, err
}

// AddItem puts a movie into the user's cart.  Already-purchased movies
// map to ErrAlreadyPurchased, duplicates to ErrAlreadyInCart.
func (r *CartRepo) AddItem(ctx context.Context, userID, movieID uint64) error {
	purchased, err := r.HasPurchased(ctx, userID, movieID)
	if err != nil {
		return err
	}
	if purchased {
		return ErrAlreadyPurchased
	}
	cartID, err := r.getOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO cart_items (cart_id, movie_id) VALUES (?,?)", cartID, movieID)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrAlreadyInCart
	}
	return err
}

// RemoveItem deletes one movie from the user's cart.
func (r *CartRepo) RemoveItem(ctx context.Context, userID, movieID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE ci FROM cart_items ci
		 JOIN carts c ON c.id = ci.cart_id
		 WHERE c.user_id=? AND ci.movie_id=?`, userID, movieID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Clear empties the user's cart.
func (r *CartRepo) Clear(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE ci FROM cart_items ci
		 JOIN carts c ON c.id = ci.cart_id
		 WHERE c.user_id=?`, userID)
	return err
}

// Items returns the user's cart rows joined with movie details.  The
// Purchased flag is computed against paid orders so checkout can drop
// titles bought since they were added.
func (r *CartRepo) Items(ctx context.Context, userID uint64) ([]model.CartItemDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.uuid, m.name, m.price, m.is_available, ci.added_at,
		        EXISTS(
		            SELECT 1 FROM order_items oi
		            JOIN orders o ON o.id = oi.order_id
		            WHERE o.user_id=? AND oi.movie_id=m.id AND o.status=?)
		 FROM cart_items ci
		 JOIN carts c ON c.id = ci.cart_id
		 JOIN movies m ON m.id = ci.movie_id
		 WHERE c.user_id=?
		 ORDER BY ci.added_at, ci.id`,
		userID, model.OrderStatusPaid, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.CartItemDetail{}
	for rows.Next() {
		var d model.CartItemDetail
		if err := rows.Scan(&d.MovieID, &d.MovieUUID, &d.Name, &d.Price, &d.IsAvailable, &d.AddedAt, &d.Purchased); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RemoveItemsTx deletes the given movies from the user's cart inside the
// caller's transaction.  Used by checkout to clear exactly the rows that
// became order items.
func (r *CartRepo) RemoveItemsTx(ctx context.Context, tx *sql.Tx, userID uint64, movieIDs []uint64) error {
	if len(movieIDs) == 0 {
		return nil
	}
	query := `DELETE ci FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE c.user_id=? AND ci.movie_id IN (`
	args := make([]interface{}, 0, len(movieIDs)+1)
	args = append(args, userID)
	for i, id := range movieIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
