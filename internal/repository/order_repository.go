package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AntonKrinichnyi/CineFlow/internal/model"
)

// OrderRepo persists orders and their frozen line items.  Status changes
// go through UpdateStatus which enforces the model's transition guards,
// keeping the pending -> paid/canceled lifecycle monotonic even if two
// webhook deliveries race.
type OrderRepo struct{ db *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the handle for transaction scoping by the checkout flow.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a pending order within the caller's transaction and
// populates the generated ID and timestamps on the record.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (user_id, status, total_amount) VALUES (?,?,?)",
		o.UserID, o.Status, o.TotalAmount)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		"SELECT created_at FROM orders WHERE id=?", o.ID).Scan(&o.CreatedAt)
}

// CreateItemsBulkTx inserts the order's line items in one statement.
// Each item carries the movie name and price snapshot so the order stays
// readable after catalog changes.
func (r *OrderRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := "INSERT INTO order_items (order_id, movie_id, movie_name, price_at_order) VALUES "
	args := make([]interface{}, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?,?,?,?)"
		args = append(args, it.OrderID, it.MovieID, it.MovieName, it.PriceAtOrder)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetForUser loads one order owned by the user.
func (r *OrderRepo) GetForUser(ctx context.Context, orderID, userID uint64) (model.Order, error) {
	var o model.Order
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, status, total_amount, created_at FROM orders WHERE id=? AND user_id=? LIMIT 1",
		orderID, userID).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.CreatedAt)
	return o, err
}

// Items loads the frozen line items of an order.
func (r *OrderRepo) Items(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, order_id, movie_id, movie_name, price_at_order FROM order_items WHERE order_id=? ORDER BY id",
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.OrderItem{}
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MovieID, &it.MovieName, &it.PriceAtOrder); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListForUser returns the user's orders, newest first.
func (r *OrderRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, status, total_amount, created_at FROM orders WHERE user_id=? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus moves an order between statuses.  The expected current
// status is part of the WHERE clause, so concurrent writers cannot both
// succeed; a guard violation maps to ErrInvalidTransition.  viaRefund
// must be true for the paid -> canceled edge.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID uint64, from, to string, viaRefund bool) error {
	allowed := model.CanTransition(from, to)
	if !allowed && viaRefund {
		allowed = model.CanTransitionViaRefund(from, to)
	}
	if !allowed {
		return ErrInvalidTransition
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status=? WHERE id=? AND status=?", to, orderID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// AdminOrderQuery filters the admin order listing.
type AdminOrderQuery struct {
	UserID   uint64
	Status   string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// AdminOrderRow is one order in the admin listing, joined with the
// owner's email.
type AdminOrderRow struct {
	ID          uint64          `json:"id"`
	UserID      uint64          `json:"user_id"`
	UserEmail   string          `json:"user_email"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ListAdmin returns a filtered order page plus the total match count.
func (r *OrderRepo) ListAdmin(ctx context.Context, q AdminOrderQuery) ([]AdminOrderRow, int64, error) {
	where := []string{}
	args := []any{}
	if q.UserID > 0 {
		where = append(where, "o.user_id = ?")
		args = append(args, q.UserID)
	}
	if q.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, q.Status)
	}
	if !q.From.IsZero() {
		where = append(where, "o.created_at >= ?")
		args = append(args, q.From)
	}
	if !q.To.IsZero() {
		where = append(where, "o.created_at <= ?")
		args = append(args, q.To)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders o WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT o.id, o.user_id, u.email, o.status, o.total_amount, o.created_at
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE ` + cond + `
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []AdminOrderRow{}
	for rows.Next() {
		var row AdminOrderRow
		if err := rows.Scan(&row.ID, &row.UserID, &row.UserEmail, &row.Status, &row.TotalAmount, &row.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}
