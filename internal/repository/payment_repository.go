package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AntonKrinichnyi/CineFlow/internal/model"
)

// PaymentRepo persists gateway charge records and refund requests.
// Payment status is tracked independently of order status; the webhook
// handler is the writer for both.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a pending payment for a checkout session and returns
// its ID.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO payments (user_id, order_id, status, amount, external_payment_id) VALUES (?,?,?,?,?)",
		p.UserID, p.OrderID, p.Status, p.Amount, p.ExternalID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM payments WHERE id=?", p.ID).Scan(&p.CreatedAt)
}

// GetByExternalID finds the payment recorded for a gateway session.
func (r *PaymentRepo) GetByExternalID(ctx context.Context, externalID string) (model.Payment, error) {
	var p model.Payment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, order_id, status, amount, external_payment_id, created_at
		 FROM payments WHERE external_payment_id=? LIMIT 1`, externalID).
		Scan(&p.ID, &p.UserID, &p.OrderID, &p.Status, &p.Amount, &p.ExternalID, &p.CreatedAt)
	return p, err
}

// GetByOrderID returns the latest payment for an order.
func (r *PaymentRepo) GetByOrderID(ctx context.Context, orderID uint64) (model.Payment, error) {
	var p model.Payment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, order_id, status, amount, external_payment_id, created_at
		 FROM payments WHERE order_id=? ORDER BY id DESC LIMIT 1`, orderID).
		Scan(&p.ID, &p.UserID, &p.OrderID, &p.Status, &p.Amount, &p.ExternalID, &p.CreatedAt)
	return p, err
}

// UpdateStatus moves a payment from one status to another.  Like order
// status updates, the expected current status sits in the WHERE clause
// so replayed webhooks become no-ops that surface as ErrInvalidTransition.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, paymentID uint64, from, to string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE payments SET status=? WHERE id=? AND status=?", to, paymentID, from)
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

// UpdateExternalID swaps the gateway reference.  The webhook uses it to
// replace the checkout session id with the payment intent id once the
// session completes, since refunds are issued against the intent.
func (r *PaymentRepo) UpdateExternalID(ctx context.Context, paymentID uint64, externalID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE payments SET external_payment_id=? WHERE id=?", externalID, paymentID)
	return err
}

// ListForUser returns the user's payments, newest first.
func (r *PaymentRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, order_id, status, amount, external_payment_id, created_at
		 FROM payments WHERE user_id=? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Payment{}
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.OrderID, &p.Status, &p.Amount, &p.ExternalID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AdminPaymentQuery filters the admin payment listing.
type AdminPaymentQuery struct {
	UserID   uint64
	Status   string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// AdminPaymentRow is one payment in the admin listing.
type AdminPaymentRow struct {
	ID         uint64          `json:"id"`
	UserID     uint64          `json:"user_id"`
	UserEmail  string          `json:"user_email"`
	OrderID    uint64          `json:"order_id"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	ExternalID string          `json:"external_payment_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ListAdmin returns a filtered payment page plus the total match count.
func (r *PaymentRepo) ListAdmin(ctx context.Context, q AdminPaymentQuery) ([]AdminPaymentRow, int64, error) {
	where := []string{}
	args := []any{}
	if q.UserID > 0 {
		where = append(where, "p.user_id = ?")
		args = append(args, q.UserID)
	}
	if q.Status != "" {
		where = append(where, "p.status = ?")
		args = append(args, q.Status)
	}
	if !q.From.IsZero() {
		where = append(where, "p.created_at >= ?")
		args = append(args, q.From)
	}
	if !q.To.IsZero() {
		where = append(where, "p.created_at <= ?")
		args = append(args, q.To)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payments p WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT p.id, p.user_id, u.email, p.order_id, p.status, p.amount, p.external_payment_id, p.created_at
		FROM payments p JOIN users u ON u.id = p.user_id
		WHERE ` + cond + `
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []AdminPaymentRow{}
	for rows.Next() {
		var row AdminPaymentRow
		var ext sql.NullString
		if err := rows.Scan(&row.ID, &row.UserID, &row.UserEmail, &row.OrderID, &row.Status, &row.Amount, &ext, &row.CreatedAt); err != nil {
			return nil, 0, err
		}
		row.ExternalID = ext.String
		out = append(out, row)
	}
	return out, total, rows.Err()
}

// ----- refund requests -----

// CreateRefundRequest opens a refund request for a paid order.  A second
// open request for the same order maps to ErrConflict.
func (r *PaymentRepo) CreateRefundRequest(ctx context.Context, req *model.RefundRequest) error {
	var open bool
	if err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM refund_requests WHERE order_id=? AND status=?)",
		req.OrderID, model.RefundStatusPending).Scan(&open); err != nil {
		return err
	}
	if open {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO refund_requests (order_id, user_id, reason, status) VALUES (?,?,?,?)",
		req.OrderID, req.UserID, req.Reason, model.RefundStatusPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	req.Status = model.RefundStatusPending
	return nil
}

// GetRefundRequest loads one refund request.
func (r *PaymentRepo) GetRefundRequest(ctx context.Context, id uint64) (model.RefundRequest, error) {
	var req model.RefundRequest
	var decided sql.NullTime
	var reason sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, order_id, user_id, reason, status, created_at, decided_at
		 FROM refund_requests WHERE id=? LIMIT 1`, id).
		Scan(&req.ID, &req.OrderID, &req.UserID, &reason, &req.Status, &req.CreatedAt, &decided)
	if err != nil {
		return req, err
	}
	req.Reason = reason.String
	if decided.Valid {
		t := decided.Time
		req.DecidedAt = &t
	}
	return req, nil
}

// DecideRefundRequest closes an open request as approved or declined.
func (r *PaymentRepo) DecideRefundRequest(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE refund_requests SET status=?, decided_at=NOW() WHERE id=? AND status=?",
		status, id, model.RefundStatusPending)
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

// ListRefundRequests returns refund requests, open ones first.
func (r *PaymentRepo) ListRefundRequests(ctx context.Context, status string) ([]model.RefundRequest, error) {
	query := `SELECT id, order_id, user_id, reason, status, created_at, decided_at
		FROM refund_requests`
	args := []any{}
	if status != "" {
		query += " WHERE status=?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.RefundRequest{}
	for rows.Next() {
		var req model.RefundRequest
		var decided sql.NullTime
		var reason sql.NullString
		if err := rows.Scan(&req.ID, &req.OrderID, &req.UserID, &reason, &req.Status, &req.CreatedAt, &decided); err != nil {
			return nil, err
		}
		req.Reason = reason.String
		if decided.Valid {
			t := decided.Time
			req.DecidedAt = &t
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
