package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Payment statuses.  The gateway is the source of truth: a payment starts
// pending when the checkout session is created and the webhook moves it to
// successful or cancelled.  Refunded is reachable from successful only.
const (
    PaymentStatusPending    = "pending"
    PaymentStatusSuccessful = "successful"
    PaymentStatusCancelled  = "cancelled"
    PaymentStatusRefunded   = "refunded"
)

// Payment tracks one gateway charge attempt for an order.  ExternalID is
// the gateway's reference (Stripe checkout session id).
type Payment struct {
    ID         uint64          `json:"id"`
    UserID     uint64          `json:"user_id"`
    OrderID    uint64          `json:"order_id"`
    Status     string          `json:"status"`
    Amount     decimal.Decimal `json:"amount"`
    ExternalID string          `json:"external_payment_id,omitempty"`
    CreatedAt  time.Time       `json:"created_at"`
}

// Refund request statuses.
const (
    RefundStatusPending  = "pending"
    RefundStatusApproved = "approved"
    RefundStatusDeclined = "declined"
)

// RefundRequest is the moderated path for reversing a paid order.  Only one
// open request may exist per order; approval refunds the payment at the
// gateway and cancels the order.
type RefundRequest struct {
    ID        uint64    `json:"id"`
    OrderID   uint64    `json:"order_id"`
    UserID    uint64    `json:"user_id"`
    Reason    string    `json:"reason,omitempty"`
    Status    string    `json:"status"`
    CreatedAt time.Time `json:"created_at"`
    DecidedAt *time.Time `json:"decided_at,omitempty"`
}
