package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Order statuses.  An order is created in pending and moves forward only:
// the payment webhook is the single writer of paid, a direct cancel is
// allowed from pending only, and a paid order can reach canceled solely
// through an approved refund.
const (
    OrderStatusPending  = "pending"
    OrderStatusPaid     = "paid"
    OrderStatusCanceled = "canceled"
)

// Order is an immutable snapshot of a cart taken at checkout time.
type Order struct {
    ID          uint64          `json:"id"`
    UserID      uint64          `json:"user_id"`
    Status      string          `json:"status"`
    TotalAmount decimal.Decimal `json:"total_amount"`
    CreatedAt   time.Time       `json:"created_at"`
}

// OrderItem freezes a movie and its price at the moment of ordering.
type OrderItem struct {
    ID           uint64          `json:"id"`
    OrderID      uint64          `json:"order_id"`
    MovieID      uint64          `json:"movie_id"`
    MovieName    string          `json:"movie_name,omitempty"`
    PriceAtOrder decimal.Decimal `json:"price_at_order"`
}

// orderTransitions encodes the allowed status moves.  viaRefund marks
// edges that only the refund approval path may take.
var orderTransitions = map[string]map[string]bool{
    OrderStatusPending: {
        OrderStatusPaid:     true,
        OrderStatusCanceled: true,
    },
    OrderStatusPaid: {
        // paid -> canceled is reachable, but only through a refund;
        // CanTransition rejects it and CanTransitionViaRefund allows it.
    },
    OrderStatusCanceled: {},
}

// CanTransition reports whether an order may move from to directly,
// without a refund.  paid -> canceled is deliberately absent here.
func CanTransition(from, to string) bool {
    next, ok := orderTransitions[from]
    if !ok {
        return false
    }
    return next[to]
}

// CanTransitionViaRefund reports whether the refund approval path may move
// the order.  The only refund edge is paid -> canceled.
func CanTransitionViaRefund(from, to string) bool {
    return from == OrderStatusPaid && to == OrderStatusCanceled
}
