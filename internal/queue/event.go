// Package queue defines message payloads exchanged over the message broker.
package queue

// Email event kinds. The notification consumer picks a template by kind.
const (
	KindActivation            = "activation"
	KindActivationComplete    = "activation_complete"
	KindPasswordReset         = "password_reset"
	KindPasswordResetComplete = "password_reset_complete"
	KindCommentReply          = "comment_reply"
	KindOrderConfirmation     = "order_confirmation"
	KindPaymentConfirmation   = "payment_confirmation"
	KindRefundApproved        = "refund_approved"
	KindCartMovieRemoved      = "cart_movie_removed"
)

// EmailEvent is published whenever the store needs to notify a user by
// email. It carries everything the consumer needs to render the message
// without querying the primary database.
type EmailEvent struct {
	Kind       string `json:"kind"`
	To         string `json:"to"`
	Token      string `json:"token,omitempty"`
	Link       string `json:"link,omitempty"`
	MovieName  string `json:"movie_name,omitempty"`
	CommentID  uint64 `json:"comment_id,omitempty"`
	OrderID    uint64 `json:"order_id,omitempty"`
	Amount     string `json:"amount,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
