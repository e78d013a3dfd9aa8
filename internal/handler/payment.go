package handler

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/AntonKrinichnyi/CineFlow/internal/model"
	"github.com/AntonKrinichnyi/CineFlow/internal/payment"
	"github.com/AntonKrinichnyi/CineFlow/internal/queue"
	"github.com/AntonKrinichnyi/CineFlow/internal/repository"
	queue_publisher "github.com/AntonKrinichnyi/CineFlow/internal/service"
)

// PaymentHandler drives the Stripe checkout flow: session creation, the
// webhook that settles orders, payment listings and the refund workflow.
type PaymentHandler struct {
	Payments   *repository.PaymentRepo
	Orders     *repository.OrderRepo
	Users      *repository.UserRepo
	Gateway    *payment.StripeClient
	SuccessURL string
	CancelURL  string
}

func NewPaymentHandler(p *repository.PaymentRepo, o *repository.OrderRepo, u *repository.UserRepo, gw *payment.StripeClient, successURL, cancelURL string) *PaymentHandler {
	return &PaymentHandler{Payments: p, Orders: o, Users: u, Gateway: gw, SuccessURL: successURL, CancelURL: cancelURL}
}

// Pay opens a checkout session for one of the caller's pending orders and
// returns the hosted payment page URL.
func (h *PaymentHandler) Pay(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := pathID(c, "id")
	if orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	order, err := h.Orders.GetForUser(ctx, orderID, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if order.Status != model.OrderStatusPending {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only pending orders can be paid"})
	}

	items, err := h.Orders.Items(ctx, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	lines := make([]payment.CheckoutItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, payment.CheckoutItem{
			Name:     it.MovieName,
			Price:    it.PriceAtOrder,
			Quantity: 1,
		})
	}

	sess, err := h.Gateway.CreateCheckoutSession(ctx, orderID, lines, h.SuccessURL, h.CancelURL)
	if err != nil {
		logrus.WithError(err).WithField("order_id", orderID).Error("checkout session failed")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
	}

	p := model.Payment{
		UserID:     uid,
		OrderID:    orderID,
		Status:     model.PaymentStatusPending,
		Amount:     order.TotalAmount,
		ExternalID: sess.ID,
	}
	if err := h.Payments.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save payment failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"payment_id":   p.ID,
		"checkout_url": sess.URL,
	})
}

// Webhook is the gateway callback.  The raw body is verified against the
// Stripe-Signature header before anything is parsed; completed sessions
// settle the payment and the order, expired ones cancel the payment.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	sig := c.Request().Header.Get("Stripe-Signature")
	if err := h.Gateway.VerifyWebhookSignature(body, sig, time.Now()); err != nil {
		logrus.WithError(err).Warn("webhook signature rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	ev, err := payment.ParseWebhookEvent(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch ev.Type {
	case "checkout.session.completed":
		return h.settleSession(ctx, c, ev)
	case "checkout.session.expired":
		p, err := h.Payments.GetByExternalID(ctx, ev.Data.Object.ID)
		if err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusOK, echo.Map{"received": true})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if err := h.Payments.UpdateStatus(ctx, p.ID, model.PaymentStatusPending, model.PaymentStatusCancelled); err != nil && err != repository.ErrInvalidTransition {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}
	// Unhandled event types are acknowledged so the gateway stops retrying.
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

func (h *PaymentHandler) settleSession(ctx context.Context, c echo.Context, ev payment.WebhookEvent) error {
	p, err := h.Payments.GetByExternalID(ctx, ev.Data.Object.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusOK, echo.Map{"received": true})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	// A replayed event finds the payment already successful and stops here.
	if err := h.Payments.UpdateStatus(ctx, p.ID, model.PaymentStatusPending, model.PaymentStatusSuccessful); err != nil {
		if err == repository.ErrInvalidTransition {
			return c.JSON(http.StatusOK, echo.Map{"received": true})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	// Refunds are issued against the payment intent, not the session.
	if ev.Data.Object.PaymentIntent != "" {
		_ = h.Payments.UpdateExternalID(ctx, p.ID, ev.Data.Object.PaymentIntent)
	}

	if err := h.Orders.UpdateStatus(ctx, p.OrderID, model.OrderStatusPending, model.OrderStatusPaid, false); err != nil && err != repository.ErrInvalidTransition {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if u, err := h.Users.GetByID(ctx, p.UserID); err == nil {
		_ = queue_publisher.PublishEmailEvent(ctx, queue.EmailEvent{
			Kind:    queue.KindPaymentConfirmation,
			To:      u.Email,
			OrderID: p.OrderID,
			Amount:  p.Amount.StringFixed(2),
		})
	}

	logrus.WithFields(logrus.Fields{
		"order_id":   p.OrderID,
		"payment_id": p.ID,
	}).Info("order settled by webhook")
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// ListMine returns the caller's payments.
func (h *PaymentHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payments, err := h.Payments.ListForUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": payments})
}

// ListAdmin is the filtered payment listing for administrators.
func (h *PaymentHandler) ListAdmin(c echo.Context) error {
	page, perPage := pageParams(c)
	q := repository.AdminPaymentQuery{
		Status:   c.QueryParam("status"),
		Page:     page,
		PageSize: perPage,
	}
	if v := c.QueryParam("user_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
		}
		q.UserID = n
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from timestamp"})
		}
		q.From = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to timestamp"})
		}
		q.To = t
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, total, err := h.Payments.ListAdmin(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	totalPages := (total + int64(perPage) - 1) / int64(perPage)
	return c.JSON(http.StatusOK, echo.Map{
		"payments":    rows,
		"total":       total,
		"page":        page,
		"per_page":    perPage,
		"total_pages": totalPages,
	})
}

type refundReq struct {
	Reason string `json:"reason"`
}

// RequestRefund opens a refund request on one of the caller's paid orders.
func (h *PaymentHandler) RequestRefund(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := pathID(c, "id")
	if orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var req refundReq
	_ = c.Bind(&req)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.GetForUser(ctx, orderID, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if order.Status != model.OrderStatusPaid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only paid orders can be refunded"})
	}

	r := model.RefundRequest{
		OrderID: orderID,
		UserID:  uid,
		Reason:  strings.TrimSpace(req.Reason),
	}
	if err := h.Payments.CreateRefundRequest(ctx, &r); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a refund request for this order is already open"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refund request failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"refund_request": r})
}

// ListRefunds shows refund requests, optionally filtered by status.
func (h *PaymentHandler) ListRefunds(c echo.Context) error {
	status := c.QueryParam("status")
	switch status {
	case "", model.RefundStatusPending, model.RefundStatusApproved, model.RefundStatusDeclined:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reqs, err := h.Payments.ListRefundRequests(ctx, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"refund_requests": reqs})
}

// ApproveRefund refunds the payment at the gateway, cancels the order and
// notifies the buyer.  The gateway call happens first so a failure leaves
// the request open for a retry.
func (h *PaymentHandler) ApproveRefund(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid refund request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	req, err := h.Payments.GetRefundRequest(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "refund request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if req.Status != model.RefundStatusPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "refund request already decided"})
	}

	p, err := h.Payments.GetByOrderID(ctx, req.OrderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if p.Status != model.PaymentStatusSuccessful {
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment is not refundable"})
	}

	if _, err := h.Gateway.CreateRefund(ctx, p.ExternalID); err != nil {
		logrus.WithError(err).WithField("order_id", req.OrderID).Error("gateway refund failed")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "gateway refund failed"})
	}

	if err := h.Payments.DecideRefundRequest(ctx, id, model.RefundStatusApproved); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := h.Payments.UpdateStatus(ctx, p.ID, model.PaymentStatusSuccessful, model.PaymentStatusRefunded); err != nil && err != repository.ErrInvalidTransition {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := h.Orders.UpdateStatus(ctx, req.OrderID, model.OrderStatusPaid, model.OrderStatusCanceled, true); err != nil && err != repository.ErrInvalidTransition {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if u, err := h.Users.GetByID(ctx, req.UserID); err == nil {
		_ = queue_publisher.PublishEmailEvent(ctx, queue.EmailEvent{
			Kind:    queue.KindRefundApproved,
			To:      u.Email,
			OrderID: req.OrderID,
			Amount:  p.Amount.StringFixed(2),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "refund approved"})
}

// DeclineRefund closes a refund request without touching the payment.
func (h *PaymentHandler) DeclineRefund(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid refund request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Payments.DecideRefundRequest(ctx, id, model.RefundStatusDeclined); err != nil {
		if err == repository.ErrInvalidTransition {
			return c.JSON(http.StatusConflict, echo.Map{"error": "refund request already decided"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "refund declined"})
}
