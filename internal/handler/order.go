package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/AntonKrinichnyi/CineFlow/internal/model"
	"github.com/AntonKrinichnyi/CineFlow/internal/queue"
	"github.com/AntonKrinichnyi/CineFlow/internal/repository"
	queue_publisher "github.com/AntonKrinichnyi/CineFlow/internal/service"
)

// OrderHandler turns carts into orders and manages their lifecycle.
type OrderHandler struct {
	Orders *repository.OrderRepo
	Cart   *repository.CartRepo
	Users  *repository.UserRepo
}

func NewOrderHandler(o *repository.OrderRepo, cart *repository.CartRepo, u *repository.UserRepo) *OrderHandler {
	return &OrderHandler{Orders: o, Cart: cart, Users: u}
}

// ExcludedItem names a cart entry dropped during checkout and why.
type ExcludedItem struct {
	MovieID uint64 `json:"movie_id"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
}

// SplitCheckoutItems partitions cart items into the ones an order may
// contain and the ones that must be dropped: titles withdrawn from sale
// and titles the user already owns.
func SplitCheckoutItems(items []model.CartItemDetail) (keep []model.CartItemDetail, excluded []ExcludedItem) {
	for _, it := range items {
		switch {
		case it.Purchased:
			excluded = append(excluded, ExcludedItem{MovieID: it.MovieID, Name: it.Name, Reason: "already purchased"})
		case !it.IsAvailable:
			excluded = append(excluded, ExcludedItem{MovieID: it.MovieID, Name: it.Name, Reason: "no longer available"})
		default:
			keep = append(keep, it)
		}
	}
	return keep, excluded
}

// Checkout snapshots the cart into a pending order.  Unavailable and
// already-owned titles are excluded and reported; the order, its items
// and the cart cleanup happen in one transaction.
func (h *OrderHandler) Checkout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cart.Items(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if len(items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
	}

	keep, excluded := SplitCheckoutItems(items)
	if len(keep) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":    "no purchasable movies in cart",
			"excluded": excluded,
		})
	}

	order := model.Order{UserID: uid, Status: model.OrderStatusPending}
	orderedIDs := make([]uint64, 0, len(keep))
	for _, it := range keep {
		order.TotalAmount = order.TotalAmount.Add(it.Price)
		orderedIDs = append(orderedIDs, it.MovieID)
	}

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	defer func() { _ = tx.Rollback() }()

	if err := h.Orders.CreateTx(ctx, tx, &order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	orderItems := make([]model.OrderItem, 0, len(keep))
	for _, it := range keep {
		orderItems = append(orderItems, model.OrderItem{
			OrderID:      order.ID,
			MovieID:      it.MovieID,
			MovieName:    it.Name,
			PriceAtOrder: it.Price,
		})
	}
	if err := h.Orders.CreateItemsBulkTx(ctx, tx, orderItems); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	// Only the rows that made it into the order leave the cart; excluded
	// ones stay so the user can see what was skipped.
	if err := h.Cart.RemoveItemsTx(ctx, tx, uid, orderedIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}

	if u, err := h.Users.GetByID(ctx, uid); err == nil {
		_ = queue_publisher.PublishEmailEvent(ctx, queue.EmailEvent{
			Kind:    queue.KindOrderConfirmation,
			To:      u.Email,
			OrderID: order.ID,
			Amount:  order.TotalAmount.StringFixed(2),
		})
	}

	resp := echo.Map{"order": order, "items": orderItems}
	if len(excluded) > 0 {
		resp["excluded"] = excluded
	}
	return c.JSON(http.StatusCreated, resp)
}

// List returns the caller's orders, newest first.
func (h *OrderHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, err := h.Orders.ListForUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// Get returns one of the caller's orders with its items.
func (h *OrderHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := pathID(c, "id")
	if orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.GetForUser(ctx, orderID, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items, err := h.Orders.Items(ctx, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"order": order, "items": items})
}

// Cancel moves a pending order to canceled.  A paid order cannot be
// canceled here; that path goes through a refund request.
func (h *OrderHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := pathID(c, "id")
	if orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.GetForUser(ctx, orderID, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if order.Status == model.OrderStatusPaid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "paid orders can only be canceled through a refund request"})
	}

	if err := h.Orders.UpdateStatus(ctx, orderID, order.Status, model.OrderStatusCanceled, false); err != nil {
		if err == repository.ErrInvalidTransition {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "order cannot be canceled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "order canceled"})
}

// ListAdmin is the filtered order listing for administrators.
func (h *OrderHandler) ListAdmin(c echo.Context) error {
	page, perPage := pageParams(c)
	q := repository.AdminOrderQuery{
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

	rows, total, err := h.Orders.ListAdmin(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	totalPages := (total + int64(perPage) - 1) / int64(perPage)
	return c.JSON(http.StatusOK, echo.Map{
		"orders":      rows,
		"total":       total,
		"page":        page,
		"per_page":    perPage,
		"total_pages": totalPages,
	})
}
