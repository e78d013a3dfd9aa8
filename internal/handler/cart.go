package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/AntonKrinichnyi/CineFlow/internal/model"
	"github.com/AntonKrinichnyi/CineFlow/internal/repository"
)

// CartHandler manages the per-user shopping cart.
type CartHandler struct {
	Cart   *repository.CartRepo
	Movies *repository.MovieRepo
	Users  *repository.UserRepo
}

func NewCartHandler(cart *repository.CartRepo, m *repository.MovieRepo, u *repository.UserRepo) *CartHandler {
	return &CartHandler{Cart: cart, Movies: m, Users: u}
}

type addItemReq struct {
	MovieID uint64 `json:"movie_id"`
}

// cartView assembles the JSON view of a cart with its decimal total.
func cartView(items []model.CartItemDetail) echo.Map {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price)
	}
	return echo.Map{
		"items": items,
		"count": len(items),
		"total": total,
	}
}

// Get returns the caller's cart with movie details and the total price.
func (h *CartHandler) Get(c echo.Context) error {
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
	return c.JSON(http.StatusOK, cartView(items))
}

// AddItem places a movie into the cart.  Owned or duplicated titles are
// rejected with a pointed message.
func (h *CartHandler) AddItem(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req addItemReq
	if err := c.Bind(&req); err != nil || req.MovieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Cart.AddItem(ctx, uid, req.MovieID); err != nil {
		switch err {
		case repository.ErrAlreadyPurchased:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "you already bought this movie"})
		case repository.ErrAlreadyInCart:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie already in cart"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add to cart failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "added to cart"})
}

// RemoveItem takes one movie out of the cart.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID := pathID(c, "movieID")
	if movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cart.RemoveItem(ctx, uid, movieID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not in cart"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Clear empties the caller's cart.
func (h *CartHandler) Clear(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cart.Clear(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// GetForUser is the moderator view into any user's cart.
func (h *CartHandler) GetForUser(c echo.Context) error {
	userID := pathID(c, "id")
	if userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	items, err := h.Cart.Items(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	view := cartView(items)
	view["user"] = echo.Map{"id": u.ID, "email": u.Email}
	return c.JSON(http.StatusOK, view)
}
