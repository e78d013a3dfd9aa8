package router

import (
	"github.com/labstack/echo/v4"

	"github.com/AntonKrinichnyi/CineFlow/internal/handler"
	"github.com/AntonKrinichnyi/CineFlow/internal/middleware"
	"github.com/AntonKrinichnyi/CineFlow/internal/model"
)

// RegisterStore registers the authenticated shopping surface under /v1:
// engagement actions, the cart, orders and payments.  All routes require
// a valid JWT; any active role may use them.
func RegisterStore(e *echo.Echo, eng *handler.EngagementHandler, cart *handler.CartHandler, orders *handler.OrderHandler, pay *handler.PaymentHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	// ---- engagement ----
	g.POST("/movies/:id/like", eng.React(true))
	g.POST("/movies/:id/dislike", eng.React(false))
	g.POST("/movies/:id/comments", eng.AddComment)
	g.POST("/movies/:id/rating", eng.Rate)
	g.POST("/movies/:id/favorite", eng.AddFavorite)
	g.DELETE("/movies/:id/favorite", eng.RemoveFavorite)
	g.GET("/favorites", eng.ListFavorites)

	// ---- cart ----
	g.GET("/cart", cart.Get)
	g.POST("/cart/items", cart.AddItem)
	g.DELETE("/cart/items/:movieID", cart.RemoveItem)
	g.DELETE("/cart", cart.Clear)

	// ---- orders ----
	g.POST("/orders", orders.Checkout)
	g.GET("/orders", orders.List)
	g.GET("/orders/:id", orders.Get)
	g.POST("/orders/:id/cancel", orders.Cancel)

	// ---- payments ----
	g.POST("/orders/:id/pay", pay.Pay)
	g.POST("/orders/:id/refund", pay.RequestRefund)
	g.GET("/payments", pay.ListMine)
}

// RegisterWebhooks registers gateway callbacks.  The webhook authenticates
// itself with the Stripe-Signature header, so no JWT middleware here.
func RegisterWebhooks(e *echo.Echo, pay *handler.PaymentHandler) {
	e.POST("/v1/payments/webhook", pay.Webhook)
}

// RegisterModerator registers MODERATOR/ADMIN-scoped catalog management
// under /v1/moderator.
func RegisterModerator(e *echo.Echo, cat *handler.ModeratorCatalogHandler, cart *handler.CartHandler, jwtSecret string) {
	g := e.Group(
		"/v1/moderator",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleModerator, model.RoleAdmin),
	)

	// ---- movies ----
	g.POST("/movies", cat.CreateMovie)
	g.PUT("/movies/:id", cat.UpdateMovie)
	g.DELETE("/movies/:id", cat.DeleteMovie)

	// ---- name tables ----
	for _, t := range []string{"genres", "stars", "directors", "certifications"} {
		g.POST("/"+t, cat.CreateNamed(t))
		g.PUT("/"+t+"/:id", cat.RenameNamed(t))
		g.DELETE("/"+t+"/:id", cat.DeleteNamed(t))
	}

	// ---- support ----
	g.GET("/users/:id/cart", cart.GetForUser)
}

// RegisterAdmin registers ADMIN-scoped listings and the refund decision
// endpoints under /v1/admin.  Refund decisions are open to moderators too.
func RegisterAdmin(e *echo.Echo, orders *handler.OrderHandler, pay *handler.PaymentHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/orders", orders.ListAdmin)
	g.GET("/payments", pay.ListAdmin)

	r := e.Group(
		"/v1/admin/refund-requests",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleModerator, model.RoleAdmin),
	)
	r.GET("", pay.ListRefunds)
	r.POST("/:id/approve", pay.ApproveRefund)
	r.POST("/:id/decline", pay.DeclineRefund)
}
