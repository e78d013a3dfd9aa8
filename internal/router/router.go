package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework for routing
	"github.com/redis/go-redis/v9"

	"github.com/AntonKrinichnyi/CineFlow/internal/config"
	"github.com/AntonKrinichnyi/CineFlow/internal/handler"
	"github.com/AntonKrinichnyi/CineFlow/internal/middleware"
	"github.com/AntonKrinichnyi/CineFlow/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the authentication surface.  Unauthenticated
// operations live under /v1/auth; /v1/auth/me requires a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/activate", a.Activate)
	// The emailed activation link is a plain GET with query parameters.
	g.GET("/activate", a.Activate)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout inspects the Authorization header itself so that either a
	// bearer token or a refresh token in the body works.
	g.POST("/logout", a.Logout)
	g.POST("/password-reset", a.PasswordResetRequest)
	g.POST("/password-reset/complete", a.PasswordResetComplete)

	p := e.Group("/v1/auth", middleware.JWTAuth(jwtSecret))
	p.GET("/me", a.Me)
}

// RegisterPublicCatalog wires the unauthenticated catalog surface.  The
// movie listing and detail sit behind the Redis response cache and the
// token-bucket rate limiter when those are enabled.
func RegisterPublicCatalog(e *echo.Echo, h *handler.PublicMovieHandler, eng *handler.EngagementHandler, rdb *redis.Client) {
	mws := []echo.MiddlewareFunc{}
	if rdb != nil {
		mws = append(mws,
			middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
			middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		)
	}
	g := e.Group("/v1", mws...)

	g.GET("/movies", h.ListMovies)
	g.GET("/movies/:id", h.GetMovie)
	g.GET("/movies/:id/comments", eng.ListComments)
	g.GET("/genres", h.ListNamed(repository.TableGenres))
	g.GET("/stars", h.ListNamed(repository.TableStars))
	g.GET("/directors", h.ListNamed(repository.TableDirectors))
	g.GET("/certifications", h.ListNamed(repository.TableCertifications))
}
