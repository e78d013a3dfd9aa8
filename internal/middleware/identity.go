package middleware

// identity.go holds small helpers shared across middleware files. The rate
// limiter keys on the requesting user when one is authenticated, so the
// helpers here resolve the user identity stored by JWTAuth without caring
// about claim types.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID resolves the authenticated user's identifier from the
// context. It returns "anon" when no user is authenticated.
func currentUserID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	}
	return "anon"
}
