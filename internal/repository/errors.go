// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver error strings at every call site.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of
// conflicting state, such as a duplicate genre name. Handlers translate
// this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrMoviePurchased is returned when deleting a movie that is referenced
// by a paid order. Purchased titles must stay resolvable from order
// history, so the delete is refused.
var ErrMoviePurchased = errors.New("movie referenced by a completed purchase")

// ErrAlreadyPurchased is returned when a user tries to put a movie they
// already own into their cart.
var ErrAlreadyPurchased = errors.New("movie already purchased")

// ErrAlreadyInCart is returned on a duplicate cart add.
var ErrAlreadyInCart = errors.New("movie already in cart")

// ErrInvalidTransition is returned when an order status change violates
// the pending -> paid/canceled lifecycle.
var ErrInvalidTransition = errors.New("invalid order status transition")
