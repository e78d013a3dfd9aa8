package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Cart groups the not-yet-purchased movies of one user.  One cart per
// user, created lazily on the first add.
type Cart struct {
    ID     uint64
    UserID uint64
}

// CartItem is a row in `cart_items`; unique per (cart, movie).
type CartItem struct {
    ID      uint64
    CartID  uint64
    MovieID uint64
    AddedAt time.Time
}

// CartItemDetail is a cart row joined with the movie columns checkout and
// cart listings need.  IsAvailable reflects the movie's current purchase
// flag at read time; Purchased is true when the user already owns the
// title through a paid order.
type CartItemDetail struct {
    MovieID     uint64          `json:"movie_id"`
    MovieUUID   string          `json:"movie_uuid"`
    Name        string          `json:"name"`
    Price       decimal.Decimal `json:"price"`
    IsAvailable bool            `json:"is_available"`
    Purchased   bool            `json:"-"`
    AddedAt     time.Time       `json:"added_at"`
}
