package model

import "time"

// Role names stored in users.role and carried in the JWT "role" claim.
const (
    RoleUser      = "USER"
    RoleModerator = "MODERATOR"
    RoleAdmin     = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  Accounts start inactive and are switched on by the activation
// flow.  The json tags are omitted here because these structs are primarily
// used internally by the repository layer; handlers define separate
// response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address (stored lowercased).
//  PasswordHash – bcrypt hashed password.
//  Role         – role name (USER, MODERATOR or ADMIN).
//  IsActive     – whether the account has been activated by email.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each refresh
// token belongs to a user and contains metadata for expiry and revocation.
// The plain token is not stored; only its SHA‑256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}

// ActivationToken models a row in `activation_tokens`.  The token value is
// emailed to the user and stored verbatim: it is short-lived, single-use
// and deleted on activation or by the periodic sweep.
type ActivationToken struct {
    ID        uint64
    UserID    uint64
    Token     string
    ExpiresAt time.Time
    CreatedAt time.Time
}

// PasswordResetToken models a row in `password_reset_tokens`.  At most one
// reset token exists per user; requesting a new one replaces the old.
type PasswordResetToken struct {
    ID        uint64
    UserID    uint64
    Token     string
    ExpiresAt time.Time
    CreatedAt time.Time
}
