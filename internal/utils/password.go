package utils

import (
    "errors"
    "unicode"

    "golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
    b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
    if err != nil {
        return "", err
    }
    return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Password complexity errors surfaced as field-level validation messages.
var (
    ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
    ErrPasswordNoUpper  = errors.New("password must contain at least one uppercase letter")
    ErrPasswordNoLower  = errors.New("password must contain at least one lowercase letter")
    ErrPasswordNoDigit  = errors.New("password must contain at least one digit")
    ErrPasswordNoSymbol = errors.New("password must contain at least one special character")
)

// ValidatePasswordStrength enforces the registration password policy:
// minimum 8 characters with at least one uppercase letter, one lowercase
// letter, one digit and one special character.
func ValidatePasswordStrength(plain string) error {
    if len(plain) < 8 {
        return ErrPasswordTooShort
    }
    var upper, lower, digit, symbol bool
    for _, r := range plain {
        switch {
        case unicode.IsUpper(r):
            upper = true
        case unicode.IsLower(r):
            lower = true
        case unicode.IsDigit(r):
            digit = true
        default:
            symbol = true
        }
    }
    switch {
    case !upper:
        return ErrPasswordNoUpper
    case !lower:
        return ErrPasswordNoLower
    case !digit:
        return ErrPasswordNoDigit
    case !symbol:
        return ErrPasswordNoSymbol
    }
    return nil
}
