package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrMissingContact   = errors.New("email or phone required")
	ErrMissingCode      = errors.New("verification code required")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidCode      = errors.New("invalid code")
	ErrCodeExpired      = errors.New("code expired")
	ErrDuplicateContact = errors.New("contact already registered")
	ErrUserNotVerified  = errors.New("user not verified")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrBadRequest       = errors.New("bad request")
)
