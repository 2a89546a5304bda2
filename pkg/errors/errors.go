package market_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidInput     = errors.New("invalid input")
	ErrRateLimited      = errors.New("rate limited")
	ErrAlreadyExists    = errors.New("already exists")

	// ErrStoreUnavailable marks transient backend failures. Chat writes surface
	// it to the caller as retryable; the rate limiter swallows it and fails open.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
