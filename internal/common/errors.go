// Package common defines shared constants and sentinel errors used across
// the governance service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorInvalidToken = errors.New("invalid token")

	// Account gate errors.
	ErrAccountNotUsable = errors.New("account not usable")

	// Credential errors.
	ErrPasswordRejected = errors.New("password rejected")
	ErrPasswordEncoding = errors.New("password encoding error")
)
