// Package common defines shared constants and sentinel errors used across
// the classdocs server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")

	// Lifecycle errors.
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrIO              = errors.New("blob i/o error")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")

	// Auth errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
