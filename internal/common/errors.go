// Package common defines shared constants and sentinel errors used across
// client and server layers of AuthKit. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Credential verification errors.
	ErrInvalidSecret = errors.New("invalid password")
	ErrAlreadyExists = errors.New("user already exists")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Session-level errors.
	ErrNotAuthenticated = errors.New("not authenticated")

	// Transport failure, distinct from server-reported application errors.
	ErrNetwork = errors.New("network error")

	// Generic/internal flow control.
	ErrInternal = errors.New("internal error")
)
