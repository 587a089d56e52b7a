package common

import "errors"

// Code classifies an authentication failure for UI-facing callers.
type Code string

const (
	CodeNotFound         Code = "USER_NOT_FOUND"
	CodeInvalidSecret    Code = "INVALID_PASSWORD"
	CodeAlreadyExists    Code = "USER_EXISTS"
	CodeInvalidToken     Code = "INVALID_TOKEN"
	CodeTokenExpired     Code = "TOKEN_EXPIRED"
	CodeNotAuthenticated Code = "NOT_AUTHENTICATED"
	CodeNetwork          Code = "NETWORK_ERROR"
	CodeUnknown          Code = "UNKNOWN_ERROR"
)

// AuthError is the typed error surfaced to UI callers. It carries a stable
// machine-readable code alongside a human-readable message and wraps the
// underlying sentinel so errors.Is keeps working through it.
type AuthError struct {
	Code    Code
	Message string
	err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.err }

// NewAuthError wraps err into an AuthError, classifying it via CodeOf.
// A nil err returns nil.
func NewAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return &AuthError{Code: CodeOf(err), Message: err.Error(), err: err}
}

// CodeOf maps sentinel errors to their Code. Unrecognized errors map to
// CodeUnknown.
func CodeOf(err error) Code {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidSecret):
		return CodeInvalidSecret
	case errors.Is(err, ErrAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, ErrTokenExpired):
		return CodeTokenExpired
	case errors.Is(err, ErrInvalidToken):
		return CodeInvalidToken
	case errors.Is(err, ErrNotAuthenticated):
		return CodeNotAuthenticated
	case errors.Is(err, ErrNetwork):
		return CodeNetwork
	default:
		return CodeUnknown
	}
}
