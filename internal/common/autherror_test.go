package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Code
	}{
		{ErrNotFound, CodeNotFound},
		{ErrInvalidSecret, CodeInvalidSecret},
		{ErrAlreadyExists, CodeAlreadyExists},
		{ErrInvalidToken, CodeInvalidToken},
		{ErrTokenExpired, CodeTokenExpired},
		{ErrNotAuthenticated, CodeNotAuthenticated},
		{ErrNetwork, CodeNetwork},
		{errors.New("something else"), CodeUnknown},
		{fmt.Errorf("wrapped: %w", ErrInvalidSecret), CodeInvalidSecret},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, CodeOf(tc.err), "error %v", tc.err)
	}
}

func TestNewAuthError(t *testing.T) {
	ae := NewAuthError(fmt.Errorf("login: %w", ErrInvalidSecret))
	require.Equal(t, CodeInvalidSecret, ae.Code)
	require.Equal(t, "login: "+ErrInvalidSecret.Error(), ae.Message)

	// errors.Is keeps working through the wrapper.
	require.ErrorIs(t, ae, ErrInvalidSecret)

	require.Nil(t, NewAuthError(nil))
}

func TestNewAuthError_Idempotent(t *testing.T) {
	inner := NewAuthError(ErrNotFound)
	outer := NewAuthError(fmt.Errorf("outer: %w", inner))
	require.Same(t, inner, outer)
}

func TestMakeRandHexString(t *testing.T) {
	a, err := MakeRandHexString(16)
	require.NoError(t, err)
	require.Len(t, a, 32)

	b, err := MakeRandHexString(16)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
