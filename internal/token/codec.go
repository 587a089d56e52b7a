// Package token implements the session token codec: issuing and decoding
// signed bearer tokens that carry the subject id, issue time, and expiry.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/webstarter/authkit/internal/common"
)

// claims carries the registered claim set; the subject holds the identity id.
type claims struct {
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256-signed tokens. Tokens are stateless: any
// holder can decode one without contacting a store, but Decode always checks
// the signature and the expiry before trusting the payload.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec returns a Codec signing with the given secret. The clock defaults
// to time.Now and can be overridden with WithClock (tests).
func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret, now: time.Now}
}

// WithClock replaces the codec's clock and returns the codec.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Issue creates a token for subjectID with issued-at = now and
// expires-at = now + ttl. ttl must be positive so that expires-at is
// strictly after issued-at. Each token carries a fresh jti, so two tokens
// for the same subject are distinct even when issued within the same
// second (timestamps have second granularity).
func (c *Codec) Issue(subjectID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %v", ttl)
	}

	now := c.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Decode verifies the token's signature and expiry and returns the subject id.
// It returns common.ErrTokenExpired when the expiry instant has passed
// (a token expiring exactly "now" is already expired) and
// common.ErrInvalidToken for anything malformed or tampered with.
// Decode has no side effects.
func (c *Codec) Decode(tokenString string) (string, error) {
	cl := &claims{}

	t, err := jwt.ParseWithClaims(tokenString, cl,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}
	if !t.Valid || cl.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return cl.Subject, nil
}

// ExpiryHint reads the expiry claim without verifying the signature. It is
// meant for the remote provider, where token validity is authoritative
// server-side and the local expiry is only a hint. The second return value
// reports whether a usable expiry claim was present.
func ExpiryHint(tokenString string) (time.Time, bool) {
	cl := &claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, cl); err != nil {
		return time.Time{}, false
	}
	if cl.ExpiresAt == nil {
		return time.Time{}, false
	}
	return cl.ExpiresAt.Time, true
}
