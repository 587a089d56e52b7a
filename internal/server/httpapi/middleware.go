package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/webstarter/authkit/internal/registry"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	bearerKey   contextKey = "bearer"
)

// requireAuth resolves the bearer token and stores the identity and the raw
// token on the request context. Missing or invalid tokens short-circuit
// with 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		bearer, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || bearer == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		identity, err := s.auth.Authenticate(r.Context(), bearer)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		ctx = context.WithValue(ctx, bearerKey, bearer)
		next(w, r.WithContext(ctx))
	}
}

func identityFrom(ctx context.Context) *registry.Identity {
	identity, _ := ctx.Value(identityKey).(*registry.Identity)
	return identity
}

func bearerFrom(ctx context.Context) string {
	bearer, _ := ctx.Value(bearerKey).(string)
	return bearer
}
