// Package sessions persists server-side session rows keyed by token hash.
package sessions

import (
	"context"
	"time"

	"github.com/webstarter/authkit/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID, tokenHash string, ttl time.Duration) (*models.Session, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
