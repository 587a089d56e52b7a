// Package profiles stores the extended user profile, one row per identity.
package profiles

import (
	"context"

	"github.com/webstarter/authkit/internal/server/models"
)

type Repository interface {
	// Get returns the profile for the user, or common.ErrNotFound.
	Get(ctx context.Context, userID string) (*models.Profile, error)

	// Upsert inserts or fully replaces the user's profile.
	Upsert(ctx context.Context, p *models.Profile) (*models.Profile, error)

	// Delete removes the user's profile. Missing rows are not an error.
	Delete(ctx context.Context, userID string) error
}
