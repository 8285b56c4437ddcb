package profiles

import (
	"context"
	"time"

	"github.com/centinela-app/centinela/internal/client/models"
)

// Repository is the local persistence layer for user profiles.
type Repository interface {
	// GetByUID returns the cached profile, or common.ErrNotFound.
	GetByUID(ctx context.Context, uid string) (*models.UserProfile, error)

	// CreateOrUpdate upserts a profile, stamping fetchedAt.
	CreateOrUpdate(ctx context.Context, profile *models.UserProfile, fetchedAt time.Time) error

	// PurgeOlderThan removes profiles fetched before the cutoff.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) error
}
