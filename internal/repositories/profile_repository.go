package repositories

import (
	"context"

	"github.com/oneglance/backend/internal/models"
)

// ProfileRepository defines the data access contract for owner profiles.
type ProfileRepository interface {
	// Create persists the profile and its `created` activity entry in one
	// transaction. Returns ErrConflict if the owner already has a profile
	// or the token code collides.
	Create(ctx context.Context, profile models.Profile, activity models.TokenActivity) error
	FindByToken(ctx context.Context, token string) (models.Profile, error)
	FindByOwner(ctx context.Context, ownerID string) (models.Profile, error)
}
