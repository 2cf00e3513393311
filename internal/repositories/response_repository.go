package repositories

import (
	"context"

	"github.com/oneglance/backend/internal/models"
)

// ResponseRepository defines data access for anonymous viewer responses.
type ResponseRepository interface {
	// CreateForToken inserts a response targeting a video token, enforcing
	// the one-response-per-token rule and appending the `responded`
	// activity entry inside the same transaction. Returns ErrConflict if
	// a response for the token already exists.
	CreateForToken(ctx context.Context, response models.ViewerResponse, activity models.TokenActivity) error

	// CreateForProfile inserts a response targeting a profile. Profiles
	// accept any number of responses over time.
	CreateForProfile(ctx context.Context, response models.ViewerResponse) error

	ListForOwner(ctx context.Context, ownerID string) ([]models.ViewerResponse, error)
}
