package repositories

import (
	"context"

	"github.com/oneglance/backend/internal/models"
)

// VideoRepository exposes data access for uploaded clips.
type VideoRepository interface {
	// CreateDefault inserts a default-kind video, retiring the owner's
	// previous active default within the same transaction.
	CreateDefault(ctx context.Context, video models.Video) error

	// CreateCustomWithToken inserts a custom video together with its
	// redemption token and the token's `created` activity entry as one
	// atomic unit. A failure on any write leaves no orphaned video row.
	// Returns ErrConflict when the token code collides.
	CreateCustomWithToken(ctx context.Context, video models.Video, token models.VideoToken, activity models.TokenActivity) error

	FindByID(ctx context.Context, id string) (models.Video, error)
	ActiveDefaultForOwner(ctx context.Context, ownerID string) (models.Video, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	Deactivate(ctx context.Context, ownerID, videoID string) error
}
