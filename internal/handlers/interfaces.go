package handlers

import (
	"context"
	"io"
	"time"

	"github.com/oneglance/backend/internal/metrics"
	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/profiles"
	"github.com/oneglance/backend/internal/responses"
	"github.com/oneglance/backend/internal/tokens"
	"github.com/oneglance/backend/internal/viewer"
)

// IdentityVerifier resolves the owner subject behind a bearer token.
type IdentityVerifier interface {
	Subject(token string) (string, error)
}

// TokenIssuer mints disposable video tokens and creates clips.
type TokenIssuer interface {
	Issue(ctx context.Context, ownerID, videoID, label, notes string, daysValid int) (models.VideoToken, error)
	CreateCustomVideo(ctx context.Context, params tokens.CustomVideoParams) (models.Video, models.VideoToken, error)
	CreateDefaultVideo(ctx context.Context, ownerID, assetURL, thumbnailURL string, durationSeconds int) (models.Video, error)
}

// TokenRedeemer performs the atomic viewer-side redemption.
type TokenRedeemer interface {
	Redeem(ctx context.Context, code string, meta viewer.Meta) (tokens.Redemption, error)
}

// TokenDirectory lists an owner's tokens for the management surface.
type TokenDirectory interface {
	ListForOwner(ctx context.Context, ownerID string) ([]models.VideoToken, error)
}

// VideoDirectory exposes owner-side video reads and deactivation.
type VideoDirectory interface {
	ListForOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	Deactivate(ctx context.Context, ownerID, videoID string) error
}

// ProfileService covers both sides of the permanent profile link.
type ProfileService interface {
	Create(ctx context.Context, params profiles.CreateParams) (models.Profile, error)
	FindByOwner(ctx context.Context, ownerID string) (models.Profile, error)
	ReadByToken(ctx context.Context, token string, meta viewer.Meta) (profiles.View, error)
}

// ResponseCollector accepts anonymous viewer responses.
type ResponseCollector interface {
	SubmitForToken(ctx context.Context, code string, sub responses.Submission, meta viewer.Meta) (models.ViewerResponse, error)
	SubmitForProfile(ctx context.Context, profileToken string, sub responses.Submission, meta viewer.Meta) (models.ViewerResponse, error)
}

// ResponseDirectory lists stored responses for the owner inbox.
type ResponseDirectory interface {
	ListForOwner(ctx context.Context, ownerID string) ([]models.ViewerResponse, error)
}

// MetricsProvider assembles the owner metrics payload.
type MetricsProvider interface {
	ForOwner(ctx context.Context, ownerID string) (metrics.OwnerMetrics, error)
}

// NotificationStore serves the owner notification feed.
type NotificationStore interface {
	ListForOwner(ctx context.Context, ownerID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, ownerID, notificationID string, at time.Time) error
}

// AssetStorage persists uploaded clip files and returns a public location.
type AssetStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}
