package repositories

import (
	"context"
	"time"

	"github.com/oneglance/backend/internal/models"
)

// ConsumeResult reports the outcome of an atomic redemption attempt. When
// Consumed is false the Token field carries the state that blocked it.
type ConsumeResult struct {
	Token            models.VideoToken
	Video            models.Video
	OwnerDisplayName string
	Consumed         bool
}

// VideoTokenRepository defines data access for disposable video tokens.
type VideoTokenRepository interface {
	// Create persists the token and its `created` activity entry in one
	// transaction. Returns ErrConflict when the code collides.
	Create(ctx context.Context, token models.VideoToken, activity models.TokenActivity) error

	// FindByCode loads a token, transactionally flipping it to expired
	// (with an `expired` activity entry) if it is active but past its
	// expiry at the provided instant.
	FindByCode(ctx context.Context, code string, at time.Time) (models.VideoToken, error)

	// Consume is the atomic redeem-and-consume protocol: under a row lock
	// it evaluates status (lazy expiry first) and, if and only if the
	// token is still active, marks it viewed, records consumer metadata,
	// updates the target video's first-view bookkeeping, and appends the
	// `viewed` activity entry. Everything commits or nothing does.
	Consume(ctx context.Context, code string, at time.Time, originHash, client string) (ConsumeResult, error)

	ListForOwner(ctx context.Context, ownerID string) ([]models.VideoToken, error)
}
