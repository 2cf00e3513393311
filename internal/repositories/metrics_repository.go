package repositories

import (
	"context"
	"time"

	"github.com/oneglance/backend/internal/models"
)

// MetricsRepository provides the read-side aggregate queries behind owner
// metrics. All methods tolerate owners with zero recorded activity.
type MetricsRepository interface {
	TokenStatusCounts(ctx context.Context, ownerID string) (map[models.TokenStatus]int, error)
	ActivityTimeline(ctx context.Context, ownerID string, since time.Time) ([]models.ActivityBucket, error)
	Funnel(ctx context.Context, ownerID string) (models.Funnel, error)
}
