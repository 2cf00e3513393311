package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/repositories"
)

// TimelineWindow is how far back the per-day activity timeline reaches.
const TimelineWindow = 30 * 24 * time.Hour

// OwnerMetrics is the full metrics payload for one owner.
type OwnerMetrics struct {
	StatusCounts map[models.TokenStatus]int
	Timeline     []models.ActivityBucket
	Funnel       models.Funnel
}

// Aggregator assembles owner metrics from the read-side store queries. It
// never mutates token state; expiry flips happen only on the viewer path.
type Aggregator struct {
	Store   repositories.MetricsRepository
	NowFunc func() time.Time
}

func NewAggregator(store repositories.MetricsRepository) *Aggregator {
	return &Aggregator{Store: store}
}

// ForOwner collects status counts, the 30-day timeline, and the conversion
// funnel. Owners with no recorded activity get zero-valued metrics, not an
// error.
func (a *Aggregator) ForOwner(ctx context.Context, ownerID string) (OwnerMetrics, error) {
	counts, err := a.Store.TokenStatusCounts(ctx, ownerID)
	if err != nil {
		return OwnerMetrics{}, fmt.Errorf("token status counts: %w", err)
	}
	if counts == nil {
		counts = make(map[models.TokenStatus]int)
	}
	// Every status shows up in the payload even at zero.
	for _, status := range []models.TokenStatus{
		models.TokenStatusActive,
		models.TokenStatusViewed,
		models.TokenStatusExpired,
		models.TokenStatusRevoked,
	} {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}

	since := a.now().Add(-TimelineWindow)
	timeline, err := a.Store.ActivityTimeline(ctx, ownerID, since)
	if err != nil {
		return OwnerMetrics{}, fmt.Errorf("activity timeline: %w", err)
	}

	funnel, err := a.Store.Funnel(ctx, ownerID)
	if err != nil {
		return OwnerMetrics{}, fmt.Errorf("funnel: %w", err)
	}

	return OwnerMetrics{StatusCounts: counts, Timeline: timeline, Funnel: funnel}, nil
}

func (a *Aggregator) now() time.Time {
	if a.NowFunc != nil {
		return a.NowFunc()
	}
	return time.Now().UTC()
}
