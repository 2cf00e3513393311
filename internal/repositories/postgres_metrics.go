package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/oneglance/backend/internal/db"
	"github.com/oneglance/backend/internal/models"
)

// PostgresMetricsRepository computes the read-side aggregates behind owner
// metrics. It never mutates state.
type PostgresMetricsRepository struct {
	pool db.Pool
}

// NewPostgresMetricsRepository constructs a metrics repository backed by PostgreSQL.
func NewPostgresMetricsRepository(pool db.Pool) *PostgresMetricsRepository {
	return &PostgresMetricsRepository{pool: pool}
}

// TokenStatusCounts returns the owner's token counts grouped by status.
// Owners with no tokens get an empty map.
func (r *PostgresMetricsRepository) TokenStatusCounts(ctx context.Context, ownerID string) (map[models.TokenStatus]int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT status, COUNT(*)
        FROM video_tokens
        WHERE owner_id = $1
        GROUP BY status
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query token status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TokenStatus]int)
	for rows.Next() {
		var (
			status models.TokenStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan token status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token status counts: %w", err)
	}

	return counts, nil
}

// ActivityTimeline returns day-bucketed activity counts for the owner's
// profile and video tokens since the provided instant.
func (r *PostgresMetricsRepository) ActivityTimeline(ctx context.Context, ownerID string, since time.Time) ([]models.ActivityBucket, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT date_trunc('day', al.occurred_at) AS day, al.activity, COUNT(*)
        FROM token_activity_logs al
        WHERE al.occurred_at >= $2
          AND (
            (al.token_type = 'video' AND al.token_id IN (SELECT id FROM video_tokens WHERE owner_id = $1))
            OR
            (al.token_type = 'profile' AND al.token_id IN (SELECT id FROM profiles WHERE owner_id = $1))
          )
        GROUP BY day, al.activity
        ORDER BY day
    `, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("query activity timeline: %w", err)
	}
	defer rows.Close()

	var buckets []models.ActivityBucket
	for rows.Next() {
		var bucket models.ActivityBucket
		if err := rows.Scan(&bucket.Day, &bucket.Activity, &bucket.Count); err != nil {
			return nil, fmt.Errorf("scan activity bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity timeline: %w", err)
	}

	return buckets, nil
}

// Funnel derives the owner's conversion counts in a single query. All counts
// are zero for owners with no recorded activity.
func (r *PostgresMetricsRepository) Funnel(ctx context.Context, ownerID string) (models.Funnel, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Funnel{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*)
             FROM token_activity_logs al
             JOIN profiles p ON p.id = al.token_id
             WHERE al.token_type = 'profile' AND al.activity = 'viewed' AND p.owner_id = $1),
            (SELECT COUNT(*)
             FROM video_tokens vt
             WHERE vt.owner_id = $1 AND vt.status = 'viewed'),
            (SELECT COUNT(*)
             FROM viewer_responses vr
             LEFT JOIN profiles p ON p.id = vr.profile_id
             LEFT JOIN video_tokens vt ON vt.id = vr.video_token_id
             WHERE p.owner_id = $1 OR vt.owner_id = $1),
            (SELECT COUNT(*)
             FROM viewer_responses vr
             LEFT JOIN profiles p ON p.id = vr.profile_id
             LEFT JOIN video_tokens vt ON vt.id = vr.video_token_id
             WHERE (p.owner_id = $1 OR vt.owner_id = $1) AND vr.interest_level = 'interested')
    `, ownerID)

	var funnel models.Funnel
	if err := row.Scan(&funnel.ProfileViews, &funnel.VideoViews, &funnel.TotalResponses, &funnel.InterestedResponses); err != nil {
		return models.Funnel{}, fmt.Errorf("scan funnel counts: %w", err)
	}

	return funnel, nil
}

var _ MetricsRepository = (*PostgresMetricsRepository)(nil)
