package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oneglance/backend/internal/db"
	"github.com/oneglance/backend/internal/models"
)

// execer is satisfied by both pgxpool.Conn and pgx.Tx, so activity writes can
// ride inside a caller's transaction or stand alone.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertActivity(ctx context.Context, q execer, activity models.TokenActivity) error {
	_, err := q.Exec(ctx, `
        INSERT INTO token_activity_logs (id, token_type, token_id, activity, occurred_at, origin_hash, client, attributes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, '{}'))
    `, activity.ID, activity.TokenType, activity.TokenID, activity.Activity, activity.OccurredAt, activity.OriginHash, activity.Client, activity.Attributes)
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

// PostgresActivityRepository provides PostgreSQL-backed persistence for the
// append-only token activity log.
type PostgresActivityRepository struct {
	pool db.Pool
}

// NewPostgresActivityRepository constructs an activity repository backed by PostgreSQL.
func NewPostgresActivityRepository(pool db.Pool) *PostgresActivityRepository {
	return &PostgresActivityRepository{pool: pool}
}

// Append records a single lifecycle fact.
func (r *PostgresActivityRepository) Append(ctx context.Context, activity models.TokenActivity) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return insertActivity(ctx, conn, activity)
}

var _ ActivityRepository = (*PostgresActivityRepository)(nil)
