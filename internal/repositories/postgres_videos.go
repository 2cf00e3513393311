package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oneglance/backend/internal/db"
	"github.com/oneglance/backend/internal/models"
)

// PostgresVideoRepository provides PostgreSQL-backed persistence for clips.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, asset_url, thumbnail_url, duration_seconds, kind, is_active, is_viewed, first_viewed_at, viewer_token_id, created_at`

const insertVideoSQL = `
    INSERT INTO videos (id, owner_id, asset_url, thumbnail_url, duration_seconds, kind, is_active, is_viewed, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)
`

// CreateDefault stores a new default clip, retiring the previous one in the
// same transaction so the owner never has two active defaults.
func (r *PostgresVideoRepository) CreateDefault(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            UPDATE videos
            SET is_active = false
            WHERE owner_id = $1 AND kind = $2 AND is_active
        `, video.OwnerID, models.VideoKindDefault)
		if err != nil {
			return fmt.Errorf("retire previous default video: %w", err)
		}

		if _, err := tx.Exec(ctx, insertVideoSQL,
			video.ID, video.OwnerID, video.AssetURL, video.ThumbnailURL, video.DurationSeconds, models.VideoKindDefault, true, video.CreatedAt); err != nil {
			return fmt.Errorf("insert default video: %w", err)
		}

		return nil
	})
}

// CreateCustomWithToken inserts a custom clip, its redemption token, and the
// created activity entry as one atomic unit.
func (r *PostgresVideoRepository) CreateCustomWithToken(ctx context.Context, video models.Video, token models.VideoToken, activity models.TokenActivity) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertVideoSQL,
			video.ID, video.OwnerID, video.AssetURL, video.ThumbnailURL, video.DurationSeconds, models.VideoKindCustom, true, video.CreatedAt); err != nil {
			return fmt.Errorf("insert custom video: %w", err)
		}

		if err := insertToken(ctx, tx, token); err != nil {
			return err
		}

		return insertActivity(ctx, tx, activity)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}

	return nil
}

// FindByID fetches a single clip.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	return scanVideo(row)
}

// ActiveDefaultForOwner returns the owner's current default clip, if any.
func (r *PostgresVideoRepository) ActiveDefaultForOwner(ctx context.Context, ownerID string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE owner_id = $1 AND kind = $2 AND is_active
        ORDER BY created_at DESC
        LIMIT 1
    `, ownerID, models.VideoKindDefault)
	return scanVideo(row)
}

// ListForOwner returns all of an owner's clips, newest first.
func (r *PostgresVideoRepository) ListForOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// Deactivate soft-retires a clip. Scoped to the owner.
func (r *PostgresVideoRepository) Deactivate(ctx context.Context, ownerID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET is_active = false
        WHERE id = $1 AND owner_id = $2
    `, videoID, ownerID)
	if err != nil {
		return fmt.Errorf("deactivate video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (models.Video, error) {
	var (
		video         models.Video
		firstViewedAt sql.NullTime
		viewerTokenID sql.NullString
	)

	err := row.Scan(&video.ID, &video.OwnerID, &video.AssetURL, &video.ThumbnailURL, &video.DurationSeconds, &video.Kind, &video.IsActive, &video.IsViewed, &firstViewedAt, &viewerTokenID, &video.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("scan video: %w", err)
	}

	if firstViewedAt.Valid {
		t := firstViewedAt.Time.UTC()
		video.FirstViewedAt = &t
	}
	if viewerTokenID.Valid {
		id := viewerTokenID.String
		video.ViewerTokenID = &id
	}

	return video, nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
