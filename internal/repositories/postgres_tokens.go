package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oneglance/backend/internal/db"
	"github.com/oneglance/backend/internal/models"
)

// PostgresVideoTokenRepository provides PostgreSQL-backed persistence for
// disposable video tokens, including the atomic consume protocol.
type PostgresVideoTokenRepository struct {
	pool db.Pool
}

// NewPostgresVideoTokenRepository constructs a token repository backed by PostgreSQL.
func NewPostgresVideoTokenRepository(pool db.Pool) *PostgresVideoTokenRepository {
	return &PostgresVideoTokenRepository{pool: pool}
}

const tokenColumns = `id, code, video_id, owner_id, status, label, notes, created_at, expires_at, viewed_at, viewer_origin_hash, viewer_client`

func insertToken(ctx context.Context, q execer, token models.VideoToken) error {
	_, err := q.Exec(ctx, `
        INSERT INTO video_tokens (id, code, video_id, owner_id, status, label, notes, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, token.ID, token.Code, token.VideoID, token.OwnerID, token.Status, token.Label, token.Notes, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert video token: %w", err)
	}
	return nil
}

// Create persists a new token and its created activity entry atomically.
func (r *PostgresVideoTokenRepository) Create(ctx context.Context, token models.VideoToken, activity models.TokenActivity) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := insertToken(ctx, tx, token); err != nil {
			return err
		}
		return insertActivity(ctx, tx, activity)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return err
	}

	return nil
}

// FindByCode loads a token by code, lazily flipping an overdue active token
// to expired (and logging the transition) before returning it.
func (r *PostgresVideoTokenRepository) FindByCode(ctx context.Context, code string, at time.Time) (models.VideoToken, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoToken{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var token models.VideoToken
	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+tokenColumns+` FROM video_tokens WHERE code = $1 FOR UPDATE`, code)

		var scanErr error
		token, scanErr = scanToken(row)
		if scanErr != nil {
			return scanErr
		}

		return expireIfOverdue(ctx, tx, &token, at)
	})
	if err != nil {
		return models.VideoToken{}, err
	}

	return token, nil
}

// Consume executes the redeem-and-consume protocol as one transaction: lock
// the row, evaluate status, and only for a live token write the viewed state,
// the video first-view bookkeeping, and the viewed activity entry together.
func (r *PostgresVideoTokenRepository) Consume(ctx context.Context, code string, at time.Time, originHash, client string) (ConsumeResult, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return ConsumeResult{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var result ConsumeResult
	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		result = ConsumeResult{}

		row := tx.QueryRow(ctx, `SELECT `+tokenColumns+` FROM video_tokens WHERE code = $1 FOR UPDATE`, code)
		token, err := scanToken(row)
		if err != nil {
			return err
		}

		if err := expireIfOverdue(ctx, tx, &token, at); err != nil {
			return err
		}

		if token.Status != models.TokenStatusActive {
			result.Token = token
			return nil
		}

		tag, err := tx.Exec(ctx, `
            UPDATE video_tokens
            SET status = $2, viewed_at = $3, viewer_origin_hash = $4, viewer_client = $5
            WHERE id = $1 AND status = $6
        `, token.ID, models.TokenStatusViewed, at, originHash, client, models.TokenStatusActive)
		if err != nil {
			return fmt.Errorf("mark token viewed: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// The row lock makes this unreachable; treat it as a lost race.
			result.Token = token
			result.Token.Status = models.TokenStatusViewed
			return nil
		}

		if _, err := tx.Exec(ctx, `
            UPDATE videos
            SET is_viewed = true,
                first_viewed_at = COALESCE(first_viewed_at, $2),
                viewer_token_id = COALESCE(viewer_token_id, $3)
            WHERE id = $1
        `, token.VideoID, at, token.ID); err != nil {
			return fmt.Errorf("record first view on video: %w", err)
		}

		videoRow := tx.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, token.VideoID)
		video, err := scanVideo(videoRow)
		if err != nil {
			return err
		}

		var displayName string
		nameRow := tx.QueryRow(ctx, `SELECT display_name FROM profiles WHERE owner_id = $1`, token.OwnerID)
		if err := nameRow.Scan(&displayName); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("select owner display name: %w", err)
		}

		if err := insertActivity(ctx, tx, models.TokenActivity{
			ID:         uuid.NewString(),
			TokenType:  models.TokenTypeVideo,
			TokenID:    token.ID,
			Activity:   models.ActivityViewed,
			OccurredAt: at,
			OriginHash: originHash,
			Client:     client,
		}); err != nil {
			return err
		}

		viewedAt := at
		token.Status = models.TokenStatusViewed
		token.ViewedAt = &viewedAt
		token.ViewerOriginHash = originHash
		token.ViewerClient = client

		result = ConsumeResult{
			Token:            token,
			Video:            video,
			OwnerDisplayName: displayName,
			Consumed:         true,
		}
		return nil
	})
	if err != nil {
		return ConsumeResult{}, err
	}

	return result, nil
}

// ListForOwner returns the owner's tokens, newest first.
func (r *PostgresVideoTokenRepository) ListForOwner(ctx context.Context, ownerID string) ([]models.VideoToken, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+tokenColumns+`
        FROM video_tokens
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query video tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.VideoToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video tokens: %w", err)
	}

	return tokens, nil
}

// expireIfOverdue flips an active-but-overdue token to expired inside the
// caller's transaction, logging the transition. The token is updated in place.
func expireIfOverdue(ctx context.Context, tx pgx.Tx, token *models.VideoToken, at time.Time) error {
	if token.Status != models.TokenStatusActive || !at.After(token.ExpiresAt) {
		return nil
	}

	if _, err := tx.Exec(ctx, `
        UPDATE video_tokens
        SET status = $2
        WHERE id = $1 AND status = $3
    `, token.ID, models.TokenStatusExpired, models.TokenStatusActive); err != nil {
		return fmt.Errorf("expire overdue token: %w", err)
	}

	if err := insertActivity(ctx, tx, models.TokenActivity{
		ID:         uuid.NewString(),
		TokenType:  models.TokenTypeVideo,
		TokenID:    token.ID,
		Activity:   models.ActivityExpired,
		OccurredAt: at,
	}); err != nil {
		return err
	}

	token.Status = models.TokenStatusExpired
	return nil
}

func scanToken(row rowScanner) (models.VideoToken, error) {
	var (
		token    models.VideoToken
		viewedAt sql.NullTime
	)

	err := row.Scan(&token.ID, &token.Code, &token.VideoID, &token.OwnerID, &token.Status, &token.Label, &token.Notes, &token.CreatedAt, &token.ExpiresAt, &viewedAt, &token.ViewerOriginHash, &token.ViewerClient)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VideoToken{}, ErrNotFound
		}
		return models.VideoToken{}, fmt.Errorf("scan video token: %w", err)
	}

	if viewedAt.Valid {
		t := viewedAt.Time.UTC()
		token.ViewedAt = &t
	}

	return token, nil
}

var _ VideoTokenRepository = (*PostgresVideoTokenRepository)(nil)
