package repositories

import (
	"context"
	"errors"
	"fmt"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oneglance/backend/internal/db"
	"github.com/oneglance/backend/internal/models"
)

// PostgresResponseRepository provides PostgreSQL-backed persistence for
// anonymous viewer responses.
type PostgresResponseRepository struct {
	pool db.Pool
}

// NewPostgresResponseRepository constructs a response repository backed by PostgreSQL.
func NewPostgresResponseRepository(pool db.Pool) *PostgresResponseRepository {
	return &PostgresResponseRepository{pool: pool}
}

const insertResponseSQL = `
    INSERT INTO viewer_responses (id, profile_id, video_token_id, interest_level, viewer_name, email, phone, social_handle, preferred_contact, message, origin_hash, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

func insertResponse(ctx context.Context, q execer, response models.ViewerResponse) error {
	_, err := q.Exec(ctx, insertResponseSQL,
		response.ID, response.ProfileID, response.VideoTokenID, response.Interest, response.ViewerName,
		response.Email, response.Phone, response.SocialHandle, response.PreferredContact, response.Message,
		response.OriginHash, response.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert viewer response: %w", err)
	}
	return nil
}

// CreateForToken stores a response against a video token. The duplicate check
// and the insert share one transaction so two concurrent submissions cannot
// both pass; the unique index backstops the race.
func (r *PostgresResponseRepository) CreateForToken(ctx context.Context, response models.ViewerResponse, activity models.TokenActivity) error {
	if response.VideoTokenID == nil {
		return fmt.Errorf("response missing video token target")
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var existing string
		err := tx.QueryRow(ctx, `
            SELECT id FROM viewer_responses WHERE video_token_id = $1 FOR UPDATE
        `, *response.VideoTokenID).Scan(&existing)
		if err == nil {
			return ErrConflict
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("check existing response: %w", err)
		}

		if err := insertResponse(ctx, tx, response); err != nil {
			return err
		}

		return insertActivity(ctx, tx, activity)
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrConflict
		}
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

// CreateForProfile stores a response against a profile. Profile tokens are
// reusable, so no uniqueness rule applies.
func (r *PostgresResponseRepository) CreateForProfile(ctx context.Context, response models.ViewerResponse) error {
	if response.ProfileID == nil {
		return fmt.Errorf("response missing profile target")
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := insertResponse(ctx, conn, response); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return err
	}

	return nil
}

// ListForOwner returns every response targeting the owner's profile or one of
// the owner's tokens, newest first.
func (r *PostgresResponseRepository) ListForOwner(ctx context.Context, ownerID string) ([]models.ViewerResponse, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT vr.id, vr.profile_id, vr.video_token_id, vr.interest_level, vr.viewer_name, vr.email, vr.phone, vr.social_handle, vr.preferred_contact, vr.message, vr.origin_hash, vr.created_at
        FROM viewer_responses vr
        LEFT JOIN profiles p ON p.id = vr.profile_id
        LEFT JOIN video_tokens vt ON vt.id = vr.video_token_id
        WHERE p.owner_id = $1 OR vt.owner_id = $1
        ORDER BY vr.created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query viewer responses: %w", err)
	}
	defer rows.Close()

	var responses []models.ViewerResponse
	for rows.Next() {
		var response models.ViewerResponse
		if err := rows.Scan(&response.ID, &response.ProfileID, &response.VideoTokenID, &response.Interest, &response.ViewerName, &response.Email, &response.Phone, &response.SocialHandle, &response.PreferredContact, &response.Message, &response.OriginHash, &response.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan viewer response: %w", err)
		}
		responses = append(responses, response)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate viewer responses: %w", err)
	}

	return responses, nil
}

var _ ResponseRepository = (*PostgresResponseRepository)(nil)
