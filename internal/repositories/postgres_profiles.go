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

// PostgresProfileRepository provides PostgreSQL-backed persistence for profiles.
type PostgresProfileRepository struct {
	pool db.Pool
}

// NewPostgresProfileRepository constructs a profile repository backed by PostgreSQL.
func NewPostgresProfileRepository(pool db.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// Create persists a new profile and its created activity entry atomically.
func (r *PostgresProfileRepository) Create(ctx context.Context, profile models.Profile, activity models.TokenActivity) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            INSERT INTO profiles (id, owner_id, token, display_name, bio, photo_urls, social_links, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, COALESCE($6, '{}'), COALESCE($7, '{}'), $8, $9)
        `, profile.ID, profile.OwnerID, profile.Token, profile.DisplayName, profile.Bio, profile.PhotoURLs, profile.SocialLinks, profile.CreatedAt, profile.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
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

// FindByToken fetches a profile by its permanent token code.
func (r *PostgresProfileRepository) FindByToken(ctx context.Context, token string) (models.Profile, error) {
	return r.findOne(ctx, `WHERE token = $1`, token)
}

// FindByOwner fetches a profile by its owner identity.
func (r *PostgresProfileRepository) FindByOwner(ctx context.Context, ownerID string) (models.Profile, error) {
	return r.findOne(ctx, `WHERE owner_id = $1`, ownerID)
}

func (r *PostgresProfileRepository) findOne(ctx context.Context, where string, arg any) (models.Profile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Profile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, token, display_name, bio, photo_urls, social_links, created_at, updated_at
        FROM profiles `+where, arg)

	var profile models.Profile
	if err := row.Scan(&profile.ID, &profile.OwnerID, &profile.Token, &profile.DisplayName, &profile.Bio, &profile.PhotoURLs, &profile.SocialLinks, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, fmt.Errorf("select profile: %w", err)
	}

	return profile, nil
}

var _ ProfileRepository = (*PostgresProfileRepository)(nil)
