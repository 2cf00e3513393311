package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oneglance/backend/internal/db"
	"github.com/oneglance/backend/internal/models"
)

// PostgresNotificationRepository provides PostgreSQL-backed persistence for
// owner notifications.
type PostgresNotificationRepository struct {
	pool db.Pool
}

// NewPostgresNotificationRepository constructs a notification repository backed by PostgreSQL.
func NewPostgresNotificationRepository(pool db.Pool) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{pool: pool}
}

// Create inserts a notification row.
func (r *PostgresNotificationRepository) Create(ctx context.Context, notification models.Notification) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO notifications (id, owner_id, type, title, message, is_read, metadata, created_at)
        VALUES ($1, $2, $3, $4, $5, false, COALESCE($6, '{}'), $7)
    `, notification.ID, notification.OwnerID, notification.Type, notification.Title, notification.Message, notification.Metadata, notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	return nil
}

// ListForOwner returns the owner's notifications, newest first.
func (r *PostgresNotificationRepository) ListForOwner(ctx context.Context, ownerID string) ([]models.Notification, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, type, title, message, is_read, read_at, metadata, created_at
        FROM notifications
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var (
			notification models.Notification
			readAt       sql.NullTime
		)
		if err := rows.Scan(&notification.ID, &notification.OwnerID, &notification.Type, &notification.Title, &notification.Message, &notification.IsRead, &readAt, &notification.Metadata, &notification.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if readAt.Valid {
			t := readAt.Time.UTC()
			notification.ReadAt = &t
		}
		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead flips the read flag for one of the owner's notifications.
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, ownerID, notificationID string, at time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE notifications
        SET is_read = true, read_at = COALESCE(read_at, $3)
        WHERE id = $1 AND owner_id = $2
    `, notificationID, ownerID, at)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ NotificationRepository = (*PostgresNotificationRepository)(nil)
