package repositories

import (
	"context"
	"time"

	"github.com/oneglance/backend/internal/models"
)

// NotificationRepository defines data access for owner notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification models.Notification) error
	ListForOwner(ctx context.Context, ownerID string) ([]models.Notification, error)
	// MarkRead flips the read flag. Scoped to the owner so one owner
	// cannot acknowledge another's notifications.
	MarkRead(ctx context.Context, ownerID, notificationID string, at time.Time) error
}
