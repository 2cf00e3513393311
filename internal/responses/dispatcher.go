package responses

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/repositories"
)

// notificationTemplate renders one fixed in-app message per interest level.
type notificationTemplate struct {
	kind  string
	title string
	body  func(viewerName string) string
}

var templatesByInterest = map[models.InterestLevel]notificationTemplate{
	models.InterestInterested: {
		kind:  "viewer_interested",
		title: "Someone is interested",
		body: func(name string) string {
			return fmt.Sprintf("%s watched your video and wants to connect.", name)
		},
	},
	models.InterestMaybeLater: {
		kind:  "viewer_maybe_later",
		title: "A viewer might circle back",
		body: func(name string) string {
			return fmt.Sprintf("%s watched your video and picked maybe later.", name)
		},
	},
	models.InterestNotInterested: {
		kind:  "viewer_passed",
		title: "A viewer passed",
		body: func(name string) string {
			return fmt.Sprintf("%s watched your video and passed this time.", name)
		},
	},
}

// Dispatcher turns accepted responses into owner notifications.
type Dispatcher struct {
	Notifications repositories.NotificationRepository
	NowFunc       func() time.Time
}

func NewDispatcher(notifications repositories.NotificationRepository) *Dispatcher {
	return &Dispatcher{Notifications: notifications}
}

// Dispatch writes a single notification for the owner of the response target.
func (d *Dispatcher) Dispatch(ctx context.Context, ownerID string, response models.ViewerResponse) error {
	tmpl, ok := templatesByInterest[response.Interest]
	if !ok {
		return fmt.Errorf("no notification template for interest level %q", response.Interest)
	}

	metadata := map[string]string{
		"response_id":    response.ID,
		"interest_level": string(response.Interest),
	}
	if response.VideoTokenID != nil {
		metadata["video_token_id"] = *response.VideoTokenID
	}
	if response.ProfileID != nil {
		metadata["profile_id"] = *response.ProfileID
	}

	notification := models.Notification{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Type:      tmpl.kind,
		Title:     tmpl.title,
		Message:   tmpl.body(response.ViewerName),
		Metadata:  metadata,
		CreatedAt: d.now(),
	}

	if err := d.Notifications.Create(ctx, notification); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

func (d *Dispatcher) now() time.Time {
	if d.NowFunc != nil {
		return d.NowFunc()
	}
	return time.Now().UTC()
}
