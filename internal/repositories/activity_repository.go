package repositories

import (
	"context"

	"github.com/oneglance/backend/internal/models"
)

// ActivityRepository appends immutable token lifecycle facts. Entries are
// never updated or deleted.
type ActivityRepository interface {
	Append(ctx context.Context, activity models.TokenActivity) error
}
