package tokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/repositories"
)

// Issuer mints disposable video tokens and performs the composite
// custom-video-plus-token creation.
type Issuer struct {
	Tokens repositories.VideoTokenRepository
	Videos repositories.VideoRepository

	// DaysValidDefault applies when the caller passes zero; DaysValidMax
	// bounds owner-supplied windows.
	DaysValidDefault int
	DaysValidMax     int

	NowFunc func() time.Time
}

// NewIssuer constructs an issuer with the provided validity bounds.
func NewIssuer(tokens repositories.VideoTokenRepository, videos repositories.VideoRepository, daysValidDefault, daysValidMax int) *Issuer {
	if daysValidDefault <= 0 {
		daysValidDefault = 3
	}
	if daysValidMax <= 0 {
		daysValidMax = 30
	}
	return &Issuer{
		Tokens:           tokens,
		Videos:           videos,
		DaysValidDefault: daysValidDefault,
		DaysValidMax:     daysValidMax,
	}
}

// Issue mints a token for an existing video owned by ownerID. The code is
// regenerated on store conflict up to MaxGenerateAttempts times.
func (i *Issuer) Issue(ctx context.Context, ownerID, videoID, label, notes string, daysValid int) (models.VideoToken, error) {
	daysValid, err := i.resolveDaysValid(daysValid)
	if err != nil {
		return models.VideoToken{}, err
	}

	video, err := i.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.VideoToken{}, ErrVideoNotFound
		}
		return models.VideoToken{}, fmt.Errorf("load target video: %w", err)
	}
	if video.OwnerID != ownerID {
		// Another owner's video looks the same as a missing one.
		return models.VideoToken{}, ErrVideoNotFound
	}
	if !video.IsActive {
		return models.VideoToken{}, ErrVideoInactive
	}

	now := i.now()
	for attempt := 0; attempt < MaxGenerateAttempts; attempt++ {
		code, err := Generate(KindVideo)
		if err != nil {
			return models.VideoToken{}, err
		}

		token := models.VideoToken{
			ID:        uuid.NewString(),
			Code:      code,
			VideoID:   videoID,
			OwnerID:   ownerID,
			Status:    models.TokenStatusActive,
			Label:     label,
			Notes:     notes,
			CreatedAt: now,
			ExpiresAt: now.AddDate(0, 0, daysValid),
		}

		err = i.Tokens.Create(ctx, token, createdActivity(token, daysValid))
		if errors.Is(err, repositories.ErrConflict) {
			continue
		}
		if err != nil {
			return models.VideoToken{}, err
		}

		return token, nil
	}

	return models.VideoToken{}, ErrIdentifierExhausted
}

// CustomVideoParams carries the inputs for the composite creation.
type CustomVideoParams struct {
	OwnerID         string
	AssetURL        string
	ThumbnailURL    string
	DurationSeconds int
	Label           string
	Notes           string
	DaysValid       int
}

// CreateCustomVideo creates a custom clip together with its redemption token
// as a single indivisible operation: a token-creation failure leaves no
// orphaned video row. Code collisions retry the whole composite.
func (i *Issuer) CreateCustomVideo(ctx context.Context, params CustomVideoParams) (models.Video, models.VideoToken, error) {
	daysValid, err := i.resolveDaysValid(params.DaysValid)
	if err != nil {
		return models.Video{}, models.VideoToken{}, err
	}
	if params.DurationSeconds < models.MinVideoDurationSeconds || params.DurationSeconds > models.MaxVideoDurationSeconds {
		return models.Video{}, models.VideoToken{}, ErrDurationOutOfRange
	}

	now := i.now()
	for attempt := 0; attempt < MaxGenerateAttempts; attempt++ {
		code, err := Generate(KindVideo)
		if err != nil {
			return models.Video{}, models.VideoToken{}, err
		}

		video := models.Video{
			ID:              uuid.NewString(),
			OwnerID:         params.OwnerID,
			AssetURL:        params.AssetURL,
			ThumbnailURL:    params.ThumbnailURL,
			DurationSeconds: params.DurationSeconds,
			Kind:            models.VideoKindCustom,
			IsActive:        true,
			CreatedAt:       now,
		}
		token := models.VideoToken{
			ID:        uuid.NewString(),
			Code:      code,
			VideoID:   video.ID,
			OwnerID:   params.OwnerID,
			Status:    models.TokenStatusActive,
			Label:     params.Label,
			Notes:     params.Notes,
			CreatedAt: now,
			ExpiresAt: now.AddDate(0, 0, daysValid),
		}

		err = i.Videos.CreateCustomWithToken(ctx, video, token, createdActivity(token, daysValid))
		if errors.Is(err, repositories.ErrConflict) {
			continue
		}
		if err != nil {
			return models.Video{}, models.VideoToken{}, err
		}

		return video, token, nil
	}

	return models.Video{}, models.VideoToken{}, ErrIdentifierExhausted
}

// CreateDefaultVideo stores a new default clip, retiring the previous one.
func (i *Issuer) CreateDefaultVideo(ctx context.Context, ownerID, assetURL, thumbnailURL string, durationSeconds int) (models.Video, error) {
	if durationSeconds < models.MinVideoDurationSeconds || durationSeconds > models.MaxVideoDurationSeconds {
		return models.Video{}, ErrDurationOutOfRange
	}

	video := models.Video{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		AssetURL:        assetURL,
		ThumbnailURL:    thumbnailURL,
		DurationSeconds: durationSeconds,
		Kind:            models.VideoKindDefault,
		IsActive:        true,
		CreatedAt:       i.now(),
	}

	if err := i.Videos.CreateDefault(ctx, video); err != nil {
		return models.Video{}, err
	}

	return video, nil
}

func (i *Issuer) resolveDaysValid(daysValid int) (int, error) {
	if daysValid == 0 {
		return i.DaysValidDefault, nil
	}
	if daysValid < 0 || daysValid > i.DaysValidMax {
		return 0, ErrDaysValidOutOfRange
	}
	return daysValid, nil
}

func (i *Issuer) now() time.Time {
	if i.NowFunc != nil {
		return i.NowFunc()
	}
	return time.Now().UTC()
}

func createdActivity(token models.VideoToken, daysValid int) models.TokenActivity {
	return models.TokenActivity{
		ID:         uuid.NewString(),
		TokenType:  models.TokenTypeVideo,
		TokenID:    token.ID,
		Activity:   models.ActivityCreated,
		OccurredAt: token.CreatedAt,
		Attributes: map[string]string{
			"days_valid": strconv.Itoa(daysValid),
		},
	}
}
