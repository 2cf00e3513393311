package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oneglance/backend/internal/logging"
	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/repositories"
	"github.com/oneglance/backend/internal/tokens"
	"github.com/oneglance/backend/internal/viewer"
)

var (
	// ErrProfileExists indicates the owner already has a profile. One
	// profile per owner, and the permanent token never rotates.
	ErrProfileExists = errors.New("owner already has a profile")
	// ErrProfileNotFound indicates no profile matches the token or owner.
	ErrProfileNotFound = errors.New("profile not found")
)

// CreateParams carries the owner-supplied profile fields.
type CreateParams struct {
	OwnerID     string
	DisplayName string
	Bio         string
	PhotoURLs   []string
	SocialLinks map[string]string
}

// Service owns the reusable profile link: minting the permanent token at
// creation and serving the viewer-facing read.
type Service struct {
	Profiles repositories.ProfileRepository
	Videos   repositories.VideoRepository
	Activity repositories.ActivityRepository
	NowFunc  func() time.Time
}

func NewService(profiles repositories.ProfileRepository, videos repositories.VideoRepository, activity repositories.ActivityRepository) *Service {
	return &Service{Profiles: profiles, Videos: videos, Activity: activity}
}

// Create mints the owner's permanent PRO token and stores the profile. Code
// collisions retry with a fresh code up to the shared attempt budget; an
// owner conflict does not, since retrying cannot help.
func (s *Service) Create(ctx context.Context, params CreateParams) (models.Profile, error) {
	if _, err := s.Profiles.FindByOwner(ctx, params.OwnerID); err == nil {
		return models.Profile{}, ErrProfileExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.Profile{}, fmt.Errorf("check existing profile: %w", err)
	}

	now := s.now()
	for attempt := 0; attempt < tokens.MaxGenerateAttempts; attempt++ {
		code, err := tokens.Generate(tokens.KindProfile)
		if err != nil {
			return models.Profile{}, fmt.Errorf("generate profile token: %w", err)
		}

		profile := models.Profile{
			ID:          uuid.NewString(),
			OwnerID:     params.OwnerID,
			Token:       code,
			DisplayName: params.DisplayName,
			Bio:         params.Bio,
			PhotoURLs:   params.PhotoURLs,
			SocialLinks: params.SocialLinks,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		activity := models.TokenActivity{
			ID:         uuid.NewString(),
			TokenType:  models.TokenTypeProfile,
			TokenID:    profile.ID,
			Activity:   models.ActivityCreated,
			OccurredAt: now,
		}

		err = s.Profiles.Create(ctx, profile, activity)
		if err == nil {
			return profile, nil
		}
		if errors.Is(err, repositories.ErrConflict) {
			// Either the code collided or the owner raced a second
			// create. Recheck the owner before burning an attempt.
			if _, ownerErr := s.Profiles.FindByOwner(ctx, params.OwnerID); ownerErr == nil {
				return models.Profile{}, ErrProfileExists
			}
			continue
		}
		return models.Profile{}, err
	}
	return models.Profile{}, tokens.ErrIdentifierExhausted
}

// View is the viewer-facing read: the profile plus its active default video,
// when one exists.
type View struct {
	Profile      models.Profile
	DefaultVideo *models.Video
}

// ReadByToken serves a PRO link. Profile reads never consume anything; the
// viewed entry is appended after the read and a failure there only logs.
func (s *Service) ReadByToken(ctx context.Context, token string, meta viewer.Meta) (View, error) {
	if kind, ok := tokens.KindOf(token); !ok || kind != tokens.KindProfile {
		return View{}, ErrProfileNotFound
	}

	profile, err := s.Profiles.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return View{}, ErrProfileNotFound
		}
		return View{}, fmt.Errorf("load profile: %w", err)
	}

	view := View{Profile: profile}
	video, err := s.Videos.ActiveDefaultForOwner(ctx, profile.OwnerID)
	switch {
	case err == nil:
		view.DefaultVideo = &video
	case errors.Is(err, repositories.ErrNotFound):
		// A profile without a default video still renders.
	default:
		return View{}, fmt.Errorf("load default video: %w", err)
	}

	s.recordView(ctx, profile.ID, meta)
	return view, nil
}

// FindByOwner returns the owner's own profile for the management surface.
func (s *Service) FindByOwner(ctx context.Context, ownerID string) (models.Profile, error) {
	profile, err := s.Profiles.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Profile{}, ErrProfileNotFound
		}
		return models.Profile{}, err
	}
	return profile, nil
}

func (s *Service) recordView(ctx context.Context, profileID string, meta viewer.Meta) {
	activity := models.TokenActivity{
		ID:         uuid.NewString(),
		TokenType:  models.TokenTypeProfile,
		TokenID:    profileID,
		Activity:   models.ActivityViewed,
		OccurredAt: s.now(),
		OriginHash: meta.OriginHash,
		Client:     meta.Client,
	}
	if err := s.Activity.Append(ctx, activity); err != nil {
		logging.FromContext(ctx).Warn("profile view activity append failed",
			"profileId", profileID,
			"error", err,
		)
	}
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
