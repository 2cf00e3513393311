package responses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/oneglance/backend/internal/logging"
	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/repositories"
	"github.com/oneglance/backend/internal/viewer"
)

// Submission is the viewer-supplied portion of a response.
type Submission struct {
	ViewerName       string                `json:"viewerName" validate:"required,max=80"`
	Interest         models.InterestLevel  `json:"interestLevel" validate:"required,oneof=interested maybe_later not_interested"`
	Email            string                `json:"email" validate:"omitempty,email,max=254"`
	Phone            string                `json:"phone" validate:"omitempty,max=32"`
	SocialHandle     string                `json:"socialHandle" validate:"omitempty,max=80"`
	PreferredContact models.ContactChannel `json:"preferredContact" validate:"omitempty,oneof=email phone social"`
	Message          string                `json:"message" validate:"omitempty,max=1000"`
}

// Collector validates and persists anonymous viewer responses, then hands
// accepted ones to the notification dispatcher. Dispatch failures never roll
// back a stored response.
type Collector struct {
	Responses  repositories.ResponseRepository
	Tokens     repositories.VideoTokenRepository
	Profiles   repositories.ProfileRepository
	Dispatcher *Dispatcher
	NowFunc    func() time.Time

	validate *validator.Validate
}

// NewCollector wires a collector over the provided stores.
func NewCollector(responses repositories.ResponseRepository, tokens repositories.VideoTokenRepository, profiles repositories.ProfileRepository, dispatcher *Dispatcher) *Collector {
	return &Collector{
		Responses:  responses,
		Tokens:     tokens,
		Profiles:   profiles,
		Dispatcher: dispatcher,
		validate:   validator.New(),
	}
}

// SubmitForToken stores a response against a video token. At most one
// response per token ever succeeds; the store enforces the rule inside the
// insert transaction.
func (c *Collector) SubmitForToken(ctx context.Context, code string, sub Submission, meta viewer.Meta) (models.ViewerResponse, error) {
	if err := c.check(sub); err != nil {
		return models.ViewerResponse{}, err
	}

	now := c.now()
	token, err := c.Tokens.FindByCode(ctx, code, now)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ViewerResponse{}, ErrTargetNotFound
		}
		return models.ViewerResponse{}, fmt.Errorf("load token target: %w", err)
	}

	tokenID := token.ID
	response := c.build(sub, meta, now)
	response.VideoTokenID = &tokenID

	activity := models.TokenActivity{
		ID:         uuid.NewString(),
		TokenType:  models.TokenTypeVideo,
		TokenID:    token.ID,
		Activity:   models.ActivityResponded,
		OccurredAt: now,
		OriginHash: meta.OriginHash,
		Client:     meta.Client,
		Attributes: map[string]string{"interest_level": string(sub.Interest)},
	}

	if err := c.Responses.CreateForToken(ctx, response, activity); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.ViewerResponse{}, ErrResponseExists
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ViewerResponse{}, ErrTargetNotFound
		}
		return models.ViewerResponse{}, err
	}

	c.notify(ctx, token.OwnerID, response)
	return response, nil
}

// SubmitForProfile stores a response against a reusable profile token.
// Profiles accept any number of responses.
func (c *Collector) SubmitForProfile(ctx context.Context, profileToken string, sub Submission, meta viewer.Meta) (models.ViewerResponse, error) {
	if err := c.check(sub); err != nil {
		return models.ViewerResponse{}, err
	}

	profile, err := c.Profiles.FindByToken(ctx, profileToken)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ViewerResponse{}, ErrTargetNotFound
		}
		return models.ViewerResponse{}, fmt.Errorf("load profile target: %w", err)
	}

	profileID := profile.ID
	response := c.build(sub, meta, c.now())
	response.ProfileID = &profileID

	if err := c.Responses.CreateForProfile(ctx, response); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ViewerResponse{}, ErrTargetNotFound
		}
		return models.ViewerResponse{}, err
	}

	c.notify(ctx, profile.OwnerID, response)
	return response, nil
}

// check runs the structural pass, then the cross-field contact rules.
func (c *Collector) check(sub Submission) error {
	fields := make(map[string]string)

	if err := c.validate.Struct(sub); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate submission: %w", err)
		}
		for _, fe := range verrs {
			fields[fe.Field()] = fmt.Sprintf("failed %q validation", fe.Tag())
		}
	}

	hasContact := sub.Email != "" || sub.Phone != "" || sub.SocialHandle != ""
	if sub.Interest == models.InterestInterested && !hasContact {
		fields["Email"] = "an interested response needs at least one contact channel"
	}

	switch sub.PreferredContact {
	case models.ContactEmail:
		if sub.Email == "" {
			fields["PreferredContact"] = "preferred channel email is empty"
		}
	case models.ContactPhone:
		if sub.Phone == "" {
			fields["PreferredContact"] = "preferred channel phone is empty"
		}
	case models.ContactSocial:
		if sub.SocialHandle == "" {
			fields["PreferredContact"] = "preferred channel social is empty"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (c *Collector) build(sub Submission, meta viewer.Meta, now time.Time) models.ViewerResponse {
	return models.ViewerResponse{
		ID:               uuid.NewString(),
		Interest:         sub.Interest,
		ViewerName:       sub.ViewerName,
		Email:            sub.Email,
		Phone:            sub.Phone,
		SocialHandle:     sub.SocialHandle,
		PreferredContact: sub.PreferredContact,
		Message:          sub.Message,
		OriginHash:       meta.OriginHash,
		CreatedAt:        now,
	}
}

// notify is best-effort: the response is already committed, so a dispatcher
// failure is logged and swallowed.
func (c *Collector) notify(ctx context.Context, ownerID string, response models.ViewerResponse) {
	if c.Dispatcher == nil {
		return
	}
	if err := c.Dispatcher.Dispatch(ctx, ownerID, response); err != nil {
		logging.FromContext(ctx).Warn("notification dispatch failed",
			"ownerId", ownerID,
			"responseId", response.ID,
			"error", err,
		)
	}
}

func (c *Collector) now() time.Time {
	if c.NowFunc != nil {
		return c.NowFunc()
	}
	return time.Now().UTC()
}
