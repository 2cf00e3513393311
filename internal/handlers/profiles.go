package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oneglance/backend/internal/logging"
	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/profiles"
	"github.com/oneglance/backend/internal/tokens"
)

// ProfileHandler provides the owner-side profile endpoints.
type ProfileHandler struct {
	Profiles ProfileService
	Verifier IdentityVerifier
}

type createProfileRequest struct {
	DisplayName string            `json:"displayName"`
	Bio         string            `json:"bio"`
	PhotoURLs   []string          `json:"photoUrls"`
	SocialLinks map[string]string `json:"socialLinks"`
}

type profileResponse struct {
	ID          string            `json:"id"`
	Token       string            `json:"token,omitempty"`
	DisplayName string            `json:"displayName"`
	Bio         string            `json:"bio,omitempty"`
	PhotoURLs   []string          `json:"photoUrls,omitempty"`
	SocialLinks map[string]string `json:"socialLinks,omitempty"`
}

// profilePayload is the viewer-facing shape: the permanent token is omitted
// since the viewer already holds it in the URL.
func profilePayload(profile models.Profile) profileResponse {
	return profileResponse{
		ID:          profile.ID,
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		PhotoURLs:   profile.PhotoURLs,
		SocialLinks: profile.SocialLinks,
	}
}

func ownerProfilePayload(profile models.Profile) profileResponse {
	payload := profilePayload(profile)
	payload.Token = profile.Token
	return payload
}

// Handle serves /api/v1/profiles: POST creates, GET returns the caller's own.
func (h ProfileHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.me(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ownerID, ok := ownerFromRequest(w, r, h.Verifier)
	if !ok {
		return
	}

	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.DisplayName == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "displayName is required"})
		return
	}

	profile, err := h.Profiles.Create(ctx, profiles.CreateParams{
		OwnerID:     ownerID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		PhotoURLs:   req.PhotoURLs,
		SocialLinks: req.SocialLinks,
	})
	if err != nil {
		switch {
		case errors.Is(err, profiles.ErrProfileExists):
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "profile already exists"})
		case errors.Is(err, tokens.ErrIdentifierExhausted):
			logger.Error("profile token space exhausted", "ownerId", ownerID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create profile"})
		default:
			logger.Error("profile creation failed", "error", err, "ownerId", ownerID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create profile"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, ownerProfilePayload(profile))
}

func (h ProfileHandler) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := ownerFromRequest(w, r, h.Verifier)
	if !ok {
		return
	}

	profile, err := h.Profiles.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, profiles.ErrProfileNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "no profile yet"})
			return
		}
		logging.FromContext(ctx).Error("profile lookup failed", "error", err, "ownerId", ownerID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load profile"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, ownerProfilePayload(profile))
}
