package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/oneglance/backend/internal/logging"
	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/profiles"
	"github.com/oneglance/backend/internal/responses"
	"github.com/oneglance/backend/internal/tokens"
	"github.com/oneglance/backend/internal/viewer"
)

// ViewerHandler is the anonymous share-link surface under /v/. No auth; the
// code in the path is the only credential a viewer holds.
type ViewerHandler struct {
	Redeemer  TokenRedeemer
	Profiles  ProfileService
	Responses ResponseCollector
	Limiter   RateLimiter

	// OriginSecret keys the viewer IP hash; raw addresses are never stored.
	OriginSecret []byte
}

// Handle routes /v/{code} and /v/{code}/response.
func (h ViewerHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rest := strings.TrimPrefix(r.URL.Path, "/v/")
	segments := strings.Split(strings.Trim(rest, "/"), "/")

	if !allowRequest(h.Limiter, r, "viewer") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	switch {
	case len(segments) == 1 && segments[0] != "":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.view(w, r, segments[0])
	case len(segments) == 2 && segments[1] == "response":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.respond(w, r, segments[0])
	default:
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

// view serves GET /v/{code}. A PRO code is a plain read; a VID code is the
// one-shot redemption and burns the token on success.
func (h ViewerHandler) view(w http.ResponseWriter, r *http.Request, code string) {
	ctx := r.Context()
	meta := viewer.FromRequest(r, h.OriginSecret)

	kind, ok := tokens.KindOf(code)
	if !ok {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "unknown link"})
		return
	}

	switch kind {
	case tokens.KindProfile:
		view, err := h.Profiles.ReadByToken(ctx, code, meta)
		if err != nil {
			h.viewError(w, r, err)
			return
		}
		payload := map[string]any{"profile": profilePayload(view.Profile)}
		if view.DefaultVideo != nil {
			payload["video"] = videoPayload(*view.DefaultVideo)
		}
		respondJSON(ctx, w, http.StatusOK, payload)

	case tokens.KindVideo:
		redemption, err := h.Redeemer.Redeem(ctx, code, meta)
		if err != nil {
			h.viewError(w, r, err)
			return
		}
		respondJSON(ctx, w, http.StatusOK, map[string]any{
			"video":            videoPayload(redemption.Video),
			"ownerDisplayName": redemption.OwnerDisplayName,
			"viewedAt":         redemption.Token.ViewedAt,
		})
	}
}

func (h ViewerHandler) viewError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, tokens.ErrTokenNotFound), errors.Is(err, profiles.ErrProfileNotFound):
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "unknown link"})
	case errors.Is(err, tokens.ErrTokenAlreadyViewed):
		respondJSON(ctx, w, http.StatusGone, map[string]string{"error": "this link has already been used", "status": string(models.TokenStatusViewed)})
	case errors.Is(err, tokens.ErrTokenExpired):
		respondJSON(ctx, w, http.StatusGone, map[string]string{"error": "this link has expired", "status": string(models.TokenStatusExpired)})
	case errors.Is(err, tokens.ErrTokenRevoked):
		respondJSON(ctx, w, http.StatusGone, map[string]string{"error": "this link is no longer available", "status": string(models.TokenStatusRevoked)})
	default:
		logging.FromContext(ctx).Error("viewer request failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
	}
}

// respond serves POST /v/{code}/response for both PRO and VID codes.
func (h ViewerHandler) respond(w http.ResponseWriter, r *http.Request, code string) {
	ctx := r.Context()
	meta := viewer.FromRequest(r, h.OriginSecret)

	var sub responses.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	kind, ok := tokens.KindOf(code)
	if !ok {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "unknown link"})
		return
	}

	var (
		response models.ViewerResponse
		err      error
	)
	switch kind {
	case tokens.KindProfile:
		response, err = h.Responses.SubmitForProfile(ctx, code, sub, meta)
	case tokens.KindVideo:
		response, err = h.Responses.SubmitForToken(ctx, code, sub, meta)
	}

	if err != nil {
		var validation *responses.ValidationError
		switch {
		case errors.As(err, &validation):
			respondJSON(ctx, w, http.StatusBadRequest, map[string]any{"error": "invalid submission", "fields": validation.Fields})
		case errors.Is(err, responses.ErrResponseExists):
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "a response was already recorded for this link"})
		case errors.Is(err, responses.ErrTargetNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "unknown link"})
		default:
			logging.FromContext(ctx).Error("response submission failed", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to record response"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"id": response.ID, "status": "recorded"})
}
