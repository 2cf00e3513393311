package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/oneglance/backend/internal/logging"
	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/tokens"
)

// TokenHandler provides the owner-side token endpoints.
type TokenHandler struct {
	Issuer   TokenIssuer
	Tokens   TokenDirectory
	Verifier IdentityVerifier
}

type createTokenRequest struct {
	VideoID   string `json:"videoId"`
	Label     string `json:"label"`
	Notes     string `json:"notes"`
	DaysValid int    `json:"daysValid"`
}

type tokenResponse struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	VideoID   string     `json:"videoId"`
	Status    string     `json:"status"`
	Label     string     `json:"label,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	ViewedAt  *time.Time `json:"viewedAt,omitempty"`
}

func tokenPayload(token models.VideoToken) tokenResponse {
	return tokenResponse{
		ID:        token.ID,
		Code:      token.Code,
		VideoID:   token.VideoID,
		Status:    string(token.Status),
		Label:     token.Label,
		Notes:     token.Notes,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
		ViewedAt:  token.ViewedAt,
	}
}

// Handle serves /api/v1/tokens: POST mints a token, GET lists the owner's.
func (h TokenHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h TokenHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ownerID, ok := ownerFromRequest(w, r, h.Verifier)
	if !ok {
		return
	}

	var req createTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid token payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.VideoID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "videoId is required"})
		return
	}

	token, err := h.Issuer.Issue(ctx, ownerID, req.VideoID, req.Label, req.Notes, req.DaysValid)
	if err != nil {
		switch {
		case errors.Is(err, tokens.ErrDaysValidOutOfRange):
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "daysValid is out of range"})
		case errors.Is(err, tokens.ErrVideoNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
		case errors.Is(err, tokens.ErrVideoInactive):
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "video is no longer active"})
		case errors.Is(err, tokens.ErrIdentifierExhausted):
			logger.Error("token code space exhausted", "ownerId", ownerID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to mint token"})
		default:
			logger.Error("token creation failed", "error", err, "ownerId", ownerID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to mint token"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, tokenPayload(token))
}

func (h TokenHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := ownerFromRequest(w, r, h.Verifier)
	if !ok {
		return
	}

	owned, err := h.Tokens.ListForOwner(ctx, ownerID)
	if err != nil {
		logging.FromContext(ctx).Error("token listing failed", "error", err, "ownerId", ownerID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list tokens"})
		return
	}

	payload := make([]tokenResponse, 0, len(owned))
	for _, token := range owned {
		payload = append(payload, tokenPayload(token))
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"tokens": payload})
}
