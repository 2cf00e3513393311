package handlers

import (
	"net/http"
	"time"

	"github.com/oneglance/backend/internal/logging"
	"github.com/oneglance/backend/internal/models"
)

// ResponseHandler serves the owner's inbox of viewer responses.
type ResponseHandler struct {
	Responses ResponseDirectory
	Verifier  IdentityVerifier
}

type viewerResponsePayload struct {
	ID               string    `json:"id"`
	ProfileID        *string   `json:"profileId,omitempty"`
	VideoTokenID     *string   `json:"videoTokenId,omitempty"`
	Interest         string    `json:"interestLevel"`
	ViewerName       string    `json:"viewerName"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	SocialHandle     string    `json:"socialHandle,omitempty"`
	PreferredContact string    `json:"preferredContact,omitempty"`
	Message          string    `json:"message,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

func responsePayload(response models.ViewerResponse) viewerResponsePayload {
	return viewerResponsePayload{
		ID:               response.ID,
		ProfileID:        response.ProfileID,
		VideoTokenID:     response.VideoTokenID,
		Interest:         string(response.Interest),
		ViewerName:       response.ViewerName,
		Email:            response.Email,
		Phone:            response.Phone,
		SocialHandle:     response.SocialHandle,
		PreferredContact: string(response.PreferredContact),
		Message:          response.Message,
		CreatedAt:        response.CreatedAt,
	}
}

// List handles GET /api/v1/responses.
func (h ResponseHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	ownerID, ok := ownerFromRequest(w, r, h.Verifier)
	if !ok {
		return
	}

	owned, err := h.Responses.ListForOwner(ctx, ownerID)
	if err != nil {
		logging.FromContext(ctx).Error("response listing failed", "error", err, "ownerId", ownerID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list responses"})
		return
	}

	payload := make([]viewerResponsePayload, 0, len(owned))
	for _, response := range owned {
		payload = append(payload, responsePayload(response))
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"responses": payload})
}
