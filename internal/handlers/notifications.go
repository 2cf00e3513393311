package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/oneglance/backend/internal/logging"
	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/repositories"
)

// NotificationHandler serves the owner notification feed.
type NotificationHandler struct {
	Notifications NotificationStore
	Verifier      IdentityVerifier
	NowFunc       func() time.Time
}

type notificationResponse struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	IsRead    bool              `json:"isRead"`
	ReadAt    *time.Time        `json:"readAt,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

func notificationPayload(n models.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	}
}

// List handles GET /api/v1/notifications.
func (h NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	ownerID, ok := ownerFromRequest(w, r, h.Verifier)
	if !ok {
		return
	}

	owned, err := h.Notifications.ListForOwner(ctx, ownerID)
	if err != nil {
		logging.FromContext(ctx).Error("notification listing failed", "error", err, "ownerId", ownerID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list notifications"})
		return
	}

	payload := make([]notificationResponse, 0, len(owned))
	for _, n := range owned {
		payload = append(payload, notificationPayload(n))
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"notifications": payload})
}

// MarkRead handles POST /api/v1/notifications/read.
func (h NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	ownerID, ok := ownerFromRequest(w, r, h.Verifier)
	if !ok {
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}

	if err := h.Notifications.MarkRead(ctx, ownerID, req.ID, h.now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "notification not found"})
			return
		}
		logging.FromContext(ctx).Error("notification read flip failed", "error", err, "notificationId", req.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update notification"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "read"})
}

func (h NotificationHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
