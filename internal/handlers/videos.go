package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/oneglance/backend/internal/logging"
	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/repositories"
	"github.com/oneglance/backend/internal/tokens"
)

// maxUploadBytes bounds clip uploads; 15-35 second clips stay well under it.
const maxUploadBytes = 64 << 20

// VideoHandler provides the owner-side clip endpoints.
type VideoHandler struct {
	Issuer   TokenIssuer
	Videos   VideoDirectory
	Storage  AssetStorage
	Verifier IdentityVerifier
}

type videoResponse struct {
	ID              string    `json:"id"`
	AssetURL        string    `json:"assetUrl"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
	DurationSeconds int       `json:"durationSeconds"`
	Kind            string    `json:"kind"`
	IsActive        bool      `json:"isActive"`
	IsViewed        bool      `json:"isViewed"`
	CreatedAt       time.Time `json:"createdAt"`
}

func videoPayload(video models.Video) videoResponse {
	return videoResponse{
		ID:              video.ID,
		AssetURL:        video.AssetURL,
		ThumbnailURL:    video.ThumbnailURL,
		DurationSeconds: video.DurationSeconds,
		Kind:            string(video.Kind),
		IsActive:        video.IsActive,
		IsViewed:        video.IsViewed,
		CreatedAt:       video.CreatedAt,
	}
}

// Handle serves /api/v1/videos: POST uploads a clip, GET lists the owner's.
func (h VideoHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// create accepts a multipart upload: the clip file under `video` plus kind,
// durationSeconds and, for custom clips, the token fields.
func (h VideoHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ownerID, ok := ownerFromRequest(w, r, h.Verifier)
	if !ok {
		return
	}

	if h.Storage == nil {
		logger.Error("asset storage unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "asset storage unavailable"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid multipart payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}

	duration, err := strconv.Atoi(r.FormValue("durationSeconds"))
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "durationSeconds must be a number"})
		return
	}
	if duration < models.MinVideoDurationSeconds || duration > models.MaxVideoDurationSeconds {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("durationSeconds must be between %d and %d", models.MinVideoDurationSeconds, models.MaxVideoDurationSeconds),
		})
		return
	}

	kind := r.FormValue("kind")
	if kind != string(models.VideoKindDefault) && kind != string(models.VideoKindCustom) {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "kind must be default or custom"})
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video file is required"})
		return
	}
	defer file.Close()

	assetURL, err := h.storeAsset(r, ownerID, file, header)
	if err != nil {
		logger.Error("asset upload failed", "error", err, "ownerId", ownerID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store video"})
		return
	}

	if kind == string(models.VideoKindDefault) {
		video, err := h.Issuer.CreateDefaultVideo(ctx, ownerID, assetURL, "", duration)
		if err != nil {
			logger.Error("default video creation failed", "error", err, "ownerId", ownerID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store video"})
			return
		}
		respondJSON(ctx, w, http.StatusCreated, map[string]any{"video": videoPayload(video)})
		return
	}

	daysValid := 0
	if raw := r.FormValue("daysValid"); raw != "" {
		daysValid, err = strconv.Atoi(raw)
		if err != nil {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "daysValid must be a number"})
			return
		}
	}

	video, token, err := h.Issuer.CreateCustomVideo(ctx, tokens.CustomVideoParams{
		OwnerID:         ownerID,
		AssetURL:        assetURL,
		DurationSeconds: duration,
		Label:           r.FormValue("label"),
		Notes:           r.FormValue("notes"),
		DaysValid:       daysValid,
	})
	if err != nil {
		switch {
		case errors.Is(err, tokens.ErrDaysValidOutOfRange):
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "daysValid is out of range"})
		case errors.Is(err, tokens.ErrDurationOutOfRange):
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "durationSeconds is out of range"})
		default:
			logger.Error("custom video creation failed", "error", err, "ownerId", ownerID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store video"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"video": videoPayload(video),
		"token": tokenPayload(token),
	})
}

func (h VideoHandler) storeAsset(r *http.Request, ownerID string, file multipart.File, header *multipart.FileHeader) (string, error) {
	ext := path.Ext(header.Filename)
	if ext == "" {
		ext = ".mp4"
	}
	key := fmt.Sprintf("videos/%s/%s%s", ownerID, uuid.NewString(), ext)
	return h.Storage.Save(r.Context(), key, header.Header.Get("Content-Type"), file)
}

func (h VideoHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := ownerFromRequest(w, r, h.Verifier)
	if !ok {
		return
	}

	owned, err := h.Videos.ListForOwner(ctx, ownerID)
	if err != nil {
		logging.FromContext(ctx).Error("video listing failed", "error", err, "ownerId", ownerID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list videos"})
		return
	}

	payload := make([]videoResponse, 0, len(owned))
	for _, video := range owned {
		payload = append(payload, videoPayload(video))
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": payload})
}

// Deactivate handles POST /api/v1/videos/deactivate.
func (h VideoHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
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
		VideoID string `json:"videoId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "videoId is required"})
		return
	}

	if err := h.Videos.Deactivate(ctx, ownerID, req.VideoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logging.FromContext(ctx).Error("video deactivation failed", "error", err, "videoId", req.VideoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to deactivate video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deactivated"})
}
