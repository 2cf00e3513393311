package handlers

import (
	"net/http"

	"github.com/oneglance/backend/internal/logging"
)

// MetricsHandler serves the owner metrics dashboard payload.
type MetricsHandler struct {
	Metrics  MetricsProvider
	Verifier IdentityVerifier
}

// Handle implements GET /api/v1/metrics.
func (h MetricsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	ownerID, ok := ownerFromRequest(w, r, h.Verifier)
	if !ok {
		return
	}

	owner, err := h.Metrics.ForOwner(ctx, ownerID)
	if err != nil {
		logging.FromContext(ctx).Error("metrics assembly failed", "error", err, "ownerId", ownerID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load metrics"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"statusCounts": owner.StatusCounts,
		"timeline":     owner.Timeline,
		"funnel": map[string]int{
			"profileViews":        owner.Funnel.ProfileViews,
			"videoViews":          owner.Funnel.VideoViews,
			"totalResponses":      owner.Funnel.TotalResponses,
			"interestedResponses": owner.Funnel.InterestedResponses,
		},
	})
}
