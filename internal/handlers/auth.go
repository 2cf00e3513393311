package handlers

import (
	"net/http"
	"strings"

	"github.com/oneglance/backend/internal/logging"
)

// ownerFromRequest resolves the authenticated owner behind the bearer token.
// Identity lives with an external provider; this service only verifies the
// signature and extracts the subject.
func ownerFromRequest(w http.ResponseWriter, r *http.Request, verifier IdentityVerifier) (string, bool) {
	ctx := r.Context()

	if verifier == nil {
		logging.FromContext(ctx).Error("identity verifier unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "identity service unavailable"})
		return "", false
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		return "", false
	}

	subject, err := verifier.Subject(strings.TrimSpace(token))
	if err != nil {
		logging.FromContext(ctx).Warn("bearer token rejected", "error", err)
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid bearer token"})
		return "", false
	}
	return subject, true
}
