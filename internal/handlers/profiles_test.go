package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/profiles"
)

func TestProfileHandlerCreate(t *testing.T) {
	service := &stubProfileService{profile: models.Profile{
		ID:          "profile-1",
		Token:       "PRO-abc123def456",
		DisplayName: "Jamie",
	}}
	handler := ProfileHandler{Profiles: service, Verifier: stubVerifier{}}

	body, _ := json.Marshal(createProfileRequest{DisplayName: "Jamie", Bio: "Hi"})
	req := authedRequest(http.MethodPost, "/api/v1/profiles", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}

	var resp profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// The owner side does get the permanent token back.
	if resp.Token != "PRO-abc123def456" {
		t.Fatalf("expected token in owner payload: %+v", resp)
	}
}

func TestProfileHandlerCreateFailures(t *testing.T) {
	body := []byte(`{"displayName":"Jamie"}`)

	cases := []struct {
		name       string
		handler    ProfileHandler
		authed     bool
		body       []byte
		wantStatus int
	}{
		{"unauthenticated", ProfileHandler{Profiles: &stubProfileService{}, Verifier: stubVerifier{}}, false, body, http.StatusUnauthorized},
		{"badJSON", ProfileHandler{Profiles: &stubProfileService{}, Verifier: stubVerifier{}}, true, []byte("{"), http.StatusBadRequest},
		{"missingName", ProfileHandler{Profiles: &stubProfileService{}, Verifier: stubVerifier{}}, true, []byte(`{}`), http.StatusBadRequest},
		{"alreadyExists", ProfileHandler{Profiles: &stubProfileService{createErr: profiles.ErrProfileExists}, Verifier: stubVerifier{}}, true, body, http.StatusConflict},
		{"internal", ProfileHandler{Profiles: &stubProfileService{createErr: errors.New("boom")}, Verifier: stubVerifier{}}, true, body, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles", bytes.NewReader(tc.body))
			if tc.authed {
				req.Header.Set("Authorization", "Bearer owner-token")
			}
			rec := httptest.NewRecorder()

			tc.handler.Handle(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestProfileHandlerMe(t *testing.T) {
	service := &stubProfileService{profile: models.Profile{ID: "profile-1", Token: "PRO-abc123def456", DisplayName: "Jamie"}}
	handler := ProfileHandler{Profiles: service, Verifier: stubVerifier{}}

	req := authedRequest(http.MethodGet, "/api/v1/profiles", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	handler = ProfileHandler{Profiles: &stubProfileService{findErr: profiles.ErrProfileNotFound}, Verifier: stubVerifier{}}
	req = authedRequest(http.MethodGet, "/api/v1/profiles", nil)
	rec = httptest.NewRecorder()
	handler.Handle(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected not found got %d", rec.Code)
	}
}
