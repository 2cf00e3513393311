package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/oneglance/backend/internal/metrics"
	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/profiles"
	"github.com/oneglance/backend/internal/responses"
	"github.com/oneglance/backend/internal/tokens"
	"github.com/oneglance/backend/internal/viewer"
)

type stubVerifier struct{}

func (stubVerifier) Subject(token string) (string, error) {
	if token == "owner-token" {
		return "owner-1", nil
	}
	return "", errors.New("unknown token")
}

func authedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer owner-token")
	return req
}

type stubIssuer struct {
	issueErr  error
	issued    models.VideoToken
	customErr error
	video     models.Video
}

func (s *stubIssuer) Issue(_ context.Context, ownerID, videoID, label, _ string, _ int) (models.VideoToken, error) {
	if s.issueErr != nil {
		return models.VideoToken{}, s.issueErr
	}
	token := s.issued
	token.OwnerID = ownerID
	token.VideoID = videoID
	token.Label = label
	return token, nil
}

func (s *stubIssuer) CreateCustomVideo(_ context.Context, params tokens.CustomVideoParams) (models.Video, models.VideoToken, error) {
	if s.customErr != nil {
		return models.Video{}, models.VideoToken{}, s.customErr
	}
	video := s.video
	video.OwnerID = params.OwnerID
	video.AssetURL = params.AssetURL
	return video, s.issued, nil
}

func (s *stubIssuer) CreateDefaultVideo(_ context.Context, ownerID, assetURL, _ string, _ int) (models.Video, error) {
	if s.customErr != nil {
		return models.Video{}, s.customErr
	}
	video := s.video
	video.OwnerID = ownerID
	video.AssetURL = assetURL
	return video, nil
}

type stubTokenDirectory struct {
	listErr error
	owned   []models.VideoToken
}

func (s *stubTokenDirectory) ListForOwner(context.Context, string) ([]models.VideoToken, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.owned, nil
}

type stubVideoDirectory struct {
	listErr       error
	deactivateErr error
	owned         []models.Video
}

func (s *stubVideoDirectory) ListForOwner(context.Context, string) ([]models.Video, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.owned, nil
}

func (s *stubVideoDirectory) Deactivate(context.Context, string, string) error {
	return s.deactivateErr
}

type stubRedeemer struct {
	err        error
	redemption tokens.Redemption
}

func (s *stubRedeemer) Redeem(context.Context, string, viewer.Meta) (tokens.Redemption, error) {
	if s.err != nil {
		return tokens.Redemption{}, s.err
	}
	return s.redemption, nil
}

type stubProfileService struct {
	createErr error
	findErr   error
	readErr   error
	profile   models.Profile
	view      profiles.View
}

func (s *stubProfileService) Create(context.Context, profiles.CreateParams) (models.Profile, error) {
	if s.createErr != nil {
		return models.Profile{}, s.createErr
	}
	return s.profile, nil
}

func (s *stubProfileService) FindByOwner(context.Context, string) (models.Profile, error) {
	if s.findErr != nil {
		return models.Profile{}, s.findErr
	}
	return s.profile, nil
}

func (s *stubProfileService) ReadByToken(context.Context, string, viewer.Meta) (profiles.View, error) {
	if s.readErr != nil {
		return profiles.View{}, s.readErr
	}
	return s.view, nil
}

type stubCollector struct {
	err      error
	response models.ViewerResponse
	lastCode string
}

func (s *stubCollector) SubmitForToken(_ context.Context, code string, _ responses.Submission, _ viewer.Meta) (models.ViewerResponse, error) {
	s.lastCode = code
	if s.err != nil {
		return models.ViewerResponse{}, s.err
	}
	return s.response, nil
}

func (s *stubCollector) SubmitForProfile(_ context.Context, code string, _ responses.Submission, _ viewer.Meta) (models.ViewerResponse, error) {
	s.lastCode = code
	if s.err != nil {
		return models.ViewerResponse{}, s.err
	}
	return s.response, nil
}

type stubMetricsProvider struct {
	err   error
	owner metrics.OwnerMetrics
}

func (s *stubMetricsProvider) ForOwner(context.Context, string) (metrics.OwnerMetrics, error) {
	if s.err != nil {
		return metrics.OwnerMetrics{}, s.err
	}
	return s.owner, nil
}

type stubNotificationStore struct {
	listErr error
	readErr error
	owned   []models.Notification
	readIDs []string
}

func (s *stubNotificationStore) ListForOwner(context.Context, string) ([]models.Notification, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.owned, nil
}

func (s *stubNotificationStore) MarkRead(_ context.Context, _, notificationID string, _ time.Time) error {
	if s.readErr != nil {
		return s.readErr
	}
	s.readIDs = append(s.readIDs, notificationID)
	return nil
}

type stubResponseDirectory struct {
	listErr error
	owned   []models.ViewerResponse
}

func (s *stubResponseDirectory) ListForOwner(context.Context, string) ([]models.ViewerResponse, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.owned, nil
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }
