package responses

import (
	"context"
	"sync"
	"time"

	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/repositories"
)

type fakeResponseRepo struct {
	mu         sync.Mutex
	byToken    map[string]models.ViewerResponse
	forProfile []models.ViewerResponse
	activities []models.TokenActivity
}

var _ repositories.ResponseRepository = (*fakeResponseRepo)(nil)

func newFakeResponseRepo() *fakeResponseRepo {
	return &fakeResponseRepo{byToken: make(map[string]models.ViewerResponse)}
}

func (f *fakeResponseRepo) CreateForToken(_ context.Context, response models.ViewerResponse, activity models.TokenActivity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byToken[*response.VideoTokenID]; exists {
		return repositories.ErrConflict
	}
	f.byToken[*response.VideoTokenID] = response
	f.activities = append(f.activities, activity)
	return nil
}

func (f *fakeResponseRepo) CreateForProfile(_ context.Context, response models.ViewerResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forProfile = append(f.forProfile, response)
	return nil
}

func (f *fakeResponseRepo) ListForOwner(context.Context, string) ([]models.ViewerResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ViewerResponse, 0, len(f.byToken)+len(f.forProfile))
	for _, r := range f.byToken {
		out = append(out, r)
	}
	out = append(out, f.forProfile...)
	return out, nil
}

func (f *fakeResponseRepo) stored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byToken) + len(f.forProfile)
}

// fakeTokenLookup only serves FindByCode; the collector never issues or
// consumes tokens.
type fakeTokenLookup struct {
	tokens map[string]models.VideoToken
}

var _ repositories.VideoTokenRepository = (*fakeTokenLookup)(nil)

func newFakeTokenLookup(tokens ...models.VideoToken) *fakeTokenLookup {
	f := &fakeTokenLookup{tokens: make(map[string]models.VideoToken)}
	for _, token := range tokens {
		f.tokens[token.Code] = token
	}
	return f
}

func (f *fakeTokenLookup) Create(context.Context, models.VideoToken, models.TokenActivity) error {
	return nil
}

func (f *fakeTokenLookup) FindByCode(_ context.Context, code string, _ time.Time) (models.VideoToken, error) {
	token, ok := f.tokens[code]
	if !ok {
		return models.VideoToken{}, repositories.ErrNotFound
	}
	return token, nil
}

func (f *fakeTokenLookup) Consume(context.Context, string, time.Time, string, string) (repositories.ConsumeResult, error) {
	return repositories.ConsumeResult{}, repositories.ErrNotFound
}

func (f *fakeTokenLookup) ListForOwner(context.Context, string) ([]models.VideoToken, error) {
	return nil, nil
}

type fakeProfileLookup struct {
	profiles map[string]models.Profile
}

var _ repositories.ProfileRepository = (*fakeProfileLookup)(nil)

func newFakeProfileLookup(profiles ...models.Profile) *fakeProfileLookup {
	f := &fakeProfileLookup{profiles: make(map[string]models.Profile)}
	for _, profile := range profiles {
		f.profiles[profile.Token] = profile
	}
	return f
}

func (f *fakeProfileLookup) Create(context.Context, models.Profile, models.TokenActivity) error {
	return nil
}

func (f *fakeProfileLookup) FindByToken(_ context.Context, token string) (models.Profile, error) {
	profile, ok := f.profiles[token]
	if !ok {
		return models.Profile{}, repositories.ErrNotFound
	}
	return profile, nil
}

func (f *fakeProfileLookup) FindByOwner(context.Context, string) (models.Profile, error) {
	return models.Profile{}, repositories.ErrNotFound
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	failErr error
	created []models.Notification
}

var _ repositories.NotificationRepository = (*fakeNotificationRepo)(nil)

func (f *fakeNotificationRepo) Create(_ context.Context, notification models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.created = append(f.created, notification)
	return nil
}

func (f *fakeNotificationRepo) ListForOwner(_ context.Context, ownerID string) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.created {
		if n.OwnerID == ownerID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(context.Context, string, string, time.Time) error {
	return repositories.ErrNotFound
}
