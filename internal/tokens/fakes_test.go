package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/repositories"
)

// fakeTokenRepo mimics the store's consume semantics: a single critical
// section spans the read-evaluate-write sequence.
type fakeTokenRepo struct {
	mu         sync.Mutex
	byCode     map[string]*models.VideoToken
	videos     map[string]*models.Video
	ownerName  string
	activities []models.TokenActivity

	// conflicts makes the next n Create calls fail with ErrConflict, to
	// exercise the collision-retry path.
	conflicts int
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		byCode: make(map[string]*models.VideoToken),
		videos: make(map[string]*models.Video),
	}
}

func (f *fakeTokenRepo) addVideo(video models.Video) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := video
	f.videos[video.ID] = &v
}

func (f *fakeTokenRepo) addToken(token models.VideoToken) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := token
	f.byCode[token.Code] = &t
}

func (f *fakeTokenRepo) Create(_ context.Context, token models.VideoToken, activity models.TokenActivity) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conflicts > 0 {
		f.conflicts--
		return repositories.ErrConflict
	}
	if _, exists := f.byCode[token.Code]; exists {
		return repositories.ErrConflict
	}

	t := token
	f.byCode[token.Code] = &t
	f.activities = append(f.activities, activity)
	return nil
}

func (f *fakeTokenRepo) FindByCode(_ context.Context, code string, at time.Time) (models.VideoToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	token, ok := f.byCode[code]
	if !ok {
		return models.VideoToken{}, repositories.ErrNotFound
	}
	f.expireLocked(token, at)
	return *token, nil
}

func (f *fakeTokenRepo) Consume(_ context.Context, code string, at time.Time, originHash, client string) (repositories.ConsumeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	token, ok := f.byCode[code]
	if !ok {
		return repositories.ConsumeResult{}, repositories.ErrNotFound
	}

	f.expireLocked(token, at)

	if token.Status != models.TokenStatusActive {
		return repositories.ConsumeResult{Token: *token}, nil
	}

	viewedAt := at
	token.Status = models.TokenStatusViewed
	token.ViewedAt = &viewedAt
	token.ViewerOriginHash = originHash
	token.ViewerClient = client

	video := f.videos[token.VideoID]
	if video != nil {
		video.IsViewed = true
		if video.FirstViewedAt == nil {
			t := at
			video.FirstViewedAt = &t
			id := token.ID
			video.ViewerTokenID = &id
		}
	}

	f.activities = append(f.activities, models.TokenActivity{
		ID:         uuid.NewString(),
		TokenType:  models.TokenTypeVideo,
		TokenID:    token.ID,
		Activity:   models.ActivityViewed,
		OccurredAt: at,
		OriginHash: originHash,
		Client:     client,
	})

	result := repositories.ConsumeResult{
		Token:            *token,
		OwnerDisplayName: f.ownerName,
		Consumed:         true,
	}
	if video != nil {
		result.Video = *video
	}
	return result, nil
}

func (f *fakeTokenRepo) ListForOwner(_ context.Context, ownerID string) ([]models.VideoToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.VideoToken
	for _, token := range f.byCode {
		if token.OwnerID == ownerID {
			out = append(out, *token)
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) expireLocked(token *models.VideoToken, at time.Time) {
	if token.Status != models.TokenStatusActive || !at.After(token.ExpiresAt) {
		return
	}
	token.Status = models.TokenStatusExpired
	f.activities = append(f.activities, models.TokenActivity{
		ID:         uuid.NewString(),
		TokenType:  models.TokenTypeVideo,
		TokenID:    token.ID,
		Activity:   models.ActivityExpired,
		OccurredAt: at,
	})
}

func (f *fakeTokenRepo) activityCount(kind models.Activity) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, a := range f.activities {
		if a.Activity == kind {
			n++
		}
	}
	return n
}

var _ repositories.VideoTokenRepository = (*fakeTokenRepo)(nil)

// fakeVideoRepo covers the issuer's video lookups and composite creation.
type fakeVideoRepo struct {
	mu     sync.Mutex
	videos map[string]*models.Video
	tokens *fakeTokenRepo

	// conflicts makes the next n composite creations fail with ErrConflict.
	conflicts int
	// failTokenInsert simulates a token-write failure after the video
	// write inside the composite; nothing may survive it.
	failTokenInsert error
}

func newFakeVideoRepo(tokens *fakeTokenRepo) *fakeVideoRepo {
	return &fakeVideoRepo{videos: make(map[string]*models.Video), tokens: tokens}
}

func (f *fakeVideoRepo) add(video models.Video) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := video
	f.videos[video.ID] = &v
}

func (f *fakeVideoRepo) CreateDefault(_ context.Context, video models.Video) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, v := range f.videos {
		if v.OwnerID == video.OwnerID && v.Kind == models.VideoKindDefault {
			v.IsActive = false
		}
	}
	v := video
	v.Kind = models.VideoKindDefault
	v.IsActive = true
	f.videos[video.ID] = &v
	return nil
}

func (f *fakeVideoRepo) CreateCustomWithToken(ctx context.Context, video models.Video, token models.VideoToken, activity models.TokenActivity) error {
	f.mu.Lock()
	if f.conflicts > 0 {
		f.conflicts--
		f.mu.Unlock()
		return repositories.ErrConflict
	}
	if f.failTokenInsert != nil {
		f.mu.Unlock()
		return f.failTokenInsert
	}
	v := video
	f.videos[video.ID] = &v
	f.mu.Unlock()

	if f.tokens != nil {
		f.tokens.addVideo(video)
		return f.tokens.Create(ctx, token, activity)
	}
	return nil
}

func (f *fakeVideoRepo) FindByID(_ context.Context, id string) (models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	video, ok := f.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return *video, nil
}

func (f *fakeVideoRepo) ActiveDefaultForOwner(_ context.Context, ownerID string) (models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, video := range f.videos {
		if video.OwnerID == ownerID && video.Kind == models.VideoKindDefault && video.IsActive {
			return *video, nil
		}
	}
	return models.Video{}, repositories.ErrNotFound
}

func (f *fakeVideoRepo) ListForOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Video
	for _, video := range f.videos {
		if video.OwnerID == ownerID {
			out = append(out, *video)
		}
	}
	return out, nil
}

func (f *fakeVideoRepo) Deactivate(_ context.Context, ownerID, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	video, ok := f.videos[videoID]
	if !ok || video.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	video.IsActive = false
	return nil
}

var _ repositories.VideoRepository = (*fakeVideoRepo)(nil)
