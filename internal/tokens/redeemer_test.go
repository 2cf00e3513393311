package tokens

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/viewer"
)

func newTestRedeemer(now time.Time) (*Redeemer, *fakeTokenRepo) {
	repo := newFakeTokenRepo()
	repo.ownerName = "Jamie"
	redeemer := NewRedeemer(repo)
	redeemer.NowFunc = func() time.Time { return now }
	return redeemer, repo
}

func seedToken(repo *fakeTokenRepo, code string, status models.TokenStatus, expiresAt time.Time) models.VideoToken {
	video := models.Video{
		ID:       "video-1",
		OwnerID:  "owner-1",
		AssetURL: "https://cdn.example.com/videos/video-1.mp4",
		IsActive: true,
	}
	repo.addVideo(video)

	token := models.VideoToken{
		ID:        "token-1",
		Code:      code,
		VideoID:   video.ID,
		OwnerID:   video.OwnerID,
		Status:    status,
		ExpiresAt: expiresAt,
	}
	repo.addToken(token)
	return token
}

func TestRedeemSuccess(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	redeemer, repo := newTestRedeemer(now)
	seedToken(repo, "VID-abc123def456", models.TokenStatusActive, now.Add(time.Hour))

	meta := viewer.Meta{OriginHash: "hash-1", Client: "browser/1.0"}
	redemption, err := redeemer.Redeem(context.Background(), "VID-abc123def456", meta)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}

	if redemption.Token.Status != models.TokenStatusViewed {
		t.Fatalf("expected viewed status got %q", redemption.Token.Status)
	}
	if redemption.Token.ViewedAt == nil || !redemption.Token.ViewedAt.Equal(now) {
		t.Fatalf("expected viewed_at %v got %v", now, redemption.Token.ViewedAt)
	}
	if redemption.Token.ViewerOriginHash != "hash-1" || redemption.Token.ViewerClient != "browser/1.0" {
		t.Fatalf("consumer metadata not recorded: %+v", redemption.Token)
	}
	if redemption.Video.AssetURL == "" {
		t.Fatal("expected video payload after consume")
	}
	if redemption.OwnerDisplayName != "Jamie" {
		t.Fatalf("expected owner display name got %q", redemption.OwnerDisplayName)
	}
	if got := repo.activityCount(models.ActivityViewed); got != 1 {
		t.Fatalf("expected 1 viewed activity entry got %d", got)
	}
}

func TestRedeemSecondAttemptConflicts(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	redeemer, repo := newTestRedeemer(now)
	seedToken(repo, "VID-abc123def456", models.TokenStatusActive, now.Add(time.Hour))

	if _, err := redeemer.Redeem(context.Background(), "VID-abc123def456", viewer.Meta{}); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if _, err := redeemer.Redeem(context.Background(), "VID-abc123def456", viewer.Meta{}); !errors.Is(err, ErrTokenAlreadyViewed) {
		t.Fatalf("expected ErrTokenAlreadyViewed got %v", err)
	}
}

func TestRedeemExactlyOnceUnderContention(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	redeemer, repo := newTestRedeemer(now)
	token := seedToken(repo, "VID-abc123def456", models.TokenStatusActive, now.Add(time.Hour))

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := redeemer.Redeem(context.Background(), "VID-abc123def456", viewer.Meta{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrTokenAlreadyViewed):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one success got %d", successes)
	}
	if conflicts != attempts-1 {
		t.Fatalf("expected %d already-viewed conflicts got %d", attempts-1, conflicts)
	}
	if got := repo.activityCount(models.ActivityViewed); got != 1 {
		t.Fatalf("expected a single viewed activity entry got %d", got)
	}

	reloaded, err := repo.FindByCode(context.Background(), "VID-abc123def456", now)
	if err != nil {
		t.Fatalf("reload token: %v", err)
	}
	if reloaded.Status != models.TokenStatusViewed {
		t.Fatalf("expected viewed status got %q", reloaded.Status)
	}

	repo.mu.Lock()
	stored := repo.videos[token.VideoID]
	repo.mu.Unlock()
	if !stored.IsViewed || stored.FirstViewedAt == nil {
		t.Fatalf("video first-view bookkeeping missing: %+v", stored)
	}
	if stored.ViewerTokenID == nil || *stored.ViewerTokenID != token.ID {
		t.Fatalf("expected viewer token %q got %v", token.ID, stored.ViewerTokenID)
	}
}

func TestRedeemLazyExpiry(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	redeemer, repo := newTestRedeemer(now)
	seedToken(repo, "VID-abc123def456", models.TokenStatusActive, now.Add(-time.Minute))

	if _, err := redeemer.Redeem(context.Background(), "VID-abc123def456", viewer.Meta{}); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired got %v", err)
	}

	token, err := repo.FindByCode(context.Background(), "VID-abc123def456", now)
	if err != nil {
		t.Fatalf("reload token: %v", err)
	}
	if token.Status != models.TokenStatusExpired {
		t.Fatalf("expected expired status got %q", token.Status)
	}
	if got := repo.activityCount(models.ActivityExpired); got != 1 {
		t.Fatalf("expected 1 expired activity entry got %d", got)
	}

	// A second attempt finds the terminal state, without double-logging.
	if _, err := redeemer.Redeem(context.Background(), "VID-abc123def456", viewer.Meta{}); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired on retry got %v", err)
	}
	if got := repo.activityCount(models.ActivityExpired); got != 1 {
		t.Fatalf("expired activity logged twice")
	}
}

func TestRedeemExpiryAppliesEvenAfterPriorRead(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	redeemer, repo := newTestRedeemer(now)
	seedToken(repo, "VID-abc123def456", models.TokenStatusActive, now.Add(-time.Hour))

	// Reading before redeeming must not resurrect the token.
	if _, err := repo.FindByCode(context.Background(), "VID-abc123def456", now); err != nil {
		t.Fatalf("read token: %v", err)
	}
	if _, err := redeemer.Redeem(context.Background(), "VID-abc123def456", viewer.Meta{}); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired got %v", err)
	}
}

func TestRedeemRevoked(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	redeemer, repo := newTestRedeemer(now)
	seedToken(repo, "VID-abc123def456", models.TokenStatusRevoked, now.Add(time.Hour))

	if _, err := redeemer.Redeem(context.Background(), "VID-abc123def456", viewer.Meta{}); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked got %v", err)
	}
}

func TestRedeemRejectsUnknownAndMalformedCodes(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	redeemer, _ := newTestRedeemer(now)

	for _, code := range []string{"VID-zzzzzzzzzzzz", "PRO-abc123def456", "not-a-code", ""} {
		if _, err := redeemer.Redeem(context.Background(), code, viewer.Meta{}); !errors.Is(err, ErrTokenNotFound) {
			t.Fatalf("code %q: expected ErrTokenNotFound got %v", code, err)
		}
	}
}
