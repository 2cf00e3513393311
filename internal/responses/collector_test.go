package responses

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/viewer"
)

func newTestCollector() (*Collector, *fakeResponseRepo, *fakeNotificationRepo) {
	responseRepo := newFakeResponseRepo()
	notificationRepo := &fakeNotificationRepo{}

	token := models.VideoToken{
		ID:      "token-1",
		Code:    "VID-abc123def456",
		VideoID: "video-1",
		OwnerID: "owner-1",
		Status:  models.TokenStatusViewed,
	}
	profile := models.Profile{
		ID:      "profile-1",
		OwnerID: "owner-1",
		Token:   "PRO-abc123def456",
	}

	collector := NewCollector(responseRepo, newFakeTokenLookup(token), newFakeProfileLookup(profile), NewDispatcher(notificationRepo))
	collector.NowFunc = func() time.Time { return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC) }
	return collector, responseRepo, notificationRepo
}

func interestedSubmission() Submission {
	return Submission{
		ViewerName:       "Robin",
		Interest:         models.InterestInterested,
		Email:            "robin@example.com",
		PreferredContact: models.ContactEmail,
		Message:          "Loved the pitch.",
	}
}

func TestSubmitForTokenStoresResponseAndActivity(t *testing.T) {
	collector, responseRepo, _ := newTestCollector()

	meta := viewer.Meta{OriginHash: "hash-1", Client: "browser/1.0"}
	response, err := collector.SubmitForToken(context.Background(), "VID-abc123def456", interestedSubmission(), meta)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if response.VideoTokenID == nil || *response.VideoTokenID != "token-1" {
		t.Fatalf("response not bound to token: %+v", response)
	}
	if response.OriginHash != "hash-1" {
		t.Fatalf("origin hash not recorded: %+v", response)
	}
	if len(responseRepo.activities) != 1 || responseRepo.activities[0].Activity != models.ActivityResponded {
		t.Fatalf("expected one responded activity entry, got %+v", responseRepo.activities)
	}
	if got := responseRepo.activities[0].Attributes["interest_level"]; got != "interested" {
		t.Fatalf("activity missing interest level, got %q", got)
	}
}

func TestSubmitForTokenRejectsDuplicate(t *testing.T) {
	collector, _, _ := newTestCollector()

	if _, err := collector.SubmitForToken(context.Background(), "VID-abc123def456", interestedSubmission(), viewer.Meta{}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := collector.SubmitForToken(context.Background(), "VID-abc123def456", interestedSubmission(), viewer.Meta{}); !errors.Is(err, ErrResponseExists) {
		t.Fatalf("expected ErrResponseExists got %v", err)
	}
}

func TestSubmitForTokenSingleWinnerUnderContention(t *testing.T) {
	collector, responseRepo, notificationRepo := newTestCollector()

	const attempts = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := collector.SubmitForToken(context.Background(), "VID-abc123def456", interestedSubmission(), viewer.Meta{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrResponseExists):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || duplicates != attempts-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d/%d", attempts-1, successes, duplicates)
	}
	if responseRepo.stored() != 1 {
		t.Fatalf("expected a single stored response got %d", responseRepo.stored())
	}
	notifications, _ := notificationRepo.ListForOwner(context.Background(), "owner-1")
	if len(notifications) != 1 {
		t.Fatalf("expected a single notification got %d", len(notifications))
	}
}

func TestSubmitForProfileAllowsRepeats(t *testing.T) {
	collector, responseRepo, _ := newTestCollector()

	for i := 0; i < 3; i++ {
		if _, err := collector.SubmitForProfile(context.Background(), "PRO-abc123def456", interestedSubmission(), viewer.Meta{}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if len(responseRepo.forProfile) != 3 {
		t.Fatalf("expected 3 profile responses got %d", len(responseRepo.forProfile))
	}
}

func TestSubmitUnknownTargets(t *testing.T) {
	collector, _, _ := newTestCollector()

	if _, err := collector.SubmitForToken(context.Background(), "VID-zzzzzzzzzzzz", interestedSubmission(), viewer.Meta{}); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound for token got %v", err)
	}
	if _, err := collector.SubmitForProfile(context.Background(), "PRO-zzzzzzzzzzzz", interestedSubmission(), viewer.Meta{}); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound for profile got %v", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	collector, _, _ := newTestCollector()

	cases := []struct {
		name   string
		mutate func(*Submission)
	}{
		{"missing name", func(s *Submission) { s.ViewerName = "" }},
		{"unknown interest", func(s *Submission) { s.Interest = "obsessed" }},
		{"bad email", func(s *Submission) { s.Email = "not-an-email" }},
		{"interested without contact", func(s *Submission) {
			s.Email, s.Phone, s.SocialHandle = "", "", ""
			s.PreferredContact = ""
		}},
		{"preferred channel empty", func(s *Submission) {
			s.Email = ""
			s.Phone = "+1 555 0100"
			s.PreferredContact = models.ContactEmail
		}},
		{"message too long", func(s *Submission) {
			long := make([]byte, 1001)
			for i := range long {
				long[i] = 'a'
			}
			s.Message = string(long)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := interestedSubmission()
			tc.mutate(&sub)
			_, err := collector.SubmitForToken(context.Background(), "VID-abc123def456", sub, viewer.Meta{})
			if !IsValidation(err) {
				t.Fatalf("expected validation error got %v", err)
			}
		})
	}
}

func TestSubmitNotInterestedNeedsNoContact(t *testing.T) {
	collector, _, _ := newTestCollector()

	sub := Submission{ViewerName: "Robin", Interest: models.InterestNotInterested}
	if _, err := collector.SubmitForToken(context.Background(), "VID-abc123def456", sub, viewer.Meta{}); err != nil {
		t.Fatalf("submit without contact: %v", err)
	}
}

func TestSubmitSurvivesNotificationFailure(t *testing.T) {
	collector, responseRepo, notificationRepo := newTestCollector()
	notificationRepo.failErr = errors.New("notification store down")

	if _, err := collector.SubmitForToken(context.Background(), "VID-abc123def456", interestedSubmission(), viewer.Meta{}); err != nil {
		t.Fatalf("submit should not fail on dispatch error: %v", err)
	}
	if responseRepo.stored() != 1 {
		t.Fatalf("response should have been stored, got %d", responseRepo.stored())
	}
}

func TestDispatchTemplates(t *testing.T) {
	notificationRepo := &fakeNotificationRepo{}
	dispatcher := NewDispatcher(notificationRepo)
	dispatcher.NowFunc = func() time.Time { return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC) }

	tokenID := "token-1"
	cases := []struct {
		interest models.InterestLevel
		wantType string
	}{
		{models.InterestInterested, "viewer_interested"},
		{models.InterestMaybeLater, "viewer_maybe_later"},
		{models.InterestNotInterested, "viewer_passed"},
	}

	for _, tc := range cases {
		response := models.ViewerResponse{ID: "resp-" + string(tc.interest), VideoTokenID: &tokenID, Interest: tc.interest, ViewerName: "Robin"}
		if err := dispatcher.Dispatch(context.Background(), "owner-1", response); err != nil {
			t.Fatalf("dispatch %s: %v", tc.interest, err)
		}
	}

	notifications, _ := notificationRepo.ListForOwner(context.Background(), "owner-1")
	if len(notifications) != len(cases) {
		t.Fatalf("expected %d notifications got %d", len(cases), len(notifications))
	}
	for i, tc := range cases {
		n := notifications[i]
		if n.Type != tc.wantType {
			t.Errorf("interest %s: expected type %q got %q", tc.interest, tc.wantType, n.Type)
		}
		if n.Metadata["video_token_id"] != tokenID || n.Metadata["interest_level"] != string(tc.interest) {
			t.Errorf("interest %s: metadata incomplete: %+v", tc.interest, n.Metadata)
		}
	}
}
