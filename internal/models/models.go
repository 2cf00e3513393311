package models

import "time"

// Profile is the permanent, many-times-readable public card for an owner.
// Exactly one exists per owner and its token is minted once, at creation.
type Profile struct {
	ID          string
	OwnerID     string
	Token       string
	DisplayName string
	Bio         string
	PhotoURLs   []string
	SocialLinks map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VideoKind distinguishes the single rotating default clip from clips minted
// for a specific share.
type VideoKind string

const (
	VideoKindDefault VideoKind = "default"
	VideoKindCustom  VideoKind = "custom"
)

// Video is a short clip owned by one profile owner.
type Video struct {
	ID              string
	OwnerID         string
	AssetURL        string
	ThumbnailURL    string
	DurationSeconds int
	Kind            VideoKind
	IsActive        bool
	IsViewed        bool
	FirstViewedAt   *time.Time
	ViewerTokenID   *string
	CreatedAt       time.Time
}

// Clip duration bounds enforced at upload time.
const (
	MinVideoDurationSeconds = 15
	MaxVideoDurationSeconds = 35
)

// TokenStatus is the lifecycle state of a disposable video token. All states
// other than active are terminal.
type TokenStatus string

const (
	TokenStatusActive  TokenStatus = "active"
	TokenStatusViewed  TokenStatus = "viewed"
	TokenStatusExpired TokenStatus = "expired"
	TokenStatusRevoked TokenStatus = "revoked"
)

// Terminal reports whether no further transition is permitted from s.
func (s TokenStatus) Terminal() bool {
	return s == TokenStatusViewed || s == TokenStatusExpired || s == TokenStatusRevoked
}

// VideoToken is a single-redemption credential bound to exactly one video.
type VideoToken struct {
	ID               string
	Code             string
	VideoID          string
	OwnerID          string
	Status           TokenStatus
	Label            string
	Notes            string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	ViewedAt         *time.Time
	ViewerOriginHash string
	ViewerClient     string
}

// TokenType tags activity entries with the token namespace they belong to.
type TokenType string

const (
	TokenTypeProfile TokenType = "profile"
	TokenTypeVideo   TokenType = "video"
)

// Activity enumerates the lifecycle events recorded in the activity log.
type Activity string

const (
	ActivityCreated   Activity = "created"
	ActivityViewed    Activity = "viewed"
	ActivityResponded Activity = "responded"
	ActivityExpired   Activity = "expired"
	ActivityRevoked   Activity = "revoked"
)

// TokenActivity is an immutable, append-only lifecycle fact.
type TokenActivity struct {
	ID         string
	TokenType  TokenType
	TokenID    string
	Activity   Activity
	OccurredAt time.Time
	OriginHash string
	Client     string
	Attributes map[string]string
}

// InterestLevel is the viewer's stated interest on a response.
type InterestLevel string

const (
	InterestInterested    InterestLevel = "interested"
	InterestMaybeLater    InterestLevel = "maybe_later"
	InterestNotInterested InterestLevel = "not_interested"
)

// ContactChannel selects which contact field the viewer prefers.
type ContactChannel string

const (
	ContactEmail  ContactChannel = "email"
	ContactPhone  ContactChannel = "phone"
	ContactSocial ContactChannel = "social"
)

// ViewerResponse is an anonymous submission tied to exactly one target:
// either a profile or a video token, never both.
type ViewerResponse struct {
	ID               string
	ProfileID        *string
	VideoTokenID     *string
	Interest         InterestLevel
	ViewerName       string
	Email            string
	Phone            string
	SocialHandle     string
	PreferredContact ContactChannel
	Message          string
	OriginHash       string
	CreatedAt        time.Time
}

// Notification is the owner-facing record derived from an accepted response.
// Only the read flag is ever mutated after creation.
type Notification struct {
	ID        string
	OwnerID   string
	Type      string
	Title     string
	Message   string
	IsRead    bool
	ReadAt    *time.Time
	Metadata  map[string]string
	CreatedAt time.Time
}

// Funnel holds the derived per-owner counts in conversion order.
type Funnel struct {
	ProfileViews        int
	VideoViews          int
	TotalResponses      int
	InterestedResponses int
}

// ActivityBucket is one day of activity counts for the owner timeline.
type ActivityBucket struct {
	Day      time.Time
	Activity Activity
	Count    int
}
