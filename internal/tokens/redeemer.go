package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oneglance/backend/internal/models"
	"github.com/oneglance/backend/internal/repositories"
	"github.com/oneglance/backend/internal/viewer"
)

// Redemption is the payload handed to a viewer after a successful consume.
// It is only produced after the consuming transaction commits.
type Redemption struct {
	Token            models.VideoToken
	Video            models.Video
	OwnerDisplayName string
}

// Redeemer turns an anonymous "redeem code X" request into either a one-time
// content disclosure or a typed rejection. All cross-request safety lives in
// the store's Consume transaction.
type Redeemer struct {
	Tokens  repositories.VideoTokenRepository
	NowFunc func() time.Time
}

// NewRedeemer constructs a redeemer over the provided token store.
func NewRedeemer(tokens repositories.VideoTokenRepository) *Redeemer {
	return &Redeemer{Tokens: tokens}
}

// Redeem consumes the token exactly once. Concurrent attempts for the same
// code see one success; the rest get ErrTokenAlreadyViewed. None of the
// failure reasons are retryable: they reflect terminal token state.
func (r *Redeemer) Redeem(ctx context.Context, code string, meta viewer.Meta) (Redemption, error) {
	if kind, ok := KindOf(code); !ok || kind != KindVideo {
		return Redemption{}, ErrTokenNotFound
	}

	result, err := r.Tokens.Consume(ctx, code, r.now(), meta.OriginHash, meta.Client)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Redemption{}, ErrTokenNotFound
		}
		return Redemption{}, fmt.Errorf("consume token: %w", err)
	}

	if !result.Consumed {
		switch result.Token.Status {
		case models.TokenStatusViewed:
			return Redemption{}, ErrTokenAlreadyViewed
		case models.TokenStatusExpired:
			return Redemption{}, ErrTokenExpired
		case models.TokenStatusRevoked:
			return Redemption{}, ErrTokenRevoked
		default:
			return Redemption{}, fmt.Errorf("token %s not consumed in status %q", result.Token.ID, result.Token.Status)
		}
	}

	return Redemption{
		Token:            result.Token,
		Video:            result.Video,
		OwnerDisplayName: result.OwnerDisplayName,
	}, nil
}

func (r *Redeemer) now() time.Time {
	if r.NowFunc != nil {
		return r.NowFunc()
	}
	return time.Now().UTC()
}
