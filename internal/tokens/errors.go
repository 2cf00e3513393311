package tokens

import "errors"

var (
	// ErrTokenNotFound indicates no token exists for the presented code.
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenExpired indicates the token passed its expiry before redemption.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenAlreadyViewed indicates the token was consumed by an earlier redemption.
	ErrTokenAlreadyViewed = errors.New("token already viewed")
	// ErrTokenRevoked indicates the owner revoked the token.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrIdentifierExhausted indicates code generation could not find a free
	// code within the retry budget. Fatal to the request, not the process.
	ErrIdentifierExhausted = errors.New("identifier space exhausted")

	// ErrVideoNotFound indicates the target video does not exist or does not
	// belong to the caller.
	ErrVideoNotFound = errors.New("video not found")
	// ErrVideoInactive indicates the target video has been retired.
	ErrVideoInactive = errors.New("video inactive")

	// ErrDaysValidOutOfRange indicates the requested validity window is
	// outside the permitted bounds.
	ErrDaysValidOutOfRange = errors.New("days valid out of range")
	// ErrDurationOutOfRange indicates the clip length is outside the
	// permitted bounds.
	ErrDurationOutOfRange = errors.New("video duration out of range")
)
