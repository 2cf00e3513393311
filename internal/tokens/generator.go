package tokens

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
)

// Kind selects the token namespace a generated code belongs to.
type Kind string

const (
	// KindProfile codes are permanent and many-times-readable.
	KindProfile Kind = "PRO"
	// KindVideo codes are disposable and single-redemption.
	KindVideo Kind = "VID"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// 62^12 is a little over 2^71, comfortably past the 60-bit floor that
	// makes brute-force guessing infeasible within a token's lifetime.
	codeSuffixLength = 12

	// MaxGenerateAttempts bounds collision retries before the caller gets
	// ErrIdentifierExhausted. Collisions are exceptionally rare, not an
	// expected path.
	MaxGenerateAttempts = 5
)

var codePattern = regexp.MustCompile(`^(PRO|VID)-[A-Za-z0-9]{6,24}$`)

// Generate produces an unguessable token code for the given kind. Uniqueness
// is not checked here; it is enforced by the store's unique index, and
// callers retry generation on conflict.
func Generate(kind Kind) (string, error) {
	buf := make([]byte, codeSuffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	suffix := make([]byte, codeSuffixLength)
	for i, b := range buf {
		// 256 is not a multiple of 62; resample the biased tail.
		for b >= 248 {
			var one [1]byte
			if _, err := rand.Read(one[:]); err != nil {
				return "", fmt.Errorf("read random bytes: %w", err)
			}
			b = one[0]
		}
		suffix[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}

	return fmt.Sprintf("%s-%s", kind, suffix), nil
}

// ValidCode reports whether the code matches the routable token format.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// KindOf parses the code prefix so callers can dispatch profile reads and
// video redemptions from a single viewer-facing route.
func KindOf(code string) (Kind, bool) {
	if !ValidCode(code) {
		return "", false
	}
	switch {
	case strings.HasPrefix(code, string(KindProfile)+"-"):
		return KindProfile, true
	case strings.HasPrefix(code, string(KindVideo)+"-"):
		return KindVideo, true
	}
	return "", false
}
