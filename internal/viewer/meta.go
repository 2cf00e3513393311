package viewer

import (
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Meta describes the anonymous client that performed a view or response.
// The origin is a keyed hash of the client IP; the raw address is never kept.
type Meta struct {
	OriginHash string
	Client     string
}

const maxClientDescriptor = 256

// FromRequest extracts viewer metadata from an incoming HTTP request.
func FromRequest(r *http.Request, originSecret []byte) Meta {
	client := strings.TrimSpace(r.UserAgent())
	if len(client) > maxClientDescriptor {
		client = client[:maxClientDescriptor]
	}

	return Meta{
		OriginHash: HashOrigin(originSecret, ClientIP(r)),
		Client:     client,
	}
}

// HashOrigin produces a keyed blake2b-256 digest of the client address. An
// empty address hashes to the empty string so absent origins stay absent.
func HashOrigin(secret []byte, addr string) string {
	if addr == "" {
		return ""
	}

	// blake2b keys are capped at 64 bytes.
	if len(secret) > 64 {
		secret = secret[:64]
	}

	h, err := blake2b.New256(secret)
	if err != nil {
		sum := blake2b.Sum256([]byte(addr))
		return hex.EncodeToString(sum[:])
	}
	h.Write([]byte(addr))
	return hex.EncodeToString(h.Sum(nil))
}

// ClientIP resolves the originating address, honouring X-Forwarded-For when a
// proxy sits in front of the service.
func ClientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
