package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// ClientAddr derives the client's network identity for rate limiting.
//
// With trustProxy set, the first hop of X-Forwarded-For wins. That hop is
// spoofable by any client that reaches the service directly; only enable it
// behind a proxy that overwrites the header.
func ClientAddr(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
				return first
			}
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// Fingerprint builds the per-client, per-path window key component. The
// address is hashed so raw client addresses never land in the counter store.
func Fingerprint(addr, path string) string {
	sum := sha256.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:])[:16] + ":" + path
}
