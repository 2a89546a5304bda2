package ratelimit_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"gebeya-market/internal/ratelimit"
)

func Test_ClientAddr_uses_first_forwarded_hop_when_proxy_is_trusted(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/listings", nil)
	r.RemoteAddr = "10.0.0.5:41234"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.5")

	assert.Equal(t, "203.0.113.9", ratelimit.ClientAddr(r, true))
}

func Test_ClientAddr_ignores_forwarded_header_without_trust(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/listings", nil)
	r.RemoteAddr = "10.0.0.5:41234"
	r.Header.Set("X-Forwarded-For", "203.0.113.9")

	assert.Equal(t, "10.0.0.5", ratelimit.ClientAddr(r, false))
}

func Test_ClientAddr_falls_back_to_remote_addr(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/listings", nil)
	r.RemoteAddr = "192.168.1.20:9000"

	assert.Equal(t, "192.168.1.20", ratelimit.ClientAddr(r, true))
}

func Test_Fingerprint_hashes_the_address(t *testing.T) {
	fp := ratelimit.Fingerprint("203.0.113.9", "/v1/chats")

	assert.True(t, strings.HasSuffix(fp, ":/v1/chats"))
	assert.NotContains(t, fp, "203.0.113.9")

	// Deterministic per address, distinct across addresses.
	assert.Equal(t, fp, ratelimit.Fingerprint("203.0.113.9", "/v1/chats"))
	assert.NotEqual(t, fp, ratelimit.Fingerprint("203.0.113.10", "/v1/chats"))
}
