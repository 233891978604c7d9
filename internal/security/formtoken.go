// Package security implements the anti-forgery token protecting the confirm
// and submit steps. Tokens are HMAC-SHA256 over (scope, visitor, timestamp)
// with a server-side secret, so they can be verified without storage and are
// useless across forms or visitors.
package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// DefaultTokenTTL bounds how long an issued token stays valid.
const DefaultTokenTTL = 12 * time.Hour

// TokenIssuer mints and verifies per-form anti-forgery tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds a TokenIssuer with the given secret. A ttl <= 0
// falls back to DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints a token bound to scope and visitorID. The token is
// "<unix-seconds>.<hex-hmac>" and verifies until the TTL elapses.
func (t *TokenIssuer) Issue(scope, visitorID string) string {
	ts := strconv.FormatInt(t.now().Unix(), 10)
	return ts + "." + t.sign(scope, visitorID, ts)
}

// Verify reports whether token was issued by this issuer for the same scope
// and visitorID and has not expired. Comparison is constant time.
func (t *TokenIssuer) Verify(token, scope, visitorID string) bool {
	ts, mac, ok := strings.Cut(token, ".")
	if !ok || ts == "" || mac == "" {
		return false
	}

	issued, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	age := t.now().Sub(time.Unix(issued, 0))
	if age < 0 || age > t.ttl {
		return false
	}

	want := t.sign(scope, visitorID, ts)
	return hmac.Equal([]byte(mac), []byte(want))
}

// sign computes the hex HMAC over the token's bound fields. A length prefix
// per field prevents ambiguity between field boundaries.
func (t *TokenIssuer) sign(scope, visitorID, ts string) string {
	h := hmac.New(sha256.New, t.secret)
	for _, part := range []string{scope, visitorID, ts} {
		h.Write([]byte(strconv.Itoa(len(part))))
		h.Write([]byte("|"))
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
