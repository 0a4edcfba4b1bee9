package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// SignedURLSigner issues and verifies expiring HMAC signatures for download paths.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns path with expires and signature query parameters appended.
func (s *SignedURLSigner) Sign(path string) (string, time.Time, error) {
	if path == "" {
		return "", time.Time{}, fmt.Errorf("path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	expires := strconv.FormatInt(expiresAt.Unix(), 10)
	q := url.Values{}
	q.Set("expires", expires)
	q.Set("signature", s.mac(path, expires))
	return path + "?" + q.Encode(), expiresAt, nil
}

// Verify checks a signature produced by Sign for path.
func (s *SignedURLSigner) Verify(path, expires, signature string) error {
	if signature == "" || expires == "" {
		return fmt.Errorf("missing signature")
	}
	if !hmac.Equal([]byte(s.mac(path, expires)), []byte(signature)) {
		return fmt.Errorf("invalid signature")
	}
	unix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expiry")
	}
	if s.now().After(time.Unix(unix, 0)) {
		return fmt.Errorf("link expired")
	}
	return nil
}

func (s *SignedURLSigner) mac(path, expires string) string {
	m := hmac.New(sha256.New, s.secret)
	_, _ = m.Write([]byte(path + "|" + expires))
	return hex.EncodeToString(m.Sum(nil))
}
