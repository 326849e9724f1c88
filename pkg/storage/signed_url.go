package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTokenInvalid covers malformed tokens and bad signatures.
	ErrTokenInvalid = errors.New("download token invalid")
	// ErrTokenExpired is returned once a token outlives its TTL.
	ErrTokenExpired = errors.New("download token expired")
)

// DownloadToken is the payload carried by a signed download link.
type DownloadToken struct {
	JobID     string
	Object    string
	ExpiresAt time.Time
}

// URLSigner issues HMAC-SHA256 signed download tokens.
type URLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewURLSigner returns a signer. A non-positive ttl defaults to one day.
func NewURLSigner(secret string, ttl time.Duration) *URLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &URLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign encodes jobID and object into a URL-safe token.
func (s *URLSigner) Sign(jobID, object string) (string, DownloadToken, error) {
	if jobID == "" || object == "" {
		return "", DownloadToken{}, fmt.Errorf("job id and object are required")
	}
	if len(s.secret) == 0 {
		return "", DownloadToken{}, fmt.Errorf("signing secret missing")
	}
	tok := DownloadToken{JobID: jobID, Object: object, ExpiresAt: s.now().Add(s.ttl).Truncate(time.Second)}
	body := strings.Join([]string{
		jobID,
		strconv.FormatInt(tok.ExpiresAt.Unix(), 10),
		base64.RawURLEncoding.EncodeToString([]byte(object)),
	}, ".")
	return body + "." + s.mac(body), tok, nil
}

// Verify checks the signature and expiry of raw.
func (s *URLSigner) Verify(raw string) (DownloadToken, error) {
	idx := strings.LastIndex(raw, ".")
	if idx <= 0 {
		return DownloadToken{}, ErrTokenInvalid
	}
	body, sig := raw[:idx], raw[idx+1:]
	if !hmac.Equal([]byte(sig), []byte(s.mac(body))) {
		return DownloadToken{}, ErrTokenInvalid
	}

	parts := strings.Split(body, ".")
	if len(parts) != 3 {
		return DownloadToken{}, ErrTokenInvalid
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return DownloadToken{}, ErrTokenInvalid
	}
	object, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return DownloadToken{}, ErrTokenInvalid
	}

	tok := DownloadToken{JobID: parts[0], Object: string(object), ExpiresAt: time.Unix(exp, 0)}
	if s.now().After(tok.ExpiresAt) {
		return tok, ErrTokenExpired
	}
	return tok, nil
}

func (s *URLSigner) mac(body string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
