// Package auth issues and verifies the signed bearer tokens used by the
// catalog, and carries the authenticated principal through a request context.
package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/catalogauth/internal/common"
	"github.com/dmitrijs2005/catalogauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// MinKeyLength is the HS256 key size in bytes.
const MinKeyLength = 32

// DefaultTTL is used when a codec is built with a non-positive TTL.
const DefaultTTL = time.Hour

// expiryPrecision is the resolution of iat and exp in issued tokens.
const expiryPrecision = time.Millisecond

var keyInfo = []byte("catalogauth/hs256-signing-key")

func init() {
	jwt.TimePrecision = expiryPrecision
}

// Claims is the token payload: identity and validity window only. Roles are
// never put into the token.
type Claims struct {
	jwt.RegisteredClaims
}

// VerifiedToken is what a successful Verify yields.
type VerifiedToken struct {
	Subject   string
	ID        string
	ExpiresAt time.Time
}

// DeriveKey turns the configured secret into an HMAC key. Secrets of at
// least MinKeyLength bytes are used as they are, whatever their length.
// Shorter ones are stretched to MinKeyLength bytes with HKDF-SHA256.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, common.ErrEmptySecret
	}
	if len(secret) >= MinKeyLength {
		return []byte(secret), nil
	}

	key := make([]byte, MinKeyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, keyInfo), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// Codec signs and verifies HS256 tokens.
type Codec struct {
	key          []byte
	ttl          time.Duration
	now          func() time.Time
	parser       *jwt.Parser
	expiryParser *jwt.Parser
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a codec from the configured secret and token lifetime.
func NewCodec(secret string, ttl time.Duration, opts ...Option) (*Codec, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Codec{key: key, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}

	clock := func() time.Time { return c.now() }
	// exp travels as a float of seconds; decoding it may lose up to one
	// expiryPrecision step.
	c.parser = jwt.NewParser(jwt.WithTimeFunc(clock), jwt.WithExpirationRequired(), jwt.WithLeeway(expiryPrecision))
	c.expiryParser = jwt.NewParser(jwt.WithoutClaimsValidation())
	return c, nil
}

// Issue signs a token for p valid from now until now+TTL. The returned
// expiry is the one encoded in the token: now+TTL rounded up to the next
// millisecond, never earlier.
func (c *Codec) Issue(p models.Principal) (string, time.Time, error) {
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ceilTime(now.Add(c.ttl), expiryPrecision)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// Verify checks algorithm, signature and expiry. It does not consult the
// revocation store.
func (c *Codec) Verify(tokenString string) (*VerifiedToken, error) {
	claims := &Claims{}
	if _, err := c.parser.ParseWithClaims(tokenString, claims, c.keyFunc); err != nil {
		return nil, classify(err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrTokenMalformed)
	}

	return &VerifiedToken{
		Subject:   claims.Subject,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ExpiryOf returns the expiry of a token carrying a valid signature, whether
// or not that expiry has already passed. Logout relies on this.
func (c *Codec) ExpiryOf(tokenString string) (time.Time, error) {
	claims := &Claims{}
	if _, err := c.expiryParser.ParseWithClaims(tokenString, claims, c.keyFunc); err != nil {
		return time.Time{}, classify(err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing expiry", common.ErrTokenMalformed)
	}
	return claims.ExpiresAt.Time, nil
}

func ceilTime(t time.Time, d time.Duration) time.Time {
	r := t.Truncate(d)
	if r.Before(t) {
		r = r.Add(d)
	}
	return r
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if t.Method == nil || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, common.ErrTokenUnsupportedAlgorithm
	}
	return c.key, nil
}

// classify maps jwt parser errors onto the service's token error kinds.
func classify(err error) error {
	var kind error
	switch {
	case errors.Is(err, common.ErrTokenUnsupportedAlgorithm), errors.Is(err, jwt.ErrTokenUnverifiable):
		kind = common.ErrTokenUnsupportedAlgorithm
	case errors.Is(err, jwt.ErrTokenMalformed):
		kind = common.ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		kind = common.ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		kind = common.ErrTokenExpired
	default:
		kind = common.ErrTokenMalformed
	}
	return fmt.Errorf("%w: %v", kind, err)
}
