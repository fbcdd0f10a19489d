// Package revokedtokens is the server-side list of tokens invalidated before
// their natural expiry. Entries are keyed by the SHA-256 digest of the token
// as presented, so the raw token is never stored.
package revokedtokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dmitrijs2005/catalogauth/internal/common"
)

// Repository records and answers revocations. Every error it returns wraps
// common.ErrStoreUnavailable.
type Repository interface {
	// Revoke records token as revoked until expiresAt. Revoking the same
	// token again is not an error.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error

	// IsRevoked reports whether token was revoked. A Revoke that returned
	// nil is always visible here.
	IsRevoked(ctx context.Context, token string) (bool, error)

	// PurgeExpired deletes records whose expiry is before now and returns
	// how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Digest is the storage key of a token.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStoreUnavailable, err)
}
