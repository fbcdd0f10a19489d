// Package common defines shared constants and sentinel errors used across
// the auth service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Login errors. Unknown user and wrong password are the same error.
	ErrBadCredentials = errors.New("bad credentials")

	// Token errors. All of them are reported to the caller as ErrorUnauthorized.
	ErrTokenMalformed            = errors.New("token malformed")
	ErrTokenSignatureInvalid     = errors.New("token signature invalid")
	ErrTokenExpired              = errors.New("token expired")
	ErrTokenRevoked              = errors.New("token revoked")
	ErrTokenUnsupportedAlgorithm = errors.New("token signing algorithm unsupported")

	// ErrStoreUnavailable wraps any failure of the revocation store. The gate
	// fails closed on it.
	ErrStoreUnavailable = errors.New("revocation store unavailable")

	// Configuration errors.
	ErrEmptySecret = errors.New("signing secret is empty")
)

// IsTokenError reports whether err is one of the token rejection kinds,
// including a store failure observed while checking revocation.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenSignatureInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrTokenUnsupportedAlgorithm) ||
		errors.Is(err, ErrStoreUnavailable)
}
