// Package common contains shared constants and sentinel errors used across
// the auth service.
package common

const (
	// AuthorizationHeaderName carries the bearer token on HTTP requests and,
	// lower-cased, in gRPC metadata.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token in the Authorization header value.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName is echoed back on every HTTP response.
	RequestIDHeaderName = "X-Request-Id"
)
