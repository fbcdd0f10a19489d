package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// CORSMaxAge is how long, in seconds, browsers may cache a preflight answer.
const CORSMaxAge = 3600

// CORS answers browser preflight requests and sets the CORS response headers.
// It must run before Gate so preflights are never asked for a token.
// An origin list of just "*" allows any origin and echoes it back, which
// keeps credentials usable. An empty list disables CORS handling.
func CORS(origins []string) Middleware {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodOptions, http.MethodHead,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           CORSMaxAge,
	}
	if slices.Contains(origins, "*") {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}

	return cors.New(opts).Handler
}
