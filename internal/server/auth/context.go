package auth

import (
	"context"

	"github.com/dmitrijs2005/catalogauth/internal/server/models"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p for the rest of the request.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the request's principal, if one was established.
func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(models.Principal)
	return p, ok
}
