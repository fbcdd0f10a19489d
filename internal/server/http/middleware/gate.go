package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/catalogauth/internal/common"
	"github.com/dmitrijs2005/catalogauth/internal/logging"
	"github.com/dmitrijs2005/catalogauth/internal/server/access"
	"github.com/dmitrijs2005/catalogauth/internal/server/auth"
	"github.com/dmitrijs2005/catalogauth/internal/server/http/httperrors"
	"github.com/dmitrijs2005/catalogauth/internal/server/models"
)

// Resolver turns a bearer token into a principal.
type Resolver interface {
	Resolve(ctx context.Context, token string) (models.Principal, error)
}

// Gate authenticates the bearer token of every request and then applies the
// access policy. On a public route a bad token is ignored and the request
// continues anonymously; elsewhere it is answered with 401. A principal
// lacking the required role gets 403.
func Gate(res Resolver, policy *access.Policy, l logging.Logger) Middleware {
	if l == nil {
		l = logging.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logging.FromContext(ctx, l)
			req := policy.Match(r.Method, r.URL.Path)

			var (
				principal models.Principal
				ok        bool
			)
			if token := common.BearerToken(r.Header.Get(common.AuthorizationHeaderName)); token != "" {
				p, err := res.Resolve(ctx, token)
				switch {
				case err == nil:
					principal, ok = p, true
					ctx = auth.WithPrincipal(ctx, p)
				case req.Kind == access.Public:
					log.Debug(ctx, "ignoring rejected token on public route", "path", r.URL.Path, "reason", err)
				default:
					log.Debug(ctx, "token rejected", "path", r.URL.Path, "reason", err)
					httperrors.Write(w, r, http.StatusUnauthorized, httperrors.MsgUnauthorized)
					return
				}
			}

			if err := req.Check(principal, ok); err != nil {
				status := http.StatusUnauthorized
				msg := httperrors.MsgUnauthorized
				if errors.Is(err, common.ErrorForbidden) {
					status, msg = http.StatusForbidden, httperrors.MsgForbidden
				}
				log.Debug(ctx, "access denied", "path", r.URL.Path, "requirement", req.String(), "status", status)
				httperrors.Write(w, r, status, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
