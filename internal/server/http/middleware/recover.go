package middleware

import (
	"net/http"

	"github.com/dmitrijs2005/catalogauth/internal/logging"
	"github.com/dmitrijs2005/catalogauth/internal/server/http/httperrors"
)

// Recover turns a panic in a handler into a 500 response.
func Recover(l logging.Logger) Middleware {
	if l == nil {
		l = logging.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logging.FromContext(r.Context(), l).Error(r.Context(), "panic",
						"path", r.URL.Path,
						"reason", rec,
					)
					httperrors.Write(w, r, http.StatusInternalServerError, httperrors.MsgInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
