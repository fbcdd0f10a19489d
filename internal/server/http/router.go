// Package http assembles the chi router and the HTTP listener of the auth
// server.
package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/catalogauth/internal/logging"
	"github.com/dmitrijs2005/catalogauth/internal/server/access"
	"github.com/dmitrijs2005/catalogauth/internal/server/http/handlers"
	"github.com/dmitrijs2005/catalogauth/internal/server/http/httperrors"
	"github.com/dmitrijs2005/catalogauth/internal/server/http/middleware"
)

// AuthService is everything the router needs from the service layer.
type AuthService interface {
	handlers.AuthService
	middleware.Resolver
}

type Options struct {
	Logger logging.Logger
	// BasePath prefixes login, logout and me, e.g. "/api/auth".
	BasePath string
	// Policy defaults to access.DefaultPolicy(BasePath).
	Policy *access.Policy
	// AllowedOrigins enables CORS for these origins; "*" allows any.
	AllowedOrigins []string
	// Mount registers further routes behind the gate, such as the catalog
	// business handlers.
	Mount func(r chi.Router)
}

func NewRouter(svc AuthService, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	base := "/" + strings.Trim(opts.BasePath, "/")
	if opts.Policy == nil {
		opts.Policy = access.DefaultPolicy(base)
	}

	root := chi.NewRouter()
	root.Use(
		middleware.CORS(opts.AllowedOrigins),
		middleware.RequestID(),
		middleware.Logging(opts.Logger),
		middleware.Recover(opts.Logger),
		middleware.Gate(svc, opts.Policy, opts.Logger),
	)

	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.Write(w, r, http.StatusNotFound, "No handler found for "+r.Method+" "+r.URL.Path)
	})
	root.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperrors.Write(w, r, http.StatusMethodNotAllowed, "Request method '"+r.Method+"' is not supported")
	})

	h := handlers.New(svc, opts.Logger)

	root.Get(access.HealthPath, h.Health)
	if base == "/" {
		registerAuthRoutes(root, h)
	} else {
		root.Route(base, func(r chi.Router) { registerAuthRoutes(r, h) })
	}

	if opts.Mount != nil {
		opts.Mount(root)
	}
	return root
}

func registerAuthRoutes(r chi.Router, h *handlers.Handlers) {
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
}
