// Package handlers implements the HTTP endpoints of the auth server.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/catalogauth/internal/logging"
	"github.com/dmitrijs2005/catalogauth/internal/server/services"
)

// AuthService is the part of services.AuthService the handlers need.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// Handlers aggregates handler dependencies.
type Handlers struct {
	auth   AuthService
	logger logging.Logger
}

func New(a AuthService, l logging.Logger) *Handlers {
	if l == nil {
		l = logging.Nop{}
	}
	return &Handlers{auth: a, logger: l}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}

// decodeStrict rejects unknown fields.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
