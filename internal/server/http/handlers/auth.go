package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/catalogauth/internal/common"
	"github.com/dmitrijs2005/catalogauth/internal/logging"
	"github.com/dmitrijs2005/catalogauth/internal/server/auth"
	"github.com/dmitrijs2005/catalogauth/internal/server/http/httperrors"
)

// LogoutMessage is the plain-text body of a successful logout.
const LogoutMessage = "Log out successful!"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type meResponse struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// Login handles POST {base}/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeStrict(w, r, &req); err != nil {
		httperrors.Write(w, r, http.StatusBadRequest, "Malformed JSON request")
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, common.ErrBadCredentials) && !errors.Is(err, common.ErrorValidation) {
			logging.FromContext(r.Context(), h.logger).Error(r.Context(), "login failed", "error", err)
		}
		httperrors.WriteError(w, r, err)
		return
	}

	roles := res.Principal.Roles()
	if roles == nil {
		roles = []string{}
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		Type:      "Bearer",
		UserID:    res.Principal.UserID(),
		Username:  res.Principal.Subject(),
		Roles:     roles,
		ExpiresAt: res.ExpiresAt.UTC(),
	})
}

// Logout handles POST {base}/logout. The route is public so that a client
// holding an expired token can still log out; the token is read here.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token := common.BearerToken(r.Header.Get(common.AuthorizationHeaderName))
	if token == "" {
		httperrors.Write(w, r, http.StatusUnauthorized, httperrors.MsgUnauthorized)
		return
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	logging.FromContext(r.Context(), h.logger).Info(r.Context(), "user logged out, token revoked")
	writeText(w, http.StatusOK, LogoutMessage)
}

// Me handles GET {base}/me and describes the authenticated caller.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httperrors.Write(w, r, http.StatusUnauthorized, httperrors.MsgUnauthorized)
		return
	}

	roles := p.Roles()
	if roles == nil {
		roles = []string{}
	}
	writeJSON(w, http.StatusOK, meResponse{UserID: p.UserID(), Username: p.Subject(), Roles: roles})
}

// Health answers liveness probes.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok")
}
