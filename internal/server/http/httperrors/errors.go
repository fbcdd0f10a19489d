// Package httperrors renders the JSON error body shared by every HTTP
// response that is not a success.
package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/catalogauth/internal/common"
)

// Body is the error payload.
type Body struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

// Fixed client-facing messages. Token failures of every kind share one.
const (
	MsgUnauthorized   = "Full authentication is required to access this resource"
	MsgForbidden      = "Access is denied"
	MsgBadCredentials = "Bad credentials"
	MsgInternal       = "Internal server error"
)

// Now is the clock used for timestamps.
var Now = time.Now

// Write sends status with a Body built from message.
func Write(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Body{
		Timestamp: Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
	})
}

// WriteError maps a service error onto a status and writes it. Details of
// token and store failures never reach the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := Classify(err)
	Write(w, r, status, msg)
}

// Classify returns the status code and client message for err.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrBadCredentials):
		return http.StatusUnauthorized, MsgBadCredentials
	case common.IsTokenError(err), errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, MsgUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, MsgForbidden
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}
