package handler

import (
	"encoding/json"
	"errors"
	"intervue/internal/apperror"
	"intervue/internal/model"
	"intervue/internal/transport/rest/middleware"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// envelope is the body of every JSON response
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}

// writeAppError maps a service error onto its HTTP status. Internal
// failures are logged and their detail withheld.
func writeAppError(w http.ResponseWriter, log *zap.Logger, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.Internal {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, kind.HTTPStatus(), apperror.Message(err))
}

func decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	// an empty body leaves v at its zero value
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperror.NewValidation("invalid request body")
	}
	return nil
}

// caller returns the authenticated identity or writes 401
func caller(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}
