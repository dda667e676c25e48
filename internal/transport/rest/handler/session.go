package handler

import (
	"errors"
	"intervue/internal/apperror"
	"intervue/internal/service"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// maxRecordingMemory caps multipart uploads held in memory before spilling to disk
	maxRecordingMemory = 32 << 20
	// DefaultMaxUploadBytes bounds a whole recording request body
	DefaultMaxUploadBytes = 512 << 20
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
	maxUpload  int64
	log        *zap.Logger
}

// NewSessionHandler creates a new session handler. maxUpload <= 0 means DefaultMaxUploadBytes.
func NewSessionHandler(sessionSvc *service.SessionService, maxUpload int64, log *zap.Logger) *SessionHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &SessionHandler{sessionSvc: sessionSvc, maxUpload: maxUpload, log: log}
}

// CompleteSessionRequest is the request body for completing a session
type CompleteSessionRequest struct {
	Notes string `json:"notes"`
}

// CancelSessionRequest is the request body for cancelling a session
type CancelSessionRequest struct {
	Reason string `json:"reason"`
}

// List handles GET /v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	sessions, err := h.sessionSvc.List(r.Context(), actor)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	session, err := h.sessionSvc.Get(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Start handles POST /v1/sessions/{id}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	session, err := h.sessionSvc.Start(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Complete handles POST /v1/sessions/{id}/complete
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var req CompleteSessionRequest
	if err := decode(r, &req); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	session, err := h.sessionSvc.Complete(r.Context(), actor, mux.Vars(r)["id"], req.Notes)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Cancel handles POST /v1/sessions/{id}/cancel
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var req CancelSessionRequest
	if err := decode(r, &req); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	session, err := h.sessionSvc.Cancel(r.Context(), actor, mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// UploadRecording handles POST /v1/sessions/{id}/recording (multipart field "file")
func (h *SessionHandler) UploadRecording(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(maxRecordingMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "recording exceeds the upload limit")
			return
		}
		writeAppError(w, h.log, r, apperror.NewValidation("multipart form with a file field is required"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeAppError(w, h.log, r, apperror.NewValidation("file is required"))
		return
	}
	defer file.Close()

	session, err := h.sessionSvc.UploadRecording(r.Context(), actor, mux.Vars(r)["id"], file)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Delete handles DELETE /v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.sessionSvc.Delete(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "session deleted"})
}
