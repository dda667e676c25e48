package handler

import (
	"intervue/internal/model"
	"intervue/internal/service"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// EvaluationHandler handles evaluation endpoints
type EvaluationHandler struct {
	evaluationSvc *service.EvaluationService
	log           *zap.Logger
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(evaluationSvc *service.EvaluationService, log *zap.Logger) *EvaluationHandler {
	return &EvaluationHandler{evaluationSvc: evaluationSvc, log: log}
}

// Create handles POST /v1/sessions/{id}/evaluation
func (h *EvaluationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var req model.EvaluationInput
	if err := decode(r, &req); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	evaluation, err := h.evaluationSvc.Create(r.Context(), actor, mux.Vars(r)["id"], req)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, evaluation)
}

// GetBySession handles GET /v1/sessions/{id}/evaluation
func (h *EvaluationHandler) GetBySession(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	evaluation, err := h.evaluationSvc.GetBySession(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, evaluation)
}

// Update handles PUT /v1/evaluations/{id}
func (h *EvaluationHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var req model.EvaluationInput
	if err := decode(r, &req); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	evaluation, err := h.evaluationSvc.Update(r.Context(), actor, mux.Vars(r)["id"], req)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, evaluation)
}
