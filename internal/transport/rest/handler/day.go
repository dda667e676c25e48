package handler

import (
	"intervue/internal/model"
	"intervue/internal/service"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DayHandler handles day endpoints
type DayHandler struct {
	daySvc *service.DayService
	log    *zap.Logger
}

// NewDayHandler creates a new day handler
func NewDayHandler(daySvc *service.DayService, log *zap.Logger) *DayHandler {
	return &DayHandler{daySvc: daySvc, log: log}
}

// Create handles POST /v1/days
func (h *DayHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var req service.CreateDayInput
	if err := decode(r, &req); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	day, err := h.daySvc.Create(r.Context(), actor, req)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, day)
}

// List handles GET /v1/days
func (h *DayHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	days, err := h.daySvc.List(r.Context(), activeOnly)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, days)
}

// Get handles GET /v1/days/{dayId}
func (h *DayHandler) Get(w http.ResponseWriter, r *http.Request) {
	day, err := h.daySvc.Get(r.Context(), mux.Vars(r)["dayId"])
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, day)
}

// Update handles PUT /v1/days/{dayId}
func (h *DayHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var patch model.DayPatch
	if err := decode(r, &patch); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	day, err := h.daySvc.Update(r.Context(), actor, mux.Vars(r)["dayId"], patch)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, day)
}

// Delete handles DELETE /v1/days/{dayId}
func (h *DayHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.daySvc.Delete(r.Context(), actor, mux.Vars(r)["dayId"]); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "day deleted"})
}
