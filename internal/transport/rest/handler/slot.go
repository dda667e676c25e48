package handler

import (
	"intervue/internal/model"
	"intervue/internal/service"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SlotHandler handles slot endpoints
type SlotHandler struct {
	slotSvc *service.SlotService
	log     *zap.Logger
}

// NewSlotHandler creates a new slot handler
func NewSlotHandler(slotSvc *service.SlotService, log *zap.Logger) *SlotHandler {
	return &SlotHandler{slotSvc: slotSvc, log: log}
}

// Create handles POST /v1/days/{dayId}/slots
func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var req service.CreateSlotInput
	if err := decode(r, &req); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}
	req.DayID = mux.Vars(r)["dayId"]

	slot, err := h.slotSvc.CreateSlot(r.Context(), actor, req)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, slot)
}

// ListByDay handles GET /v1/days/{dayId}/slots
func (h *SlotHandler) ListByDay(w http.ResponseWriter, r *http.Request) {
	slots, err := h.slotSvc.ListDaySlots(r.Context(), mux.Vars(r)["dayId"])
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, slots)
}

// Get handles GET /v1/slots/{slotId}
func (h *SlotHandler) Get(w http.ResponseWriter, r *http.Request) {
	slot, err := h.slotSvc.GetSlot(r.Context(), mux.Vars(r)["slotId"])
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, slot)
}

// Update handles PUT /v1/slots/{slotId}
func (h *SlotHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var patch model.SlotPatch
	if err := decode(r, &patch); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	slot, err := h.slotSvc.UpdateSlot(r.Context(), actor, mux.Vars(r)["slotId"], patch)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, slot)
}

// Delete handles DELETE /v1/slots/{slotId}
func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.slotSvc.DeleteSlot(r.Context(), actor, mux.Vars(r)["slotId"]); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "slot deleted"})
}
