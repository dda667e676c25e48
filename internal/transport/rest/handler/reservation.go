package handler

import (
	"intervue/internal/model"
	"intervue/internal/service"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ReservationHandler handles reservation endpoints
type ReservationHandler struct {
	reservationSvc *service.ReservationService
	log            *zap.Logger
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservationSvc *service.ReservationService, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{reservationSvc: reservationSvc, log: log}
}

// CreateReservationRequest is the request body for booking a slot
type CreateReservationRequest struct {
	Note string `json:"note"`
}

// RejectReservationRequest is the request body for rejecting a reservation
type RejectReservationRequest struct {
	Reason string `json:"reason"`
}

// Create handles POST /v1/slots/{slotId}/reservations
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var req CreateReservationRequest
	if err := decode(r, &req); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	reservation, err := h.reservationSvc.CreateReservation(r.Context(), actor, mux.Vars(r)["slotId"], req.Note)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, reservation)
}

// List handles GET /v1/reservations
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := model.ReservationFilter{
		SlotID: q.Get("slotId"),
		Status: model.ReservationStatus(q.Get("status")),
	}

	list, err := h.reservationSvc.ListReservations(r.Context(), actor, filter)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /v1/reservations/{id}
func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	reservation, err := h.reservationSvc.GetReservation(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

// Accept handles POST /v1/reservations/{id}/accept
func (h *ReservationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	result, err := h.reservationSvc.AcceptReservation(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Reject handles POST /v1/reservations/{id}/reject
func (h *ReservationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var req RejectReservationRequest
	if err := decode(r, &req); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	reservation, err := h.reservationSvc.RejectReservation(r.Context(), actor, mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

// Delete handles DELETE /v1/reservations/{id}
func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.reservationSvc.DeleteReservation(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "reservation deleted"})
}
