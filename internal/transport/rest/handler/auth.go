package handler

import (
	"intervue/internal/apperror"
	"intervue/internal/model"
	"intervue/internal/service"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// AuthHandler issues development tokens. It is only routed when DEV_TOKENS is on.
type AuthHandler struct {
	authSvc *service.AuthService
	log     *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, log: log}
}

// IssueToken handles POST /v1/auth/token
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req model.TokenRequest
	if err := decode(r, &req); err != nil {
		writeAppError(w, h.log, r, err)
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeAppError(w, h.log, r, apperror.NewValidation("userId is required"))
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		writeAppError(w, h.log, r, apperror.NewValidation(err.Error()))
		return
	}

	token, err := h.authSvc.IssueToken(model.Identity{UserID: req.UserID, Role: role, Name: req.Name})
	if err != nil {
		writeAppError(w, h.log, r, apperror.NewInternal("issue token", err))
		return
	}

	h.log.Debug("development token issued", zap.String("userId", req.UserID), zap.String("role", string(role)))
	writeJSON(w, http.StatusCreated, model.TokenResponse{Token: token, UserID: req.UserID, Role: role})
}
