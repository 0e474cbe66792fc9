package handler

import (
	"context"
	"net/http"

	"account-api/internal/middleware"
	"account-api/internal/model"
	"account-api/pkg/apierror"
)

type accountService interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.AccountResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (model.AccountResponse, error)
	Me(ctx context.Context, userID string) (model.Profile, error)
}

type AccountHandler struct {
	service accountService
}

func NewAccountHandler(service accountService) *AccountHandler {
	return &AccountHandler{service: service}
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, account)
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.service.Login(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, account)
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	profile, err := h.service.Me(r.Context(), claims.UserID())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile)
}
