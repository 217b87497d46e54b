package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/prepmate/internal/model"
	"github.com/pavelanni/prepmate/internal/store"
)

type createUserRequest struct {
	Username    string         `json:"username" validate:"required,min=3,max=64"`
	DisplayName string         `json:"display_name" validate:"max=120"`
	Password    string         `json:"password" validate:"required,min=8"`
	Role        model.UserRole `json:"role" validate:"omitempty,oneof=learner admin"`
}

type setPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeFailure(w, r, err, "ErrInvalidBody")
		return
	}

	if _, err := h.store.GetUserByUsername(r.Context(), req.Username); err == nil {
		writeError(w, r, http.StatusConflict, "ErrUserExists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeFailure(w, r, err, "ErrInternal")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}
	if req.Role == "" {
		req.Role = model.UserRoleLearner
	}

	u := model.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	}
	id, err := h.store.CreateUser(r.Context(), u)
	if err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	created, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if err := h.store.ToggleUserActive(r.Context(), id); err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	u, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	slog.Info("toggled user", "id", id, "active", u.Active)
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req setPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeFailure(w, r, err, "ErrInvalidBody")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	if err := h.store.SetUserPassword(r.Context(), id, string(hash)); err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "ErrNotFound")
		return 0, false
	}
	return id, true
}
