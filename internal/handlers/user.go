package handlers

import (
	"encoding/json"
	"net/http"

	"quickqr/internal/config"
	"quickqr/internal/middleware"
	"quickqr/internal/model"
	"quickqr/internal/service"

	"go.uber.org/zap"
)

// UserHandler обрабатывает регистрацию и оба способа логина.
type UserHandler struct {
	UserService *service.UserService
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

// NewUserHandler создаёт хендлер пользователей
func NewUserHandler(userService *service.UserService, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{UserService: userService, Logger: logger, Config: cfg}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

type userResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role"`
	Provider  string `json:"provider"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		UserID:    u.UserID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Provider:  u.Provider,
	}
}

// Register регистрация по email и паролю
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Register: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.UserService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		serviceError(w, err)
		return
	}

	h.login(w, user, http.StatusCreated)
}

// Login локальный логин по паролю
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Login: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.UserService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		serviceError(w, err)
		return
	}

	h.login(w, user, http.StatusOK)
}

// GoogleLogin логин по Google id_token
func (h *UserHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		h.Logger.Warnw("GoogleLogin: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "id_token is required")
		return
	}

	user, err := h.UserService.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		serviceError(w, err)
		return
	}

	h.login(w, user, http.StatusOK)
}

// login ставит auth-cookie и отдаёт пользователя вместе с bearer-токеном.
func (h *UserHandler) login(w http.ResponseWriter, user *model.User, status int) {
	if err := middleware.SetLoginCookie(w, user.UserID, user.Role, h.Config.AuthSecret); err != nil {
		h.Logger.Errorw("failed to set login cookie", "user_id", user.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := middleware.BuildJWT(user.UserID, user.Role, h.Config.AuthSecret)
	if err != nil {
		h.Logger.Errorw("failed to build token", "user_id", user.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, status, map[string]any{
		"user":  toUserResponse(user),
		"token": token,
	})
}
