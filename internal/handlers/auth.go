package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"KeeperMigrate/internal/service"
)

type AuthHandler struct {
	AuthService *service.AuthService
	Logger      *zap.SugaredLogger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{AuthService: authService, Logger: logger}
}

type loginRequest struct {
	APIKey string `json:"apiKey"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Login обменивает API-ключ на токены
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Login: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	tokens, err := h.AuthService.Login(r.Context(), req.APIKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAPIKey) {
			h.Logger.Infow("Login: invalid api key")
			http.Error(w, "invalid api key", http.StatusUnauthorized)
			return
		}
		h.Logger.Errorw("Login: service error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// Refresh выпускает новую пару токенов
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Refresh: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	tokens, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			h.Logger.Infow("Refresh: rejected", "error", err)
			http.Error(w, "invalid refresh token", http.StatusUnauthorized)
			return
		}
		h.Logger.Errorw("Refresh: service error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}
