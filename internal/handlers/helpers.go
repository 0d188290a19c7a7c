package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"quickqr/internal/middleware"
	"quickqr/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serviceError отображает ошибки сервисного слоя в HTTP-статусы.
// Неопознанные ошибки становятся 500 без деталей хранилища.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrLocked):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInactiveUser):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrRender):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// identityOr возвращает идентичность сканирующего: токен имеет приоритет,
// без него берётся user_id из запроса (анонимные браузеры передают его явно).
func identityOr(r *http.Request, fallback string) string {
	if uid, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		return uid
	}
	return fallback
}

// clientIP — адрес клиента с учётом reverse proxy.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
