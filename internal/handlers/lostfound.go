package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"quickqr/internal/config"
	"quickqr/internal/middleware"
	"quickqr/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LostFoundHandler обрабатывает жизненный цикл lost-and-found QR:
// генерация, скан, заполнение деталей, отметка о находке.
type LostFoundHandler struct {
	Service *service.LostFound
	Logger  *zap.SugaredLogger
	Config  *config.Config
}

// NewLostFoundHandler создаёт хендлер lost-and-found
func NewLostFoundHandler(svc *service.LostFound, logger *zap.SugaredLogger, cfg *config.Config) *LostFoundHandler {
	return &LostFoundHandler{Service: svc, Logger: logger, Config: cfg}
}

type generateRequest struct {
	QRName string `json:"qr_name"`
}

// Generate создаёт QR для владельца из токена
func (h *LostFoundHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Generate: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	res, err := h.Service.Generate(r.Context(), userID, req.QRName)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// Scan обрабатывает скан QR. Работает и для анонимов: идентичность
// берётся из токена, а без него — из query-параметра user_id (сканирующие
// браузеры не аутентифицированы). Геопозиция — из query-параметров.
func (h *LostFoundHandler) Scan(w http.ResponseWriter, r *http.Request) {
	qrID := chi.URLParam(r, "qr_id")

	sc := service.ScanContext{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		IsAdmin:   middleware.IsAdminFromContext(r.Context()),
	}
	sc.UserID = identityOr(r, r.URL.Query().Get("user_id"))
	if lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64); err == nil {
		sc.Lat = &lat
	}
	if lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64); err == nil {
		sc.Lng = &lng
	}

	res, err := h.Service.Scan(r.Context(), qrID, sc)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type updateDetailsRequest struct {
	QRID            string            `json:"qr_id"`
	FirstName       string            `json:"first_name"`
	LastName        string            `json:"last_name"`
	PhoneNumber     string            `json:"phone_number"`
	Email           string            `json:"email"`
	Address         string            `json:"address"`
	AddressLocation string            `json:"address_location"`
	Description     string            `json:"description"`
	ItemType        string            `json:"item_type"`
	Permissions     map[string]string `json:"permissions"`
	UserID          string            `json:"user_id"`
}

// UpdateDetails однократное заполнение деталей; повторное — 409
func (h *LostFoundHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req updateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("UpdateDetails: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	err := h.Service.UpdateDetails(r.Context(), service.UpdateDetailsInput{
		QRID:            req.QRID,
		UserID:          identityOr(r, req.UserID),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		PhoneNumber:     req.PhoneNumber,
		Email:           req.Email,
		Address:         req.Address,
		AddressLocation: req.AddressLocation,
		Description:     req.Description,
		ItemType:        req.ItemType,
		Permissions:     req.Permissions,
	})
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "details updated successfully"})
}

type markFoundRequest struct {
	QRID          string `json:"qr_id"`
	FoundLocation string `json:"found_location"`
	FoundDate     string `json:"found_date"` // RFC3339, пусто = сейчас
	UserID        string `json:"user_id"`
}

// MarkFound отмечает предмет найденным
func (h *LostFoundHandler) MarkFound(w http.ResponseWriter, r *http.Request) {
	var req markFoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("MarkFound: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	date := time.Now().UTC()
	if req.FoundDate != "" {
		if t, err := time.Parse(time.RFC3339, req.FoundDate); err == nil {
			date = t.UTC()
		} else {
			h.Logger.Warnw("MarkFound: invalid found_date", "value", req.FoundDate, "error", err)
		}
	}

	finderID := identityOr(r, req.UserID)

	if err := h.Service.MarkFound(r.Context(), req.QRID, finderID, req.FoundLocation, date); err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "item marked as found"})
}

// ListUserQRs список QR пользователя; чужой список доступен только админу
func (h *LostFoundHandler) ListUserQRs(w http.ResponseWriter, r *http.Request) {
	requested := chi.URLParam(r, "user_id")
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	if requested != userID && !middleware.IsAdminFromContext(r.Context()) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	qrs, err := h.Service.ListUserQRs(r.Context(), requested)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"qrs": qrs, "count": len(qrs)})
}
