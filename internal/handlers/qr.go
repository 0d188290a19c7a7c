package handlers

import (
	"encoding/json"
	"net/http"

	"quickqr/internal/middleware"
	"quickqr/internal/qrgen"
	"quickqr/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// QRHandler обрабатывает обычную генерацию QR и отчёты о геолокации сканов.
type QRHandler struct {
	Designs *service.DesignService
	Reports *service.ReportService
	Logger  *zap.SugaredLogger
}

// NewQRHandler создаёт хендлер генерации QR
func NewQRHandler(designs *service.DesignService, reports *service.ReportService, logger *zap.SugaredLogger) *QRHandler {
	return &QRHandler{Designs: designs, Reports: reports, Logger: logger}
}

type qrGenerateRequest struct {
	Content         string `json:"content"`
	QRType          string `json:"qr_type"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Size            int    `json:"size"`
	ErrorCorrection string `json:"error_correction"`
	Border          int    `json:"border"`
	ForegroundColor string `json:"foreground_color"`
	BackgroundColor string `json:"background_color"`
	LogoURL         string `json:"logo_url"`
}

func (req *qrGenerateRequest) toInput() service.DesignInput {
	return service.DesignInput{
		Content:         req.Content,
		QRType:          req.QRType,
		Title:           req.Title,
		Description:     req.Description,
		Size:            req.Size,
		ErrorCorrection: req.ErrorCorrection,
		Border:          req.Border,
		ForegroundColor: req.ForegroundColor,
		BackgroundColor: req.BackgroundColor,
		LogoURL:         req.LogoURL,
	}
}

// Generate генерация QR произвольного типа
func (h *QRHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req qrGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Generate: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())

	res, err := h.Designs.Generate(r.Context(), userID, req.toInput())
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type contactRequest struct {
	Contact qrgen.ContactCard `json:"contact"`
	qrGenerateRequest
}

// GenerateContact генерация contact_qr из структурированного контакта
func (h *QRHandler) GenerateContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("GenerateContact: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())

	res, err := h.Designs.GenerateContact(r.Context(), userID, req.Contact, req.toInput())
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// ListDesigns список сохранённых дизайнов владельца из токена
func (h *QRHandler) ListDesigns(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	designs, err := h.Designs.List(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"designs": designs, "count": len(designs)})
}

// GetDesign один дизайн; чужой дизайн для не-админа — 404
func (h *QRHandler) GetDesign(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	d, err := h.Designs.Get(r.Context(), userID, chi.URLParam(r, "design_id"), middleware.IsAdminFromContext(r.Context()))
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// DesignUsage отчёты сканов дизайна; права доступа как у GetDesign
func (h *QRHandler) DesignUsage(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	usage, err := h.Designs.Usage(r.Context(), userID, chi.URLParam(r, "design_id"), middleware.IsAdminFromContext(r.Context()))
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"usage": usage, "count": len(usage)})
}

// Types поддерживаемые семантические типы QR
func (h *QRHandler) Types(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"types": []string{
			qrgen.TypeURL,
			qrgen.TypeText,
			qrgen.TypeContact,
			qrgen.TypeWiFi,
			qrgen.TypeEmail,
			qrgen.TypePhone,
			qrgen.TypeSMS,
			qrgen.TypeContent,
		},
	})
}

// ErrorCorrectionLevels уровни коррекции ошибок
func (h *QRHandler) ErrorCorrectionLevels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"levels": []map[string]string{
			{"level": "L", "recovery": "7%"},
			{"level": "M", "recovery": "15%"},
			{"level": "Q", "recovery": "25%"},
			{"level": "H", "recovery": "30%"},
		},
		"default": "M",
	})
}

type validateURLRequest struct {
	URL string `json:"url"`
}

// ValidateURL проверка формата URL для подсказок на фронтенде
func (h *QRHandler) ValidateURL(w http.ResponseWriter, r *http.Request) {
	var req validateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"url":   req.URL,
		"valid": qrgen.ValidateURL(req.URL),
	})
}

type scanLocationRequest struct {
	QRID     string   `json:"qr_id"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Accuracy *float64 `json:"accuracy"`
}

// ReportScanLocation принимает геолокацию скана, пишет usage-строку и
// best-effort уведомляет владельца. Ошибки нотификаций попадают в ответ.
func (h *QRHandler) ReportScanLocation(w http.ResponseWriter, r *http.Request) {
	var req scanLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("ReportScanLocation: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.QRID == "" || req.Lat == nil || req.Lng == nil {
		writeError(w, http.StatusBadRequest, "qr_id, lat and lng are required")
		return
	}

	res, err := h.Reports.Report(r.Context(), service.ScanReportInput{
		QRID:      req.QRID,
		Lat:       *req.Lat,
		Lng:       *req.Lng,
		Accuracy:  req.Accuracy,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	})
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "scan location recorded",
		"sms_sent":    res.SMSSent,
		"sms_error":   res.SMSError,
		"email_sent":  res.EmailSent,
		"email_error": res.EmailError,
	})
}
