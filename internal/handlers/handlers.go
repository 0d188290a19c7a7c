package handlers

import (
	"net/http"

	"quickqr/internal/config"
	"quickqr/internal/middleware"
	"quickqr/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	userService *service.UserService,
	lostFound *service.LostFound,
	designService *service.DesignService,
	reportService *service.ReportService,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))

	// Handlers
	userHandler := NewUserHandler(userService, logger, config)
	lostFoundHandler := NewLostFoundHandler(lostFound, logger, config)
	qrHandler := NewQRHandler(designService, reportService, logger)

	// Auth routes
	r.Post("/api/v1/auth/register", userHandler.Register)
	r.Post("/api/v1/auth/login", userHandler.Login)
	r.Post("/api/v1/auth/google", userHandler.GoogleLogin)

	// Lost-and-found routes: сканирование публично, генерация и список — нет
	r.Get("/api/v1/lost-and-found/{qr_id}", lostFoundHandler.Scan)
	r.Post("/api/v1/lost-and-found/update-details", lostFoundHandler.UpdateDetails)
	r.Post("/api/v1/lost-and-found/mark-found", lostFoundHandler.MarkFound)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/api/v1/lost-and-found/generate", lostFoundHandler.Generate)
		r.Get("/api/v1/lost-and-found/user/{user_id}/qrs", lostFoundHandler.ListUserQRs)
	})

	// Generic QR routes: управление сохранёнными дизайнами требует токена
	r.Post("/api/v1/qr/generate", qrHandler.Generate)
	r.Post("/api/v1/qr/contact", qrHandler.GenerateContact)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/api/v1/qr/designs", qrHandler.ListDesigns)
		r.Get("/api/v1/qr/designs/{design_id}", qrHandler.GetDesign)
		r.Get("/api/v1/qr/designs/{design_id}/usage", qrHandler.DesignUsage)
	})
	r.Get("/api/v1/qr/types", qrHandler.Types)
	r.Get("/api/v1/qr/error-correction-levels", qrHandler.ErrorCorrectionLevels)
	r.Post("/api/v1/qr/validate-url", qrHandler.ValidateURL)

	// Отчёт устройства о геолокации скана
	r.Post("/api/v1/scan/location", qrHandler.ReportScanLocation)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return &Handler{Router: r}
}
