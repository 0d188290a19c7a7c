package main

import (
	"net/http"

	"quickqr/internal/config"
	"quickqr/internal/handlers"
	"quickqr/internal/middleware"
	"quickqr/internal/qrgen"
	"quickqr/internal/repo"
	"quickqr/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	userRepo := repo.NewUserRepository(gormDB)
	lostFoundRepo := repo.NewLostFoundRepository(gormDB)
	designRepo := repo.NewDesignRepository(gormDB)

	renderer := qrgen.NewRenderer()
	verifier := service.NewTokenInfoVerifier(cfg.GoogleTokenInfoURL, cfg.UpstreamTimeout)
	notifier := service.NewUpstreamNotifier(cfg, sugar)

	userService := service.NewUserService(userRepo, verifier)
	lostFound := service.NewLostFound(lostFoundRepo, service.NewPermissionEngine(lostFoundRepo), renderer, sugar, cfg.FrontendBaseURL)
	designService := service.NewDesignService(designRepo, renderer, sugar)
	reportService := service.NewReportService(designRepo, lostFoundRepo, notifier, sugar, cfg.NotifyEmailTo)

	h := handlers.NewHandler(userService, lostFound, designService, reportService, sugar, cfg)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"FrontendBaseURL", cfg.FrontendBaseURL,
	)

	if err := http.ListenAndServe(addr, h.Router); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}
