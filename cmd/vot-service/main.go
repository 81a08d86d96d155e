package main

import (
	"context"
	"fmt"
	"os"

	"vot-service/internal/auth"
	"vot-service/internal/config"
	"vot-service/internal/db"
	httphandler "vot-service/internal/http"
	"vot-service/internal/http/middleware"
	"vot-service/internal/logger"
	"vot-service/internal/service"
	"vot-service/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	blobs, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		appLogger.Fatal().Err(err).Str("mode", string(cfg.Storage.Mode)).Msg("failed to init photo storage")
	}

	wizardService := service.NewWizardService(database, blobs, appLogger)
	reportService := service.NewReportService(database, blobs, appLogger)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(wizardService, reportService, appLogger)
	authMiddleware := middleware.Auth(tokenParser)

	opts := httphandler.RouterOptions{Env: cfg.Environment}
	if cfg.Storage.Mode == config.StorageModeLocal {
		opts.MediaPrefix = cfg.Storage.PublicBaseURL
		opts.MediaDir = cfg.Storage.LocalDir
	}
	router := httphandler.NewRouter(handler, authMiddleware, appLogger, opts)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting vot service")

	runErr := router.Run(addr)
	if err := storage.Close(blobs); err != nil {
		appLogger.Error().Err(err).Msg("failed to close photo storage")
	}
	if runErr != nil {
		appLogger.Error().Err(runErr).Msg("failed to start server")
		os.Exit(1)
	}
}
