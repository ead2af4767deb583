package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/facturio/invoice-console/internal/application/service"
	"github.com/facturio/invoice-console/internal/config"
	"github.com/facturio/invoice-console/internal/infrastructure/backend"
	"github.com/facturio/invoice-console/internal/infrastructure/preview"
	"github.com/facturio/invoice-console/internal/infrastructure/stash"
	httpserver "github.com/facturio/invoice-console/internal/interfaces/http"
	"github.com/facturio/invoice-console/pkg/utils"
)

func main() {
	// Optional .env for local development
	gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting invoice console",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port),
		zap.String("backend", cfg.Backend.BaseURL))

	if dir := filepath.Dir(cfg.Stash.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create stash directory", zap.Error(err))
		}
	}

	extractionStash, err := stash.NewBoltStash(cfg.Stash.Path, cfg.Stash.TTL, logger)
	if err != nil {
		logger.Fatal("Failed to open stash store", zap.Error(err))
	}
	defer extractionStash.Close()

	backendClient := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, logger)

	previewRenderer := preview.NewRenderer(logger)

	serviceLogger := &zapLoggerAdapter{logger: logger}
	uploadService := service.NewUploadService(backendClient, extractionStash, previewRenderer, cfg.Upload.AllowedTypes, serviceLogger)
	reviewService := service.NewReviewService(backendClient, extractionStash, serviceLogger)
	dashboardService := service.NewDashboardService(backendClient, serviceLogger)
	exportService := service.NewExportService(backendClient, serviceLogger)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		MaxUploadSize: cfg.Server.MaxUploadSize,
	}, uploadService, reviewService, dashboardService, exportService, serviceLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := stash.NewSweeper(extractionStash, cfg.Stash.TTL/4, logger)
	if err := sweeper.Start(ctx); err != nil {
		logger.Fatal("Failed to start stash sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down server...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server exited")
}

// zapLoggerAdapter adapts zap.Logger to the service logger interfaces.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
