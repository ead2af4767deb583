// Package http serves the invoice console screens. It is a thin adapter
// layer: handlers translate requests into application service calls and
// render the embedded HTML templates.
package http

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/facturio/invoice-console/internal/application/service"
	"github.com/facturio/invoice-console/internal/domain/entity"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxUploadSize int64
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:          "0.0.0.0",
		Port:          4200,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		MaxUploadSize: 10 << 20,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config           ServerConfig
	httpServer       *http.Server
	router           *gin.Engine
	uploadService    service.UploadService
	reviewService    service.ReviewService
	dashboardService service.DashboardService
	exportService    service.ExportService
	logger           Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	uploadService service.UploadService,
	reviewService service.ReviewService,
	dashboardService service.DashboardService,
	exportService service.ExportService,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = config.MaxUploadSize
	router.SetHTMLTemplate(mustParseTemplates())

	server := &Server{
		config:           config,
		router:           router,
		uploadService:    uploadService,
		reviewService:    reviewService,
		dashboardService: dashboardService,
		exportService:    exportService,
		logger:           logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// mustParseTemplates parses the embedded template set.
func mustParseTemplates() *template.Template {
	funcs := template.FuncMap{
		"severity": entity.SeverityForConfidence,
		"percent": func(score float64) string {
			return fmt.Sprintf("%.0f%%", score*100)
		},
		"amount": func(amount *float64) string {
			if amount == nil {
				return "—"
			}
			return fmt.Sprintf("%.2f", *amount)
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html"))
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.uploadService, s.reviewService, s.dashboardService, s.exportService, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	s.router.GET("/", handlers.Index)
	s.router.GET("/dashboard", handlers.Dashboard)
	s.router.POST("/train-model", handlers.TrainModel)

	invoices := s.router.Group("/invoices")
	{
		invoices.GET("", handlers.ListInvoices)
		invoices.GET("/export", handlers.ExportRegister)
		invoices.GET("/upload", handlers.UploadForm)
		invoices.POST("/upload", handlers.Upload)
		invoices.GET("/review", handlers.ReviewDraft)
		invoices.POST("/review", handlers.SaveDraft)
		invoices.POST("/review/discard", handlers.DiscardDraft)
		invoices.GET("/review/preview", handlers.DraftPreview)
		invoices.GET("/:id", handlers.InvoiceDetail)
		invoices.GET("/:id/edit", handlers.EditForm)
		invoices.POST("/:id/edit", handlers.SubmitCorrection)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
