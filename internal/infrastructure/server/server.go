// Package server assembles the FileShelf HTTP server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/fileshelf/backend/internal/api/http"
	"github.com/fileshelf/backend/internal/api/middleware"
	"github.com/fileshelf/backend/internal/infrastructure/config"
	"github.com/fileshelf/backend/internal/infrastructure/monitoring"
	"github.com/fileshelf/backend/internal/logging"
	"github.com/fileshelf/backend/internal/vault"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router  *gin.Engine
	http    *http.Server
	vault   *vault.Vault
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// New creates a server instance from configuration.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing FileShelf backend",
		zap.String("port", cfg.Server.Port),
		zap.String("storage_root", cfg.Storage.Root),
		zap.Uint64("quota_bytes", cfg.Storage.QuotaBytes),
	)

	metrics := monitoring.NewMetrics()
	metrics.RecordQuota(cfg.Storage.QuotaBytes, 0)

	// Cannot create the storage root: unrecoverable startup failure.
	v, err := vault.New(cfg.Storage.Root, cfg.Storage.QuotaBytes, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vault: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.AllowOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := api.NewHandlers(v, metrics, logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Vault operations
	router.GET("/entries", handlers.ListEntries)
	router.GET("/download", handlers.DownloadEntry)
	router.GET("/search", handlers.SearchEntries)
	router.GET("/quota", handlers.Quota)
	router.POST("/files", handlers.CreateFile)
	router.POST("/folders", handlers.CreateFolder)
	router.POST("/delete", handlers.DeleteEntry)
	router.POST("/upload", handlers.Upload)

	// Metrics
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		vault:   v,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
			return err
		}
	}

	s.logger.Sync()
	return nil
}
