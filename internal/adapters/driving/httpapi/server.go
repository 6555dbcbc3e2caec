// Package httpapi serves rendered content previews and a JSON admin API
// over gin. Preview pages pass through the overlay injector, either per
// document body or, in whole-page mode, through a capture middleware
// wrapping the response writer.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sourcemark/internal/core/ports/driving"
	"github.com/custodia-labs/sourcemark/internal/logger"
)

// shutdownTimeout bounds graceful shutdown once the context is cancelled.
const shutdownTimeout = 5 * time.Second

// Services holds the driving ports the server exposes.
type Services struct {
	Assets       driving.AssetService
	Content      driving.ContentService
	Index        driving.IndexService
	Usage        driving.UsageService
	ContentBatch driving.ContentBatchService
	Overlay      driving.OverlayService
}

// Validate checks that every service is set.
func (s *Services) Validate() error {
	switch {
	case s.Assets == nil:
		return errors.New("asset service is required")
	case s.Content == nil:
		return errors.New("content service is required")
	case s.Index == nil:
		return errors.New("index service is required")
	case s.Usage == nil:
		return errors.New("usage service is required")
	case s.ContentBatch == nil:
		return errors.New("content batch service is required")
	case s.Overlay == nil:
		return errors.New("overlay service is required")
	}
	return nil
}

// Options configures the server.
type Options struct {
	// WholePage captures each preview response and rewrites it as a page.
	WholePage bool

	// AllowOrigins lists CORS origins. Empty allows any origin.
	AllowOrigins []string

	// Mode is the gin mode (debug, release, test). Empty keeps gin's default.
	Mode string
}

// Server is the HTTP adapter.
type Server struct {
	services Services
	opts     Options
	router   *gin.Engine
}

// New creates a server and registers its routes.
func New(services Services, opts Options) (*Server, error) {
	if err := services.Validate(); err != nil {
		return nil, fmt.Errorf("validating services: %w", err)
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	s := &Server{
		services: services,
		opts:     opts,
		router:   gin.New(),
	}
	s.router.Use(gin.Recovery(), requestLogger())
	s.router.Use(cors.New(corsConfig(opts.AllowOrigins)))
	s.routes()
	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("http: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) routes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"service": "sourcemark",
		})
	})

	api := s.router.Group("/api")
	{
		api.POST("/assets", s.handleSaveAsset)
		api.GET("/assets", s.handleListAssets)
		api.GET("/assets/:id", s.handleGetAsset)
		api.DELETE("/assets/:id", s.handleDeleteAsset)
		api.GET("/assets/:id/documents", s.handleAssetDocuments)
		api.GET("/assets/:id/usage", s.handleAssetUsage)

		api.POST("/content", s.handleSaveContent)
		api.GET("/content/:id", s.handleGetContent)
		api.DELETE("/content/:id", s.handleDeleteContent)
		api.POST("/content/:id/trash", s.handleTrashContent)
		api.GET("/content/:id/assets", s.handleContentAssets)

		api.GET("/usage/summary", s.handleUsageSummary)
		api.GET("/usage/batch", s.handleUsageBatch)
		api.POST("/usage/batch", s.handleRunUsageBatch)

		api.GET("/index/pages", s.handleContentPages)
		api.POST("/index/batch", s.handleIndexBatch)

		api.POST("/overlay", s.handleOverlay)
	}

	preview := s.router.Group("/preview")
	if s.opts.WholePage {
		preview.Use(wholePage(s.services.Overlay))
	}
	preview.GET("/:id", s.handlePreview)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// requestLogger logs each request at debug level through the package logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http: %s %s %d %s", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}
