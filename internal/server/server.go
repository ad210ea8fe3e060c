// Package server exposes the generation API over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"content-studio/internal/common/config"
	"content-studio/internal/common/logger"
	"content-studio/internal/common/notify"
	"content-studio/internal/common/observability"
	"content-studio/internal/orchestrator"
	"content-studio/internal/store"
)

// Dependencies carries everything the HTTP layer needs. History, Search
// and Notifier may be nil; the matching feature is then disabled.
type Dependencies struct {
	Orchestrator *orchestrator.Orchestrator
	History      *store.HistoryStore
	Search       *store.SearchIndexer
	Notifier     *notify.Notifier
	Obs          *observability.Observability
	Ready        func(ctx context.Context) error
}

type Server struct {
	cfg    config.ServerConfig
	deps   Dependencies
	logger logger.Logger
	http   *http.Server
}

func New(cfg config.ServerConfig, appEnv string, deps Dependencies, log logger.Logger) *Server {
	if appEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: log.With(map[string]interface{}{"component": "http_server"}),
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.handleHealth)
	router.GET("/readyz", s.handleReady)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/generations", s.handleGenerate)
		api.GET("/generations/:id", s.handleGetGeneration)
		api.GET("/search", s.handleSearch)
	}

	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.cfg.Address})
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request completed", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReady(c *gin.Context) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
