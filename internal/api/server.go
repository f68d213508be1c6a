// Package api exposes the read and clarification HTTP surface over the
// expense store.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mfierro/gastos/internal/config"
	"github.com/mfierro/gastos/internal/service"
)

// Server serves the read API and the operator clarification endpoint.
type Server struct {
	store  service.Storage
	logger *slog.Logger
	engine *gin.Engine
	cfg    config.APIConfig
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(store service.Storage, cfg config.APIConfig, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), requestLogger(logger), corsAllowAll())

	s := &Server{
		store:  store,
		logger: logger,
		engine: engine,
		cfg:    cfg,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)

	authed := s.engine.Group("/", apiKeyAuth(s.cfg.Key))
	authed.GET("/messages", s.handleListMessages)
	authed.GET("/messages/pending", s.handleListPending)
	authed.GET("/messages/:wid", s.handleGetMessage)
	authed.POST("/messages/:wid/clarify", s.handleClarify)
	authed.GET("/stats/summary", s.handleSummary)
}

// Handler returns the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("http server started", "addr", s.cfg.ListenAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
