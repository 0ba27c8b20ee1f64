package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/purelit/pure-publications/internal/config"
	"github.com/purelit/pure-publications/internal/httpapi"
	"github.com/purelit/pure-publications/internal/logger"
)

// Server is the HTTP service runtime: the lookup API plus the optional refresher.
type Server struct {
	cfg       *config.Config
	pipeline  *Pipeline
	http      *http.Server
	refresher *Refresher
	log       logger.Logger
}

// NewServer builds the server runtime from config.
func NewServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	p, err := NewPipeline(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	gin.SetMode(cfg.GinMode)
	router := httpapi.NewRouter(p.Service, httpapi.Options{
		Metrics: p.Metrics.Handler(),
		Logger:  log,
	})

	s := &Server{
		cfg:      cfg,
		pipeline: p,
		http: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
	if cfg.RefreshEnabled() {
		s.refresher = NewRefresher(p.Gateway, p.Service, cfg.RefreshWindow, cfg.RefreshBatchSize, log)
	}
	return s, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s == nil || s.http == nil {
		return fmt.Errorf("server is not initialized")
	}
	defer s.close()

	if s.refresher != nil {
		if err := s.refresher.Start(ctx, s.cfg.RefreshSchedule); err != nil {
			return err
		}
		defer s.refresher.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoObj("http server listening", "http_meta", map[string]any{"addr": s.cfg.HTTPAddr})
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.log.InfoObj("http server shutting down", "reason", ctx.Err().Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) close() {
	if err := s.pipeline.Close(); err != nil {
		s.log.ErrorObj("pipeline close failed", "error", err.Error())
	}
}
