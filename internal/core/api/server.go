package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ncku-csie/gradaudit/internal/core/config"
)

// Server manages HTTP server lifecycle.
type Server struct {
	server *http.Server
	config *config.ServerConfig
}

// NewServer creates the HTTP server around the routed handlers.
func NewServer(cfg *config.ServerConfig, h *Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers cannot be nil")
	}

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      NewRouter(h),
			ReadTimeout:  cfg.RequestTimeout,
			WriteTimeout: cfg.RequestTimeout,
		},
		config: cfg,
	}, nil
}

// Start serves HTTP requests until Shutdown is called.
func (s *Server) Start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server with a 30-second cap; in-flight
// requests finish, then the listener closes.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
