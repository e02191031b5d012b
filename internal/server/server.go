package server

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripstream/internal/app/domain/users"
	"github.com/FACorreiaa/go-tripstream/internal/pkg/config"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	userStore *users.BadgerStore
	router    http.Handler
}

// New creates a new Server instance with all dependencies
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	store, err := s.setupStore()
	if err != nil {
		return nil, fmt.Errorf("failed to setup profile store: %w", err)
	}
	s.userStore = store

	return s, nil
}

// setupStore opens the embedded profile store.
func (s *Server) setupStore() (*users.BadgerStore, error) {
	s.logger.Info("Opening profile store", zap.String("data_dir", s.cfg.Store.DataDir))

	store, err := users.NewBadgerStore(s.cfg.Store.DataDir, s.logger)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Profile store ready")
	return store, nil
}

// HTTPServer creates and configures the HTTP server. The write timeout
// is generous because recommendation responses stream for the lifetime
// of the model generation.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.ServerPort,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}
}

// SetRouter sets the HTTP router/handler
func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

// GetUserStore returns the profile store
func (s *Server) GetUserStore() *users.BadgerStore {
	return s.userStore
}

// GetLogger returns the logger instance
func (s *Server) GetLogger() *zap.Logger {
	return s.logger
}

// GetConfig returns the configuration
func (s *Server) GetConfig() *config.Config {
	return s.cfg
}

// Close closes all server resources
func (s *Server) Close() {
	if s.userStore != nil {
		if err := s.userStore.Close(); err != nil {
			s.logger.Error("Failed to close profile store", zap.Error(err))
		}
	}
}
