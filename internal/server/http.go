package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HTTPService runs an http.Server as a lifecycle Service with graceful
// shutdown: in-flight requests get shutdownTimeout to finish before the
// listener is torn down.
type HTTPService struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	logger          *zap.Logger

	mu   sync.Mutex
	addr string
}

// NewHTTPService wraps srv. A zero shutdownTimeout closes immediately.
//
// Precondition: srv and logger must be non-nil; srv.Addr must be set.
func NewHTTPService(srv *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) *HTTPService {
	return &HTTPService{
		srv:             srv,
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// Start listens on srv.Addr and serves until Stop is called. A normal
// shutdown is not an error.
func (s *HTTPService) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	s.logger.Info("http listener up", zap.String("addr", ln.Addr().String()))
	if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound listen address, empty before Start binds it.
// Useful when srv.Addr requested an ephemeral port.
func (s *HTTPService) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop drains in-flight requests within the shutdown timeout, then forces
// remaining connections closed.
func (s *HTTPService) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
		s.srv.Close()
	}
}
