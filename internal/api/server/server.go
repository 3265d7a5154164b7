package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/remiblancher/sigalg/internal/api/router"
	"github.com/remiblancher/sigalg/internal/audit"
	"github.com/remiblancher/sigalg/pkg/policy"
)

// Server is the sigalg HTTP API server.
type Server struct {
	cfg     *Config
	version string
	policy  *policy.Policy
	logger  *zap.Logger
	srv     *http.Server
}

// New creates a Server. The policy is resolved here so that a bad policy
// reference fails before anything listens.
func New(cfg *Config, version string, logger *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pol, err := policy.Resolve(cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:     cfg,
		version: version,
		policy:  pol,
		logger:  logger,
	}
	s.srv = &http.Server{
		Handler: router.New(&router.Config{
			Version:      version,
			Policy:       pol,
			Logger:       logger.Named("http"),
			MaxBodyBytes: cfg.MaxBodyBytes,
		}),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     zap.NewStdLog(logger.Named("http")),
	}
	return s, nil
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Policy returns the policy in force.
func (s *Server) Policy() *policy.Policy {
	return s.policy
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully within
// ShutdownTimeout. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	addr := ln.Addr().String()

	if err := audit.LogServer(audit.EventServerStarted, addr, s.policy.Name); err != nil {
		ln.Close()
		return err
	}
	s.logger.Info("server started",
		zap.String("address", addr),
		zap.String("version", s.version),
		zap.String("policy", s.policy.Name),
		zap.Bool("tls", s.cfg.TLSEnabled()),
		zap.Int("max_connections", s.cfg.MaxConnections),
	)

	errChan := make(chan error, 1)
	go func() {
		if s.cfg.TLSEnabled() {
			errChan <- s.srv.ServeTLS(ln, s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			errChan <- s.srv.Serve(ln)
		}
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down", zap.Error(context.Cause(ctx)))
	}

	return s.shutdown(addr)
}

func (s *Server) shutdown(addr string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	if err := audit.LogServer(audit.EventServerStopped, addr, s.policy.Name); err != nil {
		return err
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
