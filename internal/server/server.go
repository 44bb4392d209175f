// Package server hosts the HTTP endpoints of space.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/brizzai/space/internal/config"
	"github.com/brizzai/space/internal/logger"
	"github.com/brizzai/space/internal/server/handler"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// Server serves the login, session, metrics and health endpoints
type Server struct {
	config  *config.Config
	handler *handler.Handler
}

// NewServer creates a server for cfg.Server
func NewServer(cfg *config.Config, h *handler.Handler) *Server {
	return &Server{config: cfg, handler: h}
}

// Addr is the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, fmt.Sprint(s.config.Server.Port))
}

// Start listens on the configured address and serves until ctx is done
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.handler.CreateHTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.config.Server.Timeout != "" {
		timeout, err := time.ParseDuration(s.config.Server.Timeout)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("invalid server timeout %q: %w", s.config.Server.Timeout, err)
		}
		server.WriteTimeout = timeout
	}

	// Channel for server errors
	errChan := make(chan error, 1)

	go func() {
		logger.Info("Starting server",
			zap.String("address", ln.Addr().String()),
			zap.String("version", s.config.Server.Version),
		)

		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down server", zap.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

// run ties the server to the fx lifecycle and stops the app if serving fails
func run(lc fx.Lifecycle, shutdowner fx.Shutdowner, srv *Server) {
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", srv.Addr(), err)
			}

			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				defer close(done)
				if err := srv.Serve(runCtx, ln); err != nil {
					logger.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

// Module provides the HTTP server and starts it with the application
var Module = fx.Module("server",
	fx.Provide(
		handler.NewHandler,
		NewServer,
	),
	fx.Invoke(run),
)
