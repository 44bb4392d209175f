// Package auth wires the GitHub login and session endpoints.
package auth

import (
	"net/http"

	"github.com/brizzai/space/internal/auth/constants"
	"github.com/brizzai/space/internal/auth/github"
	"github.com/brizzai/space/internal/auth/handlers"
	"github.com/brizzai/space/internal/auth/middleware"
	"github.com/brizzai/space/internal/config"
	"github.com/brizzai/space/internal/session"
	"go.uber.org/fx"
)

// Service represents the login service
type Service struct {
	sessions *session.Manager
	handler  *handlers.Handler
}

// NewService creates a new login service
func NewService(cfg *config.Config, client *github.Client, sessions *session.Manager) *Service {
	return &Service{
		sessions: sessions,
		handler:  handlers.NewHandler(client, sessions, cfg.Server.HomePath),
	}
}

// RegisterRoutes registers the login and session routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+constants.LoginPath, s.handler.HandleGitHubLogin)

	mux.Handle("GET "+constants.SessionPath, s.RequireSession()(http.HandlerFunc(s.handler.HandleSession)))
	mux.HandleFunc("POST "+constants.SessionPath, s.handler.HandleLogout)
	mux.HandleFunc("DELETE "+constants.SessionPath, s.handler.HandleLogout)
}

// RequireSession returns the session middleware
func (s *Service) RequireSession() func(http.Handler) http.Handler {
	return middleware.RequireSession(s.sessions)
}

// Module provides the login service
var Module = fx.Module("auth",
	github.Module,
	session.Module,
	fx.Provide(NewService),
)
