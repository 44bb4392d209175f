package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/brizzai/space/internal/auth/constants"
	"github.com/brizzai/space/internal/auth/github"
	"github.com/brizzai/space/internal/config"
	"github.com/brizzai/space/internal/logger"
	"github.com/brizzai/space/internal/session"
	"github.com/brizzai/space/internal/utils"
	"go.uber.org/zap"
)

// LoginFlow runs the GitHub authorization-code exchange
type LoginFlow interface {
	Login(ctx context.Context, req github.Request, redirect github.Redirector, override *config.OAuthConfig) (*github.Result, error)
}

// Sessions writes and reads user sessions
type Sessions interface {
	Set(ctx context.Context, w http.ResponseWriter, r *http.Request, user github.UserProfile, createdAt time.Time) (*session.UserSession, error)
	Get(ctx context.Context, r *http.Request) (*session.UserSession, bool, error)
	Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Handler handles the login and session endpoints
type Handler struct {
	login    LoginFlow
	sessions Sessions
	homePath string
	now      func() time.Time
}

// NewHandler creates a new Handler instance. Every login outcome other than
// the redirect to GitHub ends on homePath.
func NewHandler(login LoginFlow, sessions Sessions, homePath string) *Handler {
	if homePath == "" {
		homePath = "/"
	}
	return &Handler{
		login:    login,
		sessions: sessions,
		homePath: homePath,
		now:      time.Now,
	}
}

// HandleGitHubLogin handles /api/auth/github, both the initial request and
// the callback carrying the code
func (h *Handler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	res, err := h.login.Login(r.Context(), NewRequest(r), NewRedirector(w, r), nil)
	if err != nil {
		logger.Error("GitHub OAuth error", zap.Error(err))
		h.goHome(w, r)
		return
	}
	if res.State == github.StateRedirectIssued {
		return
	}

	sess, err := h.sessions.Set(r.Context(), w, r, *res.Profile, h.now())
	if err != nil {
		logger.Error("Failed to create session", zap.String("login", res.Profile.Login), zap.Error(err))
		h.goHome(w, r)
		return
	}

	logger.Info("User logged in", zap.String("login", res.Profile.Login), zap.String("session_id", sess.ID))
	h.goHome(w, r)
}

// HandleSession writes the session found in the request context, see
// middleware.RequireSession
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		utils.WriteError(w, constants.ErrorUnauthorized, "Authentication required", http.StatusUnauthorized)
		return
	}
	utils.WriteJSON(w, http.StatusOK, sess)
}

// HandleLogout removes the current session, if any
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(r.Context(), w, r); err != nil {
		logger.Error("Failed to clear session", zap.Error(err))
		utils.WriteError(w, constants.ErrorServer, "Failed to clear session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) goHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.homePath, http.StatusFound)
}
