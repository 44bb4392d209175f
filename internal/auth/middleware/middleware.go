package middleware

import (
	"context"
	"net/http"

	"github.com/brizzai/space/internal/auth/constants"
	"github.com/brizzai/space/internal/logger"
	"github.com/brizzai/space/internal/session"
	"github.com/brizzai/space/internal/utils"
	"go.uber.org/zap"
)

// SessionReader looks up the session referenced by a request
type SessionReader interface {
	Get(ctx context.Context, r *http.Request) (*session.UserSession, bool, error)
}

// RequireSession rejects requests without a valid session with 401 and
// stores the session in the request context otherwise
func RequireSession(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok, err := sessions.Get(r.Context(), r)
			if err != nil {
				logger.Error("Failed to load session", zap.String("path", r.URL.Path), zap.Error(err))
				utils.WriteError(w, constants.ErrorServer, "Failed to load session", http.StatusInternalServerError)
				return
			}
			if !ok {
				utils.WriteError(w, constants.ErrorUnauthorized, "Authentication required", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

// RequestLogger logs every request at debug level
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("user_agent", r.UserAgent()),
		)
		next.ServeHTTP(w, r)
	})
}
