// Package session persists logged-in users and binds them to a signed cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/brizzai/space/internal/auth/constants"
	"github.com/brizzai/space/internal/auth/github"
	"github.com/brizzai/space/internal/config"
	"github.com/brizzai/space/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Namespace is the storage namespace holding session records
const Namespace = "sessions"

// UserSession is the record stored for a logged-in user
type UserSession struct {
	ID        string             `json:"id"`
	User      github.UserProfile `json:"user"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Stores resolves namespaced storage, usually a *storage.Registry
type Stores interface {
	Storage(ctx context.Context, namespace ...string) (*storage.Storage, error)
}

// Manager writes session records and the cookie that points at them
type Manager struct {
	stores Stores
	name   string
	secret []byte
	maxAge time.Duration
	log    *zap.Logger
	now    func() time.Time
}

// NewManager validates cfg and creates a manager storing records in stores
func NewManager(cfg config.SessionConfig, stores Stores, log *zap.Logger) (*Manager, error) {
	if cfg.Name == "" {
		return nil, errors.New("session cookie name is empty")
	}
	if cfg.Password == "" {
		return nil, errors.New("session password is empty")
	}
	maxAge, err := time.ParseDuration(cfg.MaxAge)
	if err != nil {
		return nil, fmt.Errorf("invalid session max age %q: %w", cfg.MaxAge, err)
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("session max age must be positive, got %s", maxAge)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Manager{
		stores: stores,
		name:   cfg.Name,
		secret: []byte(cfg.Password),
		maxAge: maxAge,
		log:    log.Named("session"),
		now:    time.Now,
	}, nil
}

// Set stores a new session for user and writes its cookie to w
func (m *Manager) Set(ctx context.Context, w http.ResponseWriter, r *http.Request, user github.UserProfile, createdAt time.Time) (*UserSession, error) {
	store, err := m.stores.Storage(ctx, Namespace)
	if err != nil {
		return nil, err
	}

	sess := &UserSession{ID: uuid.NewString(), User: user, CreatedAt: createdAt}
	if err := store.SetItem(ctx, sess.ID, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	token, err := m.sign(sess.ID)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, m.cookie(r, token, int(m.maxAge.Seconds())))
	m.log.Info("Session created", zap.String("session_id", sess.ID), zap.String("login", user.Login))
	return sess, nil
}

// Get returns the session referenced by the request cookie. A missing,
// invalid or expired cookie and an unknown session all report false.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*UserSession, bool, error) {
	id, ok := m.sessionID(r)
	if !ok {
		return nil, false, nil
	}

	store, err := m.stores.Storage(ctx, Namespace)
	if err != nil {
		return nil, false, err
	}

	var sess UserSession
	found, err := store.GetItem(ctx, id, &sess)
	if err != nil || !found {
		return nil, false, err
	}
	return &sess, true, nil
}

// Clear removes the session record, if any, and expires the cookie
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if id, ok := m.sessionID(r); ok {
		store, err := m.stores.Storage(ctx, Namespace)
		if err != nil {
			return err
		}
		if err := store.RemoveItem(ctx, id); err != nil {
			return fmt.Errorf("failed to remove session: %w", err)
		}
		m.log.Info("Session cleared", zap.String("session_id", id))
	}

	http.SetCookie(w, m.cookie(r, "", -1))
	return nil
}

func (m *Manager) sign(id string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return token, nil
}

func (m *Manager) sessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.name)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		m.log.Debug("Ignoring session cookie", zap.Error(err))
		return "", false
	}
	if claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

func (m *Manager) cookie(r *http.Request, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	}
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get(constants.ForwardedProtoHeader), "https")
}

func provideManager(cfg *config.Config, registry *storage.Registry, log *zap.Logger) (*Manager, error) {
	return NewManager(cfg.Session, registry, log)
}

// Module provides the session manager
var Module = fx.Module("session",
	fx.Provide(provideManager),
)
