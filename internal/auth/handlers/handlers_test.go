package handlers

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/space/internal/auth/github"
	"github.com/brizzai/space/internal/config"
	"github.com/brizzai/space/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLogin struct {
	result *github.Result
	err    error
}

func (s stubLogin) Login(_ context.Context, _ github.Request, redirect github.Redirector, _ *config.OAuthConfig) (*github.Result, error) {
	if s.result != nil && s.result.State == github.StateRedirectIssued {
		redirect.Redirect(s.result.RedirectURL)
	}
	return s.result, s.err
}

type stubSessions struct {
	setErr   error
	clearErr error
	set      []github.UserProfile
}

func (s *stubSessions) Set(_ context.Context, w http.ResponseWriter, _ *http.Request, user github.UserProfile, createdAt time.Time) (*session.UserSession, error) {
	if s.setErr != nil {
		return nil, s.setErr
	}
	s.set = append(s.set, user)
	http.SetCookie(w, &http.Cookie{Name: "space-session", Value: "v"})
	return &session.UserSession{ID: "id", User: user, CreatedAt: createdAt}, nil
}

func (s *stubSessions) Get(context.Context, *http.Request) (*session.UserSession, bool, error) {
	return nil, false, nil
}

func (s *stubSessions) Clear(context.Context, http.ResponseWriter, *http.Request) error {
	return s.clearErr
}

func TestHandleGitHubLogin(t *testing.T) {
	profile := &github.UserProfile{ID: 1, Login: "bob"}

	tests := []struct {
		name         string
		login        stubLogin
		sessions     *stubSessions
		wantLocation string
		wantCookie   bool
		wantSessions int
	}{
		{
			name:         "redirect to provider",
			login:        stubLogin{result: &github.Result{State: github.StateRedirectIssued, RedirectURL: "https://github.com/login/oauth/authorize?client_id=abc"}},
			sessions:     &stubSessions{},
			wantLocation: "https://github.com/login/oauth/authorize?client_id=abc",
		},
		{
			name:         "authenticated",
			login:        stubLogin{result: &github.Result{State: github.StateAuthenticated, Profile: profile}},
			sessions:     &stubSessions{},
			wantLocation: "/home",
			wantCookie:   true,
			wantSessions: 1,
		},
		{
			name:         "login error",
			login:        stubLogin{result: &github.Result{State: github.StateFailed}, err: &github.ExchangeError{Code: "invalid_grant"}},
			sessions:     &stubSessions{},
			wantLocation: "/home",
		},
		{
			name:         "session store error",
			login:        stubLogin{result: &github.Result{State: github.StateAuthenticated, Profile: profile}},
			sessions:     &stubSessions{setErr: errors.New("disk full")},
			wantLocation: "/home",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.login, tt.sessions, "/home")
			rec := httptest.NewRecorder()
			h.HandleGitHubLogin(rec, httptest.NewRequest(http.MethodGet, "/api/auth/github", nil))

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			assert.Equal(t, tt.wantCookie, len(rec.Result().Cookies()) > 0)
			assert.Len(t, tt.sessions.set, tt.wantSessions)
		})
	}
}

func TestHandleSession(t *testing.T) {
	h := NewHandler(stubLogin{}, &stubSessions{}, "")

	rec := httptest.NewRecorder()
	h.HandleSession(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sess := &session.UserSession{ID: "abc", User: github.UserProfile{ID: 1, Login: "bob"}}
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req = req.WithContext(session.WithSession(req.Context(), sess))

	rec = httptest.NewRecorder()
	h.HandleSession(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"login":"bob"`)
}

func TestHandleLogout(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(stubLogin{}, &stubSessions{}, "/").HandleLogout(rec, httptest.NewRequest(http.MethodPost, "/api/session", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	NewHandler(stubLogin{}, &stubSessions{clearErr: errors.New("boom")}, "/").HandleLogout(rec, httptest.NewRequest(http.MethodPost, "/api/session", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequest(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		prepare func(r *http.Request)
		wantURL string
	}{
		{name: "plain", target: "http://localhost:3000/api/auth/github", wantURL: "http://localhost:3000/api/auth/github"},
		{name: "query kept", target: "http://app/api/auth/github?code=x&y=1", wantURL: "http://app/api/auth/github?code=x&y=1"},
		{
			name:    "tls",
			target:  "https://app/api/auth/github",
			prepare: func(r *http.Request) { r.TLS = &tls.ConnectionState{} },
			wantURL: "https://app/api/auth/github",
		},
		{
			name:    "forwarded proto",
			target:  "http://app/api/auth/github",
			prepare: func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS, http") },
			wantURL: "https://app/api/auth/github",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.prepare != nil {
				tt.prepare(r)
			}
			assert.Equal(t, tt.wantURL, NewRequest(r).URL())
		})
	}
}

func TestRequest_Query(t *testing.T) {
	req := NewRequest(httptest.NewRequest(http.MethodGet, "/cb?code=&state=s", nil))

	code, ok := req.Query("code")
	require.True(t, ok, "an empty code is still present")
	assert.Empty(t, code)

	_, ok = req.Query("missing")
	assert.False(t, ok)
}
