package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brizzai/space/internal/auth/github"
	"github.com/brizzai/space/internal/config"
	"github.com/brizzai/space/internal/requester"
	"github.com/brizzai/space/internal/session"
	"github.com/brizzai/space/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeGitHub answers the token, user and emails endpoints. A code of
// "bad" makes the token endpoint fail.
func newFakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["code"] == "bad" {
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok"}`))
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"login":"bob","email":"b@x.com"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T) (*http.ServeMux, *storage.Registry) {
	t.Helper()
	gh := newFakeGitHub(t)

	cfg := &config.Config{
		Server: config.ServerConfig{HomePath: "/home"},
		OAuth: config.OAuthConfig{
			ClientID:     "abc",
			ClientSecret: "xyz",
			TokenURL:     gh.URL + "/login/oauth/access_token",
			APIBaseURL:   gh.URL,
		},
		Session: config.SessionConfig{Name: "space-session", Password: strings.Repeat("k", 32), MaxAge: "1h"},
	}

	registry := storage.NewRegistry(config.StorageConfig{Driver: config.StorageDriverMemory}, nil, nil)
	t.Cleanup(func() { _ = registry.Close() })

	sessions, err := session.NewManager(cfg.Session, registry, nil)
	require.NoError(t, err)
	client := github.NewClient(cfg.OAuth, requester.NewHTTPRequesterWithClient(gh.Client(), nil), nil, nil)

	mux := http.NewServeMux()
	NewService(cfg, client, sessions).RegisterRoutes(mux)
	return mux, registry
}

func serve(mux http.Handler, method, target string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestRegisterRoutes(t *testing.T) {
	mux, _ := newTestService(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/github"},
		{http.MethodGet, "/api/session"},
		{http.MethodPost, "/api/session"},
		{http.MethodDelete, "/api/session"},
	}
	for _, route := range routes {
		r := httptest.NewRequest(route.method, route.path, nil)
		_, pattern := mux.Handler(r)
		assert.NotEmpty(t, pattern, "%s %s not registered", route.method, route.path)
	}

	rec := serve(mux, http.MethodPut, "/api/session", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLoginFlow(t *testing.T) {
	mux, registry := newTestService(t)

	// no code: redirect to GitHub, no session
	rec := serve(mux, http.MethodGet, "http://example.com/api/auth/github", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "https://github.com/login/oauth/authorize?client_id=abc"), location)
	assert.Contains(t, location, "redirect_uri=http%3A%2F%2Fexample.com%2Fapi%2Fauth%2Fgithub")
	assert.Empty(t, rec.Result().Cookies())

	// callback: session cookie and redirect home
	rec = serve(mux, http.MethodGet, "http://example.com/api/auth/github?code=good", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	keys, err := mustStorage(t, registry).GetKeys(t.Context(), "sessions/")
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	rec = serve(mux, http.MethodGet, "/api/session", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var sess session.UserSession
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sess))
	assert.Equal(t, "bob", sess.User.Login)
	assert.Equal(t, "b@x.com", sess.User.Email)
	assert.Equal(t, "sessions/"+sess.ID, keys[0])

	rec = serve(mux, http.MethodPost, "/api/session", cookies)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(mux, http.MethodGet, "/api/session", cookies)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginFlow_FailureRedirectsHome(t *testing.T) {
	mux, registry := newTestService(t)

	rec := serve(mux, http.MethodGet, "http://example.com/api/auth/github?code=bad", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))
	assert.Empty(t, rec.Result().Cookies(), "no session on failure")

	keys, err := mustStorage(t, registry).GetKeys(t.Context(), "sessions/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSession_Unauthenticated(t *testing.T) {
	mux, _ := newTestService(t)

	rec := serve(mux, http.MethodGet, "/api/session", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized","error_description":"Authentication required"}`, rec.Body.String())

	// logging out without a session still succeeds
	rec = serve(mux, http.MethodDelete, "/api/session", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func mustStorage(t *testing.T, registry *storage.Registry) *storage.Storage {
	t.Helper()
	s, err := registry.Storage(t.Context())
	require.NoError(t, err)
	return s
}
