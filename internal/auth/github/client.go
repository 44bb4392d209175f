package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/brizzai/space/internal/auth/constants"
	"github.com/brizzai/space/internal/config"
	"github.com/brizzai/space/internal/metrics"
	"github.com/brizzai/space/internal/requester"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// EmailScope grants read access to the private email list
const EmailScope = "user:email"

// Request is the read-only view of the inbound request that Login needs
type Request interface {
	// Query returns a query parameter and whether it was present at all
	Query(key string) (string, bool)
	// URL is the absolute URL of the current request, used as redirect_uri
	URL() string
}

// Redirector ends request handling with an HTTP redirect
type Redirector interface {
	Redirect(target string)
}

// Fetcher is the HTTP client capability used for the three provider calls
type Fetcher interface {
	FetchJSON(ctx context.Context, req *requester.Request, out any) error
}

// Client runs the GitHub authorization-code flow
type Client struct {
	defaults config.OAuthConfig
	fetcher  Fetcher
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewClient creates a client using defaults for every Login call. m may be nil.
func NewClient(defaults config.OAuthConfig, fetcher Fetcher, log *zap.Logger, m *metrics.Metrics) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		defaults: defaults,
		fetcher:  fetcher,
		log:      log.Named("github"),
		metrics:  m,
	}
}

// Login drives the flow for one request. Without a code query parameter it
// issues a redirect to GitHub and returns StateRedirectIssued. With a code it
// exchanges it, fetches the profile (and the primary email when required and
// missing) and returns StateAuthenticated. Any failure returns StateFailed
// and an error matching ErrLoginFailed; turning that into a user-facing
// response is up to the caller.
func (c *Client) Login(ctx context.Context, req Request, redirect Redirector, override *config.OAuthConfig) (*Result, error) {
	cfg := config.ResolveOAuth(c.defaults, override).WithEndpointDefaults()
	if cfg.MissingCredentials() {
		c.log.Warn("GitHub OAuth error: missing SPACE_OAUTH_CLIENT_ID or SPACE_OAUTH_CLIENT_SECRET")
	}

	code, ok := req.Query(constants.CodeQueryParam)
	if !ok {
		target := AuthorizeURL(cfg, req.URL())
		redirect.Redirect(target)
		c.metrics.ObserveLogin(metrics.LoginRedirect)
		return &Result{State: StateRedirectIssued, RedirectURL: target}, nil
	}

	c.log.Debug("GitHub login code received", zap.Stringer("state", StateExchanging))
	profile, err := c.exchange(ctx, cfg, code)
	if err != nil {
		c.metrics.ObserveLogin(metrics.LoginFailure)
		return &Result{State: StateFailed}, err
	}

	c.metrics.ObserveLogin(metrics.LoginSuccess)
	return &Result{State: StateAuthenticated, Profile: profile}, nil
}

// Scopes returns the scopes to request. user:email is appended when the
// email is required and it is not already listed; nothing else is deduplicated.
func Scopes(cfg config.OAuthConfig) []string {
	scopes := slices.Clone(cfg.Scopes)
	if scopes == nil {
		scopes = []string{}
	}
	if cfg.EmailRequired && !slices.Contains(scopes, EmailScope) {
		scopes = append(scopes, EmailScope)
	}
	return scopes
}

// AuthorizeURL builds the consent URL. Scopes are joined with a literal %20,
// GitHub does not get a '+' separator.
func AuthorizeURL(cfg config.OAuthConfig, redirectURI string) string {
	base := cfg.AuthorizeURL
	if base == "" {
		base = config.OAuthConfig{}.WithEndpointDefaults().AuthorizeURL
	}

	scopes := Scopes(cfg)
	escaped := make([]string, len(scopes))
	for i, scope := range scopes {
		escaped[i] = url.QueryEscape(scope)
	}

	query := "client_id=" + url.QueryEscape(cfg.ClientID) +
		"&redirect_uri=" + url.QueryEscape(redirectURI) +
		"&scope=" + strings.Join(escaped, "%20")

	switch {
	case strings.HasSuffix(base, "?"), strings.HasSuffix(base, "&"):
		return base + query
	case strings.Contains(base, "?"):
		return base + "&" + query
	default:
		return base + "?" + query
	}
}

func (c *Client) exchange(ctx context.Context, cfg config.OAuthConfig, code string) (*UserProfile, error) {
	token, err := c.exchangeCode(ctx, cfg, code)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{"User-Agent": "Github-OAuth-" + cfg.ClientID}
	auth := requester.NewTokenAuth(token)

	profile, err := c.fetchProfile(ctx, cfg, headers, auth)
	if err != nil {
		return nil, err
	}

	if profile.Email == "" && cfg.EmailRequired {
		email, err := c.fetchPrimaryEmail(ctx, cfg, headers, auth)
		if err != nil {
			return nil, err
		}
		profile.Email = email
	}

	c.log.Debug("GitHub login exchanged", zap.Int64("user_id", profile.ID), zap.String("login", profile.Login))
	return profile, nil
}

func (c *Client) exchangeCode(ctx context.Context, cfg config.OAuthConfig, code string) (*oauth2.Token, error) {
	req := &requester.Request{
		Method: http.MethodPost,
		URL:    cfg.TokenURL,
		Body: map[string]string{
			"client_id":     cfg.ClientID,
			"client_secret": cfg.ClientSecret,
			"code":          code,
		},
	}

	var resp tokenResponse
	if err := c.fetcher.FetchJSON(ctx, req, &resp); err != nil {
		// GitHub answers some failures with a non-2xx status and the usual error body
		var statusErr *requester.StatusError
		if errors.As(err, &statusErr) && json.Unmarshal(statusErr.Body, &resp) == nil && resp.Error != nil {
			return nil, &ExchangeError{Code: *resp.Error, Description: resp.ErrorDescription}
		}
		return nil, c.responseError(cfg.TokenURL, err)
	}

	if resp.Error != nil {
		return nil, &ExchangeError{Code: *resp.Error, Description: resp.ErrorDescription}
	}
	if resp.AccessToken == "" {
		return nil, &MalformedResponseError{Endpoint: cfg.TokenURL, Reason: "missing access_token"}
	}

	// GitHub reports "bearer" but documents the "token" scheme for these calls
	return &oauth2.Token{AccessToken: resp.AccessToken, TokenType: requester.GitHubTokenType}, nil
}

func (c *Client) fetchProfile(ctx context.Context, cfg config.OAuthConfig, headers map[string]string, auth requester.AuthManager) (*UserProfile, error) {
	endpoint := strings.TrimSuffix(cfg.APIBaseURL, "/") + "/user"

	var profile UserProfile
	req := &requester.Request{URL: endpoint, Headers: headers, Auth: auth}
	if err := c.fetcher.FetchJSON(ctx, req, &profile); err != nil {
		return nil, c.responseError(endpoint, err)
	}

	switch {
	case profile.ID == 0:
		return nil, &MalformedResponseError{Endpoint: endpoint, Reason: "missing id"}
	case profile.Login == "":
		return nil, &MalformedResponseError{Endpoint: endpoint, Reason: "missing login"}
	}
	return &profile, nil
}

func (c *Client) fetchPrimaryEmail(ctx context.Context, cfg config.OAuthConfig, headers map[string]string, auth requester.AuthManager) (string, error) {
	endpoint := strings.TrimSuffix(cfg.APIBaseURL, "/") + "/user/emails"

	var emails []Email
	req := &requester.Request{URL: endpoint, Headers: headers, Auth: auth}
	if err := c.fetcher.FetchJSON(ctx, req, &emails); err != nil {
		return "", c.responseError(endpoint, err)
	}

	i := slices.IndexFunc(emails, func(e Email) bool { return e.Primary })
	if i < 0 {
		return "", &ProfileError{Reason: "no user email found"}
	}
	if emails[i].Email == "" {
		return "", &MalformedResponseError{Endpoint: endpoint, Reason: "primary entry has no address"}
	}
	return emails[i].Email, nil
}

// responseError maps decode failures to MalformedResponseError and wraps the rest
func (c *Client) responseError(endpoint string, err error) error {
	var decodeErr *requester.DecodeError
	if errors.As(err, &decodeErr) {
		return &MalformedResponseError{Endpoint: endpoint, Reason: decodeErr.Err.Error(), Err: err}
	}
	return wrap(err)
}
