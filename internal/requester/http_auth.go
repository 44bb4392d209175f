package requester

import (
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

// GitHubTokenType is the Authorization scheme GitHub documents for OAuth tokens
const GitHubTokenType = "token"

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// TokenAuth applies an OAuth2 access token to outgoing requests
type TokenAuth struct {
	token *oauth2.Token
}

// NewTokenAuth wraps an access token. An empty token type becomes GitHub's
// "token" scheme, so the header reads "Authorization: token <access_token>".
func NewTokenAuth(token *oauth2.Token) *TokenAuth {
	t := *token
	if t.TokenType == "" {
		t.TokenType = GitHubTokenType
	}
	return &TokenAuth{token: &t}
}

// ApplyAuth adds the Authorization header to the request
func (a *TokenAuth) ApplyAuth(req *http.Request) error {
	if a.token == nil || a.token.AccessToken == "" {
		return errors.New("missing access token")
	}
	a.token.SetAuthHeader(req)
	return nil
}
