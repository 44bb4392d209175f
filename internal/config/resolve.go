package config

import (
	"slices"

	"golang.org/x/oauth2/github"
)

const (
	// DefaultGitHubAPIBaseURL is the base of the user and emails endpoints
	DefaultGitHubAPIBaseURL = "https://api.github.com"
)

// ResolveOAuth overlays override on defaults. An override field wins when it
// is set: non-empty strings, non-nil scope slices and a true EmailRequired.
// Everything else falls back to defaults. The result shares no slice with
// either input.
func ResolveOAuth(defaults OAuthConfig, override *OAuthConfig) OAuthConfig {
	out := defaults
	out.Scopes = slices.Clone(defaults.Scopes)

	if override == nil {
		return out
	}

	out.ClientID = pick(override.ClientID, defaults.ClientID)
	out.ClientSecret = pick(override.ClientSecret, defaults.ClientSecret)
	out.AuthorizeURL = pick(override.AuthorizeURL, defaults.AuthorizeURL)
	out.TokenURL = pick(override.TokenURL, defaults.TokenURL)
	out.APIBaseURL = pick(override.APIBaseURL, defaults.APIBaseURL)

	if override.Scopes != nil {
		out.Scopes = slices.Clone(override.Scopes)
	}
	if override.EmailRequired {
		out.EmailRequired = true
	}

	return out
}

// WithEndpointDefaults fills empty endpoint URLs with GitHub's public ones.
func (c OAuthConfig) WithEndpointDefaults() OAuthConfig {
	c.AuthorizeURL = pick(c.AuthorizeURL, github.Endpoint.AuthURL)
	c.TokenURL = pick(c.TokenURL, github.Endpoint.TokenURL)
	c.APIBaseURL = pick(c.APIBaseURL, DefaultGitHubAPIBaseURL)
	return c
}

func pick(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
