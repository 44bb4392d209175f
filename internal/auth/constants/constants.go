package constants

const (
	// LoginPath starts and completes the GitHub login
	LoginPath = "/api/auth/github"

	// SessionPath reads (GET) and ends (POST, DELETE) the current session
	SessionPath = "/api/session"

	// CodeQueryParam carries the authorization code on the callback
	CodeQueryParam = "code"

	// ForwardedProtoHeader is set by TLS terminating proxies
	ForwardedProtoHeader = "X-Forwarded-Proto"
)

// Error codes written by the JSON error responses
const (
	ErrorUnauthorized = "unauthorized"
	ErrorServer       = "server_error"
)
