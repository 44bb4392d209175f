package github

// State is a step of the authorization-code protocol
type State int

const (
	StateAwaitingAuthorization State = iota
	StateRedirectIssued
	StateExchanging
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingAuthorization:
		return "awaiting_authorization"
	case StateRedirectIssued:
		return "redirect_issued"
	case StateExchanging:
		return "exchanging"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen from s
func (s State) Terminal() bool {
	return s == StateRedirectIssued || s == StateAuthenticated || s == StateFailed
}

// Result is the terminal outcome of Login. RedirectURL is set for
// StateRedirectIssued and Profile for StateAuthenticated.
type Result struct {
	State       State
	RedirectURL string
	Profile     *UserProfile
}
