package handlers

import (
	"net/http"
	"strings"

	"github.com/brizzai/space/internal/auth/constants"
)

// Request adapts an *http.Request to the login flow's read-only view
type Request struct {
	r *http.Request
}

// NewRequest wraps r
func NewRequest(r *http.Request) *Request {
	return &Request{r: r}
}

// Query reports a query parameter and whether it was present, even if empty
func (q *Request) Query(key string) (string, bool) {
	values, ok := q.r.URL.Query()[key]
	if !ok {
		return "", false
	}
	if len(values) == 0 {
		return "", true
	}
	return values[0], true
}

// URL rebuilds the absolute request URL as seen by the client
func (q *Request) URL() string {
	scheme := "http"
	if q.r.TLS != nil {
		scheme = "https"
	}
	if proto := q.r.Header.Get(constants.ForwardedProtoHeader); proto != "" {
		// proxies may send a list, the first hop is the client's
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + q.r.Host + q.r.URL.RequestURI()
}

// Redirector issues a 302 on the wrapped response
type Redirector struct {
	w http.ResponseWriter
	r *http.Request
}

// NewRedirector wraps the response of r
func NewRedirector(w http.ResponseWriter, r *http.Request) *Redirector {
	return &Redirector{w: w, r: r}
}

func (d *Redirector) Redirect(target string) {
	http.Redirect(d.w, d.r, target, http.StatusFound)
}
