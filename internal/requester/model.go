package requester

import (
	"fmt"
	"net/http"
)

// Request describes one outbound call. A non-nil Body is sent as JSON.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
	Auth    AuthManager
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// OK reports whether the response carries a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError is returned by FetchJSON for non-2xx responses
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, truncate(e.Body, 256))
}

// DecodeError is returned by FetchJSON when the body is not the expected JSON
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
