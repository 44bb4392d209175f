package requester

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds every outbound call made through an HTTPRequester
const DefaultTimeout = 30 * time.Second

// HTTPRequester builds and executes JSON requests
type HTTPRequester struct {
	client *http.Client
	log    *zap.Logger
}

// NewHTTPRequester creates a new HTTPRequester with default configuration
func NewHTTPRequester(log *zap.Logger) *HTTPRequester {
	return NewHTTPRequesterWithClient(&http.Client{Timeout: DefaultTimeout}, log)
}

// NewHTTPRequesterWithClient uses client for all calls, e.g. an httptest client
func NewHTTPRequesterWithClient(client *http.Client, log *zap.Logger) *HTTPRequester {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPRequester{client: client, log: log}
}

// SetTimeout sets the timeout for the HTTP client
func (r *HTTPRequester) SetTimeout(timeout time.Duration) {
	r.client.Timeout = timeout
}

func (r *HTTPRequester) build(ctx context.Context, req *Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if req.Auth != nil {
		if err := req.Auth.ApplyAuth(httpReq); err != nil {
			return nil, fmt.Errorf("failed to apply authentication: %w", err)
		}
	}

	return httpReq, nil
}

// Do performs the request and returns the raw response. Non-2xx statuses are
// not an error here.
func (r *HTTPRequester) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := r.build(ctx, req)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			r.log.Debug("Failed to close response body", zap.Error(closeErr))
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	r.log.Debug("outbound request",
		zap.String("method", httpReq.Method),
		zap.String("url", httpReq.URL.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(started)),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
		Headers:    resp.Header,
	}, nil
}

// FetchJSON performs the request and decodes a 2xx JSON body into out
func (r *HTTPRequester) FetchJSON(ctx context.Context, req *Request, out any) error {
	resp, err := r.Do(ctx, req)
	if err != nil {
		return err
	}

	if !resp.OK() {
		method := req.Method
		if method == "" {
			method = http.MethodGet
		}
		return &StatusError{Method: method, URL: req.URL, StatusCode: resp.StatusCode, Body: resp.Body}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &DecodeError{URL: req.URL, Err: err}
	}
	return nil
}
