// Package connectors holds the HTTP plumbing shared by the outbound
// collaborator clients.
package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds every outbound call when no client is supplied.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is kept for reporting.
const maxErrorBody = 512

// APIError is a non-success answer from a collaborator service.
type APIError struct {
	Service    string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s API error (HTTP %d): %s", e.Service, e.StatusCode, e.Code)
	}

	return fmt.Sprintf("%s API error (HTTP %d): %s", e.Service, e.StatusCode, e.Message)
}

// NewHTTPClient returns a client with a finite timeout, falling back to
// DefaultTimeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{Timeout: timeout}
}

// Request describes one JSON call.
type Request struct {
	Method  string
	URL     string
	Token   string
	Headers map[string]string
	Body    any
}

// Response carries the status and raw body of a completed call.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into out. An empty body leaves out untouched.
func (r *Response) Decode(out any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}

	err := json.Unmarshal(r.Body, out)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// Snippet returns a bounded view of the body for error messages.
func (r *Response) Snippet() string {
	if len(r.Body) > maxErrorBody {
		return string(r.Body[:maxErrorBody])
	}

	return string(r.Body)
}

// Do performs a JSON request. Transport failures are returned as errors;
// any HTTP status is returned as a Response for the caller to judge.
func Do(ctx context.Context, client *http.Client, request Request) (*Response, error) {
	var body io.Reader

	if request.Body != nil {
		payload, err := json.Marshal(request.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, request.Method, request.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if request.Body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	if request.Token != "" {
		req.Header.Set("Authorization", "Bearer "+request.Token)
	}

	for key, value := range request.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}
