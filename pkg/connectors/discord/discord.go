// Package discord posts messages to Discord incoming webhooks.
package discord

import (
	"context"
	"net/http"

	"github.com/dukex/driveflow/pkg/connectors"
)

// Client sends webhook messages.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client. A nil httpClient gets the default timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = connectors.NewHTTPClient(0)
	}

	return &Client{httpClient: httpClient}
}

type webhookMessage struct {
	Content string `json:"content"`
}

type webhookError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send posts text to the webhook URL and reports whether Discord accepted it.
func (c *Client) Send(ctx context.Context, webhookURL string, text string) (bool, error) {
	resp, err := connectors.Do(ctx, c.httpClient, connectors.Request{
		Method: http.MethodPost,
		URL:    webhookURL,
		Body:   webhookMessage{Content: text},
	})
	if err != nil {
		return false, err
	}

	if resp.OK() {
		return true, nil
	}

	apiErr := &connectors.APIError{Service: "discord", StatusCode: resp.StatusCode, Message: resp.Snippet()}

	var body webhookError
	if resp.Decode(&body) == nil && body.Message != "" {
		apiErr.Message = body.Message
	}

	return false, apiErr
}
