// Package slack posts messages through the Slack Web API.
package slack

import (
	"context"
	"net/http"
	"strings"

	"github.com/dukex/driveflow/pkg/connectors"
)

// DefaultBaseURL is the public Slack Web API root.
const DefaultBaseURL = "https://slack.com/api"

// Client posts chat messages with a bot token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client. Empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if httpClient == nil {
		httpClient = connectors.NewHTTPClient(0)
	}

	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient}
}

type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// PostMessage sends text to one channel. Slack reports logical failures
// with HTTP 200 and ok=false; those come back as *connectors.APIError.
func (c *Client) PostMessage(ctx context.Context, token string, channel string, text string) error {
	resp, err := connectors.Do(ctx, c.httpClient, connectors.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/chat.postMessage",
		Token:  token,
		Body:   postMessageRequest{Channel: channel, Text: text},
	})
	if err != nil {
		return err
	}

	if !resp.OK() {
		return &connectors.APIError{Service: "slack", StatusCode: resp.StatusCode, Message: resp.Snippet()}
	}

	var body postMessageResponse

	err = resp.Decode(&body)
	if err != nil {
		return err
	}

	if !body.OK {
		code := body.Error
		if code == "" {
			code = "unknown_error"
		}

		return &connectors.APIError{Service: "slack", StatusCode: resp.StatusCode, Code: code}
	}

	return nil
}
