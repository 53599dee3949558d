// Package notion creates pages in Notion databases.
package notion

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dukex/driveflow/pkg/connectors"
)

const (
	// DefaultBaseURL is the public Notion API root.
	DefaultBaseURL = "https://api.notion.com"
	// APIVersion is sent as the Notion-Version header.
	APIVersion = "2022-06-28"
	// TitleProperty is the database column that receives the page title.
	TitleProperty = "name"
)

// Client creates pages with an integration token.
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

type richText struct {
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

type createPageRequest struct {
	Parent struct {
		DatabaseID string `json:"database_id"`
	} `json:"parent"`
	Properties map[string]map[string][]richText `json:"properties"`
}

type pageResponse struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreatePage adds a page titled title to the database and returns its id.
func (c *Client) CreatePage(ctx context.Context, token string, databaseID string, title string) (string, error) {
	var request createPageRequest

	request.Parent.DatabaseID = databaseID

	var text richText

	text.Text.Content = title
	request.Properties = map[string]map[string][]richText{
		TitleProperty: {"title": {text}},
	}

	resp, err := connectors.Do(ctx, c.httpClient, connectors.Request{
		Method:  http.MethodPost,
		URL:     c.baseURL + "/v1/pages",
		Token:   token,
		Headers: map[string]string{"Notion-Version": APIVersion},
		Body:    request,
	})
	if err != nil {
		return "", err
	}

	var page pageResponse

	decodeErr := resp.Decode(&page)

	if !resp.OK() {
		apiErr := &connectors.APIError{Service: "notion", StatusCode: resp.StatusCode, Code: page.Code, Message: page.Message}
		if decodeErr != nil || apiErr.Message == "" {
			apiErr.Message = resp.Snippet()
		}

		return "", apiErr
	}

	if decodeErr != nil {
		return "", decodeErr
	}

	if page.ID == "" {
		return "", errors.New("notion returned no page id")
	}

	return page.ID, nil
}
