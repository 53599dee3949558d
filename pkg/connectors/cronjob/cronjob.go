// Package cronjob registers HTTP callback jobs with a cron-job.org style API.
package cronjob

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/driveflow/pkg/connectors"
)

// DefaultBaseURL is the public cron-job.org API root.
const DefaultBaseURL = "https://api.cron-job.org"

// Every is the wildcard value in schedule fields.
const Every = -1

// Schedule mirrors the provider's schedule object. A field holding only
// Every matches every value.
type Schedule struct {
	Timezone  string `json:"timezone"`
	ExpiresAt int64  `json:"expiresAt"`
	Hours     []int  `json:"hours"`
	MDays     []int  `json:"mdays"`
	Minutes   []int  `json:"minutes"`
	Months    []int  `json:"months"`
	WDays     []int  `json:"wdays"`
}

// EveryMinute returns a schedule firing once per minute in timezone.
func EveryMinute(timezone string) Schedule {
	return Schedule{
		Timezone: timezone,
		Hours:    []int{Every},
		MDays:    []int{Every},
		Minutes:  []int{Every},
		Months:   []int{Every},
		WDays:    []int{Every},
	}
}

// ExpiresAt encodes t in the provider's YYYYMMDDhhmmss expiry format, read
// in loc.
func ExpiresAt(t time.Time, loc *time.Location) int64 {
	t = t.In(loc)

	return int64(t.Year())*1e10 + int64(t.Month())*1e8 + int64(t.Day())*1e6 +
		int64(t.Hour())*1e4 + int64(t.Minute())*1e2 + int64(t.Second())
}

// Job is one registered callback.
type Job struct {
	URL           string   `json:"url"`
	Title         string   `json:"title,omitempty"`
	Enabled       bool     `json:"enabled"`
	SaveResponses bool     `json:"saveResponses"`
	Schedule      Schedule `json:"schedule"`
}

// Client talks to the job API with an API key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client. Empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if httpClient == nil {
		httpClient = connectors.NewHTTPClient(0)
	}

	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), apiKey: apiKey, httpClient: httpClient}
}

type createJobRequest struct {
	Job Job `json:"job"`
}

type createJobResponse struct {
	JobID int64  `json:"jobId"`
	Error string `json:"error"`
}

// CreateJob registers job and returns the provider's job id.
func (c *Client) CreateJob(ctx context.Context, job Job) (int64, error) {
	resp, err := connectors.Do(ctx, c.httpClient, connectors.Request{
		Method: http.MethodPut,
		URL:    c.baseURL + "/jobs",
		Token:  c.apiKey,
		Body:   createJobRequest{Job: job},
	})
	if err != nil {
		return 0, err
	}

	var body createJobResponse

	decodeErr := resp.Decode(&body)

	if !resp.OK() {
		apiErr := &connectors.APIError{Service: "cron-job", StatusCode: resp.StatusCode, Message: body.Error}
		if decodeErr != nil || apiErr.Message == "" {
			apiErr.Message = resp.Snippet()
		}

		return 0, apiErr
	}

	if decodeErr != nil {
		return 0, decodeErr
	}

	return body.JobID, nil
}
