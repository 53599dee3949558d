// Package web exposes the drive notification, resume and health endpoints.
package web

// Headers carried by drive push notifications.
const (
	HeaderResourceID    = "X-Goog-Resource-Id"
	HeaderResourceState = "X-Goog-Resource-State"
	HeaderChannelID     = "X-Goog-Channel-Id"
	HeaderMessageNumber = "X-Goog-Message-Number"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Message  string            `json:"message"`
	Checkers map[string]string `json:"checkers"`
}
