package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/workflow"
	"github.com/gofiber/fiber/v3"
)

// Engine processes inbound notifications and resume callbacks.
type Engine interface {
	HandleNotification(ctx context.Context, notification models.Notification) (workflow.Acknowledgement, error)
	Resume(ctx context.Context, workflowID string) (workflow.Acknowledgement, error)
}

// HealthChecker reports whether the store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Handlers struct {
	engine Engine
	store  HealthChecker
	logger *slog.Logger
}

func NewHandlers(engine Engine, store HealthChecker, logger *slog.Logger) *Handlers {
	return &Handlers{
		engine: engine,
		store:  store,
		logger: logger,
	}
}

// Notification handles a drive push notification. Everything except a store
// fault answers 200 so the sender does not redeliver.
func (h *Handlers) Notification(c fiber.Ctx) error {
	notification := models.Notification{
		ResourceID:    strings.TrimSpace(c.Get(HeaderResourceID)),
		ResourceState: strings.TrimSpace(c.Get(HeaderResourceState)),
		ChannelID:     c.Get(HeaderChannelID),
		MessageNumber: c.Get(HeaderMessageNumber),
	}

	ack, err := h.engine.HandleNotification(c.Context(), notification)
	if err != nil {
		h.logger.ErrorContext(c.Context(), "failed to process notification",
			"resource_id", notification.ResourceID,
			"error", err,
		)

		return internalError(c, "failed to process notification")
	}

	return c.JSON(ack)
}

// Resume handles the scheduler callback. The workflow id comes from the path
// or, for callers that only carry it as a query value, from flow_id.
func (h *Handlers) Resume(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		workflowID = c.Query("flow_id")
	}

	if workflowID == "" {
		return badRequest(c, "workflow id is required")
	}

	ack, err := h.engine.Resume(c.Context(), workflowID)
	if err != nil {
		h.logger.ErrorContext(c.Context(), "failed to resume workflow",
			"workflow_id", workflowID,
			"error", err,
		)

		return internalError(c, "failed to resume workflow")
	}

	return c.JSON(ack)
}

func (h *Handlers) HealthCheck(c fiber.Ctx) error {
	response := HealthResponse{
		Status:   "healthy",
		Message:  "driveflow is healthy",
		Checkers: map[string]string{"store": "ok"},
	}
	httpStatus := http.StatusOK

	err := h.store.HealthCheck(c.Context())
	if err != nil {
		response.Status = "unhealthy"
		response.Message = "driveflow is unhealthy"
		response.Checkers["store"] = err.Error()
		httpStatus = http.StatusServiceUnavailable
	}

	return c.Status(httpStatus).JSON(response)
}
