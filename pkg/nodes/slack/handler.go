// Package slack implements the ChatNotify step: the workflow message posted
// to every configured Slack channel at once.
package slack

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/nodes"
	"github.com/dukex/driveflow/pkg/protocol"
)

// Poster sends one message to one channel.
type Poster interface {
	PostMessage(ctx context.Context, token string, channel string, text string) error
}

type Handler struct {
	poster Poster
}

func NewHandler(poster Poster) *Handler {
	return &Handler{poster: poster}
}

var _ protocol.StepHandler = (*Handler)(nil)

func (h *Handler) Kind() models.StepKind {
	return models.StepChatNotify
}

func (h *Handler) Description() string {
	return "Posts the workflow message template to Slack channels"
}

type delivery struct {
	channel string
	err     error
}

func (h *Handler) Execute(ctx context.Context, step protocol.StepContext) (outcome models.StepOutcome) {
	defer nodes.Recover(&outcome)

	config := step.Workflow.ChatNotify
	config.Channels = validChannels(config.Channels)

	if strings.TrimSpace(config.Template) == "" {
		return models.StepFailed("content is empty")
	}

	err := nodes.ValidateConfig(config)
	if err != nil {
		return models.StepFailed("%v", err)
	}

	deliveries := h.fanOut(ctx, config)

	failed := make([]string, 0, len(deliveries))

	for _, d := range deliveries {
		if d.err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", d.channel, d.err))
		}
	}

	succeeded := len(deliveries) - len(failed)

	switch {
	case len(failed) == 0:
		return models.StepSucceeded()
	case succeeded == 0:
		return models.StepFailed("failed to send: %s", strings.Join(failed, ", "))
	default:
		outcome = models.StepFailed("partial success: %d/%d channels; %s", succeeded, len(deliveries), strings.Join(failed, ", "))
		outcome.Partial = true

		return outcome
	}
}

// fanOut posts to every channel concurrently and returns results in
// channel order.
func (h *Handler) fanOut(ctx context.Context, config models.ChatNotifyConfig) []delivery {
	deliveries := make([]delivery, len(config.Channels))

	var wg sync.WaitGroup

	for i, channel := range config.Channels {
		wg.Add(1)

		go func() {
			defer wg.Done()

			defer func() {
				if r := recover(); r != nil {
					deliveries[i] = delivery{channel: channel, err: fmt.Errorf("panicked: %v", r)}
				}
			}()

			deliveries[i] = delivery{
				channel: channel,
				err:     h.poster.PostMessage(ctx, config.AccessToken, channel, config.Template),
			}
		}()
	}

	wg.Wait()

	return deliveries
}

func validChannels(channels []string) []string {
	valid := make([]string, 0, len(channels))

	for _, channel := range channels {
		if strings.TrimSpace(channel) != "" {
			valid = append(valid, channel)
		}
	}

	return valid
}
