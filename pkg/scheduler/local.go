package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dukex/driveflow/pkg/connectors"
	"github.com/robfig/cron/v3"
)

// DefaultDelay is how long the local scheduler waits before calling back.
const DefaultDelay = time.Minute

// LocalScheduler runs wake-ups in process. Each registration is a cron
// entry that fires once, calls the target and removes itself. Pending
// wake-ups are lost on restart.
type LocalScheduler struct {
	cron       *cron.Cron
	delay      time.Duration
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID // workflow id to pending entry
}

func NewLocalScheduler(delay time.Duration, httpClient *http.Client, logger *slog.Logger) *LocalScheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}

	if httpClient == nil {
		httpClient = connectors.NewHTTPClient(0)
	}

	return &LocalScheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
		)),
		delay:      delay,
		httpClient: httpClient,
		logger:     logger,
		entries:    make(map[string]cron.EntryID),
	}
}

var _ Scheduler = (*LocalScheduler)(nil)

func (s *LocalScheduler) Start() {
	s.cron.Start()
}

// Stop waits for running callbacks or for ctx, whichever comes first.
func (s *LocalScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Pending reports how many wake-ups have not fired yet.
func (s *LocalScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// RegisterCallback replaces any wake-up already pending for the workflow.
func (s *LocalScheduler) RegisterCallback(ctx context.Context, targetURL string, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, ok := s.entries[workflowID]; ok {
		s.cron.Remove(previous)
		delete(s.entries, workflowID)
	}

	var (
		once sync.Once
		id   cron.EntryID
	)

	// fire reads id under s.mu, which is held until id is assigned.
	id, err := s.cron.AddFunc("@every "+s.delay.String(), func() {
		once.Do(func() { s.fire(&id, targetURL, workflowID) })
	})
	if err != nil {
		return &RegistrationError{Provider: ProviderLocal, WorkflowID: workflowID, Err: err}
	}

	s.entries[workflowID] = id

	s.logger.InfoContext(ctx, "registered local wake-up", "workflow_id", workflowID, "delay", s.delay)

	return nil
}

func (s *LocalScheduler) fire(entry *cron.EntryID, targetURL string, workflowID string) {
	s.mu.Lock()
	id := *entry
	s.cron.Remove(id)

	if s.entries[workflowID] == id {
		delete(s.entries, workflowID)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.httpClient.Timeout+time.Second)
	defer cancel()

	resp, err := connectors.Do(ctx, s.httpClient, connectors.Request{Method: http.MethodPost, URL: targetURL})
	if err != nil {
		s.logger.ErrorContext(ctx, "wake-up call failed", "workflow_id", workflowID, "error", err)

		return
	}

	if !resp.OK() {
		s.logger.ErrorContext(ctx, "wake-up call rejected",
			"workflow_id", workflowID,
			"error", fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Snippet()),
		)

		return
	}

	s.logger.InfoContext(ctx, "wake-up delivered", "workflow_id", workflowID)
}
