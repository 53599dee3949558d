// Package scheduler suspends workflow runs at Delay steps: it registers an
// external wake-up and then persists the steps still to run.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

var (
	// ErrUnknownProvider is returned for a provider name with no implementation.
	ErrUnknownProvider = errors.New("unknown scheduler provider")
	// ErrMissingWorkflowID is returned when a suspension names no workflow.
	ErrMissingWorkflowID = errors.New("workflow id is required")
)

const (
	ProviderCronJob = "cronjob"
	ProviderLocal   = "local"
)

// Scheduler arranges for targetURL to be called back later.
type Scheduler interface {
	RegisterCallback(ctx context.Context, targetURL string, workflowID string) error
}

// Store persists the continuation of a suspended workflow.
type Store interface {
	UpdateWorkflowResumePath(ctx context.Context, workflowID string, steps []string) error
}

// RegistrationError reports a wake-up the provider did not accept.
type RegistrationError struct {
	Provider   string
	WorkflowID string
	Err        error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("%s scheduler failed to register wake-up for workflow %s: %v", e.Provider, e.WorkflowID, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// CallbackURL builds the re-entry address for a workflow.
func CallbackURL(baseURL string, workflowID string) string {
	escaped := url.PathEscape(workflowID)

	return fmt.Sprintf("%s/workflows/%s/resume?flow_id=%s",
		strings.TrimSuffix(baseURL, "/"), escaped, url.QueryEscape(workflowID))
}

// Suspender registers the wake-up first and only then persists the
// remaining steps, so a failed registration leaves no continuation behind.
type Suspender struct {
	scheduler       Scheduler
	store           Store
	callbackBaseURL string
	logger          *slog.Logger
}

func NewSuspender(scheduler Scheduler, store Store, callbackBaseURL string, logger *slog.Logger) *Suspender {
	return &Suspender{
		scheduler:       scheduler,
		store:           store,
		callbackBaseURL: callbackBaseURL,
		logger:          logger,
	}
}

func (s *Suspender) Suspend(ctx context.Context, workflowID string, remaining []string) error {
	if workflowID == "" {
		return ErrMissingWorkflowID
	}

	if remaining == nil {
		remaining = []string{}
	}

	target := CallbackURL(s.callbackBaseURL, workflowID)

	err := s.scheduler.RegisterCallback(ctx, target, workflowID)
	if err != nil {
		return err
	}

	err = s.store.UpdateWorkflowResumePath(ctx, workflowID, remaining)
	if err != nil {
		return fmt.Errorf("wake-up registered but resume path not saved: %w", err)
	}

	s.logger.InfoContext(ctx, "workflow suspended",
		"workflow_id", workflowID,
		"remaining_steps", len(remaining),
		"callback_url", target,
	)

	return nil
}
