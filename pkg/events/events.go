// Package events defines the records the engine emits while processing
// triggers and running workflows.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every engine event.
const Topic = "driveflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	TriggerProcessedEvent EventType = "trigger.processed"
	WorkflowExecutedEvent EventType = "workflow.executed"
	StepExecutedEvent     EventType = "step.executed"
	CreditsDebitedEvent   EventType = "credits.debited"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	RunID      string         `json:"run_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string, runID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		RunID:      runID,
		Metadata:   make(map[string]any),
	}
}

// StepExecuted is emitted once per interpreted step.
type StepExecuted struct {
	BaseEvent

	StepIndex  int    `json:"step_index"`
	StepName   string `json:"step_name"`
	StepKind   string `json:"step_kind"`
	Completed  bool   `json:"completed"`
	Partial    bool   `json:"partial,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func (s StepExecuted) GetType() EventType {
	return StepExecutedEvent
}

// WorkflowExecuted is emitted once per interpreter run.
type WorkflowExecuted struct {
	BaseEvent

	Mode           string   `json:"mode"`
	Success        bool     `json:"success"`
	StepsCompleted int      `json:"steps_completed"`
	TotalSteps     int      `json:"total_steps"`
	Errors         []string `json:"errors,omitempty"`
	Suspended      bool     `json:"suspended,omitempty"`
	DurationMs     int64    `json:"duration_ms"`
}

func (w WorkflowExecuted) GetType() EventType {
	return WorkflowExecutedEvent
}

// TriggerProcessed is emitted once per notification that reached execution.
type TriggerProcessed struct {
	BaseEvent

	ResourceID     string `json:"resource_id"`
	UserID         string `json:"user_id"`
	TotalWorkflows int    `json:"total_workflows"`
	Successful     int    `json:"successful"`
	Failed         int    `json:"failed"`
}

func (t TriggerProcessed) GetType() EventType {
	return TriggerProcessedEvent
}

// CreditsDebited is emitted after a successful debit.
type CreditsDebited struct {
	BaseEvent

	UserID  string `json:"user_id"`
	Balance string `json:"balance"`
}

func (c CreditsDebited) GetType() EventType {
	return CreditsDebitedEvent
}
