// Package models defines the core domain models for trigger-driven workflow automation
package models

import (
	"slices"
	"time"
)

// Workflow is a user-owned automation: an ordered flow path plus the
// configuration each step kind needs to run.
type Workflow struct {
	ID        string   `json:"id"`
	OwnerID   string   `json:"owner_id"  validate:"required"`
	Name      string   `json:"name"      validate:"required"`
	Published bool     `json:"published"`
	FlowPath  []string `json:"flow_path"`

	// ResumePath is the remainder of FlowPath left after a Delay step
	// suspended a run. Nil means no pending continuation; an empty, non-nil
	// slice means a Delay was the final step.
	ResumePath []string `json:"resume_path"`

	ChatWebhook    ChatWebhookConfig    `json:"chat_webhook"`
	ChatNotify     ChatNotifyConfig     `json:"chat_notify"`
	DocumentCreate DocumentCreateConfig `json:"document_create"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatWebhookConfig configures a Discord-style incoming webhook post.
type ChatWebhookConfig struct {
	URL      string `json:"url"      validate:"required,url"`
	Template string `json:"template"`
}

// ChatNotifyConfig configures a Slack-style post to one or more channels.
type ChatNotifyConfig struct {
	AccessToken string   `json:"access_token" validate:"required"`
	Channels    []string `json:"channels"     validate:"required,min=1"`
	Template    string   `json:"template"`
}

// DocumentCreateConfig configures a Notion-style page creation.
type DocumentCreateConfig struct {
	DatabaseID  string `json:"database_id"  validate:"required"`
	AccessToken string `json:"access_token" validate:"required"`
	Template    string `json:"template"`
}

// HasResumePath reports whether a suspended run left a continuation behind.
func (w *Workflow) HasResumePath() bool {
	return w.ResumePath != nil
}

// StepsFor returns the path the given mode walks.
func (w *Workflow) StepsFor(mode ExecutionMode) []string {
	if mode == ModeResume {
		return w.ResumePath
	}

	return w.FlowPath
}

// IsSuffixOfFlowPath reports whether steps is a strict suffix of the flow path.
func (w *Workflow) IsSuffixOfFlowPath(steps []string) bool {
	if len(steps) >= len(w.FlowPath) {
		return false
	}

	return slices.Equal(w.FlowPath[len(w.FlowPath)-len(steps):], steps)
}
