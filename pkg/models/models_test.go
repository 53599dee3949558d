package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStepKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected StepKind
	}{
		{name: "Trigger", expected: StepTrigger},
		{name: "Google Drive", expected: StepTrigger},
		{name: "Slack", expected: StepChatNotify},
		{name: "ChatNotify", expected: StepChatNotify},
		{name: "Notion", expected: StepDocumentCreate},
		{name: "Discord", expected: StepChatWebhook},
		{name: "ChatWebhook", expected: StepChatWebhook},
		{name: "Wait", expected: StepDelay},
		{name: "Delay", expected: StepDelay},
		{name: "slack", expected: StepUnknown},
		{name: "", expected: StepUnknown},
		{name: "Email", expected: StepUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ParseStepKind(tt.name))
		})
	}
}

func TestStepKinds_ParseByCanonicalName(t *testing.T) {
	t.Parallel()

	kinds := StepKinds()
	require.Len(t, kinds, 5)

	for _, kind := range kinds {
		assert.Equal(t, kind, ParseStepKind(kind.String()))
	}

	assert.NotContains(t, kinds, StepUnknown)
}

func TestParseSteps_KeepsOrderAndNames(t *testing.T) {
	t.Parallel()

	steps := ParseSteps([]string{"Trigger", "Mystery", "Wait"})

	assert.Equal(t, []Step{
		{Index: 0, Name: "Trigger", Kind: StepTrigger},
		{Index: 1, Name: "Mystery", Kind: StepUnknown},
		{Index: 2, Name: "Wait", Kind: StepDelay},
	}, steps)
	assert.Equal(t, "Unknown", steps[1].Kind.String())
}

func TestWorkflow_IsSuffixOfFlowPath(t *testing.T) {
	t.Parallel()

	workflow := &Workflow{FlowPath: []string{"Trigger", "Wait", "Slack"}}

	assert.True(t, workflow.IsSuffixOfFlowPath([]string{"Slack"}))
	assert.True(t, workflow.IsSuffixOfFlowPath([]string{}))
	assert.False(t, workflow.IsSuffixOfFlowPath([]string{"Trigger", "Wait", "Slack"}))
	assert.False(t, workflow.IsSuffixOfFlowPath([]string{"Wait"}))
}

func TestWorkflow_StepsFor(t *testing.T) {
	t.Parallel()

	workflow := &Workflow{FlowPath: []string{"Trigger", "Wait", "Slack"}, ResumePath: []string{"Slack"}}

	assert.Equal(t, []string{"Trigger", "Wait", "Slack"}, workflow.StepsFor(ModeTrigger))
	assert.Equal(t, []string{"Slack"}, workflow.StepsFor(ModeResume))

	failed := FailedExecution(workflow, len(workflow.StepsFor(ModeResume)), "boom")
	assert.False(t, failed.Success)
	assert.Equal(t, 1, failed.TotalSteps)
	assert.Equal(t, []string{"boom"}, failed.Errors)
}

func TestExecutionResult_Finish(t *testing.T) {
	t.Parallel()

	workflow := &Workflow{ID: "wf-1", Name: "Notify"}

	result := NewExecutionResult(workflow, 2)
	assert.True(t, result.Finish().Success)

	result.AddError("Slack: token missing")
	finished := result.Finish()
	assert.False(t, finished.Success)
	assert.Equal(t, []string{"Slack: token missing"}, finished.Errors)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	summary := Summarize([]ExecutionResult{{Success: true}, {Success: false}, {Success: true}})

	assert.Equal(t, RunSummary{TotalWorkflows: 3, Successful: 2, Failed: 1}, summary)
	assert.Equal(t, RunSummary{}, Summarize(nil))
}

func TestUser_HasUnlimitedCredits(t *testing.T) {
	t.Parallel()

	assert.True(t, (&User{Credits: UnlimitedCredits}).HasUnlimitedCredits())
	assert.False(t, (&User{Credits: "10"}).HasUnlimitedCredits())
	assert.False(t, (&User{Credits: "unlimited"}).HasUnlimitedCredits())
}
