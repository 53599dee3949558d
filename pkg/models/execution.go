package models

// ExecutionMode selects which stored path the interpreter walks.
type ExecutionMode string

const (
	// ModeTrigger walks the flow path from its first position.
	ModeTrigger ExecutionMode = "trigger"
	// ModeResume walks the persisted resume path left by a Delay step.
	ModeResume ExecutionMode = "resume"
)

// ExecutionResult is the outcome of one interpreter run over one workflow.
type ExecutionResult struct {
	WorkflowID     string   `json:"workflowId"`
	WorkflowName   string   `json:"workflowName"`
	Success        bool     `json:"success"`
	StepsCompleted int      `json:"stepsCompleted"`
	TotalSteps     int      `json:"totalSteps"`
	Errors         []string `json:"errors"`
	Suspended      bool     `json:"suspended,omitempty"`
	Resumed        bool     `json:"resumed,omitempty"`
}

// NewExecutionResult starts a result for the given workflow and step count.
func NewExecutionResult(workflow *Workflow, totalSteps int) *ExecutionResult {
	return &ExecutionResult{
		WorkflowID:   workflow.ID,
		WorkflowName: workflow.Name,
		TotalSteps:   totalSteps,
		Errors:       []string{},
	}
}

// AddError records a failed or skipped step.
func (r *ExecutionResult) AddError(message string) {
	r.Errors = append(r.Errors, message)
}

// Finish freezes the success flag from the accumulated errors.
func (r *ExecutionResult) Finish() ExecutionResult {
	r.Success = len(r.Errors) == 0

	return *r
}

// FailedExecution builds a failed result for a workflow whose run over
// totalSteps steps could not be carried out at all.
func FailedExecution(workflow *Workflow, totalSteps int, message string) ExecutionResult {
	result := NewExecutionResult(workflow, totalSteps)
	result.AddError(message)

	return result.Finish()
}

// RunSummary aggregates the results of one trigger notification.
type RunSummary struct {
	TotalWorkflows int `json:"totalWorkflows"`
	Successful     int `json:"successful"`
	Failed         int `json:"failed"`
}

// Summarize counts successes and failures across results.
func Summarize(results []ExecutionResult) RunSummary {
	summary := RunSummary{TotalWorkflows: len(results)}

	for _, result := range results {
		if result.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	return summary
}
