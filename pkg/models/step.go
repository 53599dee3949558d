package models

import "fmt"

// StepKind is the closed set of step types a flow path may contain.
type StepKind int

const (
	StepUnknown StepKind = iota
	StepTrigger
	StepChatNotify
	StepDocumentCreate
	StepChatWebhook
	StepDelay
)

// stepAliases maps every accepted stored name to its kind. Product names are
// what the authoring surface writes; canonical names are accepted as well.
var stepAliases = map[string]StepKind{
	"Trigger":        StepTrigger,
	"Source":         StepTrigger,
	"Google Drive":   StepTrigger,
	"ChatNotify":     StepChatNotify,
	"Slack":          StepChatNotify,
	"DocumentCreate": StepDocumentCreate,
	"Notion":         StepDocumentCreate,
	"ChatWebhook":    StepChatWebhook,
	"Discord":        StepChatWebhook,
	"Delay":          StepDelay,
	"Wait":           StepDelay,
}

// StepKinds lists every runnable kind in declaration order.
func StepKinds() []StepKind {
	return []StepKind{StepTrigger, StepChatNotify, StepDocumentCreate, StepChatWebhook, StepDelay}
}

func (k StepKind) String() string {
	switch k {
	case StepTrigger:
		return "Trigger"
	case StepChatNotify:
		return "ChatNotify"
	case StepDocumentCreate:
		return "DocumentCreate"
	case StepChatWebhook:
		return "ChatWebhook"
	case StepDelay:
		return "Delay"
	default:
		return "Unknown"
	}
}

// ParseStepKind resolves a stored step name. Matching is exact.
func ParseStepKind(name string) StepKind {
	kind, ok := stepAliases[name]
	if !ok {
		return StepUnknown
	}

	return kind
}

// Step is one resolved position of a flow path.
type Step struct {
	Index int
	Name  string
	Kind  StepKind
}

func (s Step) String() string {
	return fmt.Sprintf("%d:%s", s.Index, s.Name)
}

// ParseSteps resolves a stored flow path into steps once, before execution.
func ParseSteps(path []string) []Step {
	steps := make([]Step, len(path))
	for i, name := range path {
		steps[i] = Step{Index: i, Name: name, Kind: ParseStepKind(name)}
	}

	return steps
}

// StepOutcome is the uniform result every step handler returns.
type StepOutcome struct {
	Completed bool   `json:"completed"`
	Error     string `json:"error,omitempty"`

	// Partial is set when a multi-destination step reached some but not all
	// destinations. A partial outcome is never Completed.
	Partial bool `json:"partial,omitempty"`
}

// StepSucceeded builds a completed outcome.
func StepSucceeded() StepOutcome {
	return StepOutcome{Completed: true}
}

// StepFailed builds a failed outcome carrying a formatted detail.
func StepFailed(format string, args ...any) StepOutcome {
	return StepOutcome{Error: fmt.Sprintf(format, args...)}
}
