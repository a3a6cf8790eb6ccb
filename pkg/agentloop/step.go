package agentloop

// AgentStep is the tagged-union observable event emitted by the loop
// (spec §3 "AgentStep"): System | Thinking | Tool | UserInput | Error |
// Complete. Append-only; surfaced to whatever UI collaborator is
// listening through an Observer.
type AgentStep interface {
	isAgentStep()
}

// SystemStep announces an informational lifecycle message (loop start,
// cancellation, etc.), distinct from a transcript System message.
type SystemStep struct {
	Msg string
}

// ThinkingStep carries the model's text content for one iteration.
type ThinkingStep struct {
	Text string
}

// ToolStep reports one tool call's input and output.
type ToolStep struct {
	Name   string
	Input  string
	Output string
}

// UserInputStep is emitted when the loop suspends for `ask_user`.
type UserInputStep struct {
	Question string
}

// ErrorStep reports a transport/model/validation failure recovered from
// without terminating the loop.
type ErrorStep struct {
	Msg string
}

// CompleteStep is the terminal step; Summary is the `complete` tool's
// argument, or a synthesized message for StepCap/Cancelled termination.
type CompleteStep struct {
	Summary string
	Reason  TerminationReason
}

func (SystemStep) isAgentStep()    {}
func (ThinkingStep) isAgentStep()  {}
func (ToolStep) isAgentStep()      {}
func (UserInputStep) isAgentStep() {}
func (ErrorStep) isAgentStep()     {}
func (CompleteStep) isAgentStep()  {}

// TerminationReason distinguishes why a loop stopped.
type TerminationReason string

const (
	ReasonComplete  TerminationReason = "complete"
	ReasonStepCap   TerminationReason = "step_cap"
	ReasonCancelled TerminationReason = "cancelled"
)

// Observer receives AgentSteps as the loop produces them (spec §9
// "Observable IDE state → explicit channels": push instead of framework
// reactivity).
type Observer interface {
	OnStep(step AgentStep)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(AgentStep)

func (f ObserverFunc) OnStep(step AgentStep) { f(step) }

// NoopObserver discards every step.
type NoopObserver struct{}

func (NoopObserver) OnStep(AgentStep) {}
