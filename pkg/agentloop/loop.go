// Package agentloop implements the AgentLoop of spec §4.4: own the
// conversation transcript, request model responses, execute tool calls
// in parallel/sequential groups, and stop on `complete`, cancellation,
// or step cap. Grounded on the teacher's adk-go-aligned
// llmagent.Flow.Run/runOneStep outer-loop/inner-step shape
// (kadirpekel-hector), generalised away from its a2a-go event/session
// types toward this module's transcript.Transcript, backend.ModelBackend,
// and toolexec.Executor.
package agentloop

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ollamabot/agentcore/pkg/apperrors"
	"github.com/ollamabot/agentcore/pkg/backend"
	"github.com/ollamabot/agentcore/pkg/toolexec"
	"github.com/ollamabot/agentcore/pkg/toolspec"
	"github.com/ollamabot/agentcore/pkg/transcript"
)

// yieldInterval is the cooperative suspension point between iterations
// (spec §5 "the explicit yield for 50 ms between loop iterations").
const yieldInterval = 50 * time.Millisecond

// State is one of the AgentLoop state machine's named states (spec §4.4).
type State string

const (
	StateIdle           State = "idle"
	StateRunning        State = "running"
	StateExecuting      State = "executing"
	StateErrorRecover   State = "error_recover"
	StateWaitingForUser State = "waiting_for_user"
	StateTerminated     State = "terminated"
)

// ProfileBuilder is the narrow seam onto ContextBuilder (spec §4.8) that
// AgentLoop depends on: the orchestrator system prompt and an optional
// project-context section, assembled without AgentLoop importing
// ContextBuilder's internals directly.
type ProfileBuilder interface {
	OrchestratorSystemPrompt(toolNames []string, maxSteps int) string
	ProjectContextSection(workingDirectory string) (string, bool)
}

// Config bounds one Loop's behaviour.
type Config struct {
	Model         string
	MaxSteps      int
	CallTimeout   time.Duration // per chat_with_tools call; default 10 minutes (spec §5)
	YieldInterval time.Duration // overridable for tests; defaults to yieldInterval
}

func (c Config) withDefaults() Config {
	if c.MaxSteps <= 0 {
		c.MaxSteps = 25
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 10 * time.Minute
	}
	if c.YieldInterval <= 0 {
		c.YieldInterval = yieldInterval
	}
	return c
}

// Loop is one bound AgentLoop instance: one logical task per active
// session (spec §5 "Scheduling model").
type Loop struct {
	backend  backend.ModelBackend
	executor *toolexec.Executor
	profiles ProfileBuilder
	cfg      Config
	observer Observer

	transcript transcript.Transcript
	state      State
	stepCount  int

	isRunning atomic.Bool

	pendingQuestion string
	userResponse    chan string
}

// New constructs an idle Loop. observer may be nil, in which case steps
// are discarded.
func New(b backend.ModelBackend, ex *toolexec.Executor, profiles ProfileBuilder, cfg Config, observer Observer) *Loop {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Loop{
		backend:  b,
		executor: ex,
		profiles: profiles,
		cfg:      cfg.withDefaults(),
		observer: observer,
		state:    StateIdle,
	}
}

// State reports the loop's current state machine position.
func (l *Loop) State() State { return l.state }

// Transcript returns the loop's accumulated transcript.
func (l *Loop) Transcript() *transcript.Transcript { return &l.transcript }

// Stop sets is_running false; the loop halts at its next suspension
// point. Idempotent (spec §5 "Cancellation is idempotent").
func (l *Loop) Stop() {
	l.isRunning.Store(false)
}

// ProvideUserInput resumes a loop suspended in WaitingForUser, appending
// the response as a User message. No-op if the loop is not waiting.
func (l *Loop) ProvideUserInput(response string) {
	if l.state != StateWaitingForUser || l.userResponse == nil {
		return
	}
	l.userResponse <- response
}

// Start implements the start(task, working_directory?) contract of
// spec §4.4: validates not already running, builds the initial messages
// (reading the working directory's project-rules file for the optional
// project-context message), and runs the loop to termination (or until
// the caller's ctx is cancelled). The working directory is not recorded
// on the Loop and no snapshot of its contents is taken.
func (l *Loop) Start(ctx context.Context, task string, workingDirectory string) (CompleteStep, error) {
	if l.state != StateIdle {
		return CompleteStep{}, apperrors.New(apperrors.KindValidationError, "agent loop is already running")
	}

	l.isRunning.Store(true)
	l.state = StateRunning

	toolNames := make([]string, 0, len(l.executor.Catalog.Descriptors()))
	for _, d := range l.executor.Catalog.Descriptors() {
		toolNames = append(toolNames, d.Name)
	}

	systemPrompt := l.profiles.OrchestratorSystemPrompt(toolNames, l.cfg.MaxSteps)
	l.transcript.Append(transcript.System{Content: systemPrompt})

	if section, ok := l.profiles.ProjectContextSection(workingDirectory); ok && section != "" {
		l.transcript.Append(transcript.System{Content: section})
	}

	l.transcript.Append(transcript.User{Content: task})
	l.observer.OnStep(SystemStep{Msg: "agent loop started"})

	return l.run(ctx)
}

// run is the outer loop: bounded by MaxSteps, polling is_running and
// ctx.Err() at every suspension point, grounded on the teacher's
// Flow.Run outer-loop shape.
func (l *Loop) run(ctx context.Context) (CompleteStep, error) {
	for {
		if !l.isRunning.Load() {
			return l.terminate(ReasonCancelled, "cancelled")
		}
		if ctx.Err() != nil {
			return l.terminate(ReasonCancelled, "context cancelled")
		}
		if l.stepCount >= l.cfg.MaxSteps {
			return l.terminateStepCap()
		}

		l.stepCount++

		done, result, err := l.runOneStep(ctx)
		if err != nil {
			return CompleteStep{}, err
		}
		if done {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return l.terminate(ReasonCancelled, "context cancelled")
		case <-time.After(l.cfg.YieldInterval):
		}
	}
}

// runOneStep executes one iteration: call chat_with_tools, branch on
// tool_calls vs content vs empty, per spec §4.4. Returns done=true once
// the loop has reached a terminal state.
func (l *Loop) runOneStep(ctx context.Context) (bool, CompleteStep, error) {
	callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()

	resp, err := l.backend.ChatWithTools(callCtx, l.cfg.Model, l.transcript.Messages(), l.executor.Catalog.Definitions())
	if err != nil {
		return l.recoverFromError(err)
	}

	switch {
	case resp.HasToolCalls():
		return l.executeToolCalls(ctx, resp.ToolCalls)
	case resp.Content != "":
		l.transcript.Append(transcript.Assistant{Content: resp.Content})
		l.observer.OnStep(ThinkingStep{Text: resp.Content})
		return false, CompleteStep{}, nil
	default:
		return l.recoverFromEmptyResponse()
	}
}

// executeToolCalls runs the Executing state: dispatch every call through
// ToolExecutor.ExecuteMany, append the Assistant tool_calls message
// followed by one Tool message per result in the same order (I1), and
// special-case `complete` (terminal) and `ask_user` (suspend).
func (l *Loop) executeToolCalls(ctx context.Context, calls []toolspec.ToolCall) (bool, CompleteStep, error) {
	l.state = StateExecuting

	for _, call := range calls {
		if call.Name == "ask_user" {
			return l.waitForUser(ctx, call, calls)
		}
	}

	results := l.executor.ExecuteMany(ctx, calls)

	l.transcript.Append(transcript.Assistant{ToolCalls: calls})
	for i, res := range results {
		l.transcript.Append(transcript.Tool{ToolCallID: res.ToolCallID, Content: res.Output})
		l.observer.OnStep(ToolStep{Name: calls[i].Name, Input: canonicalInput(calls[i]), Output: res.Output})

		if calls[i].Name == "complete" && res.Success {
			step := CompleteStep{Summary: res.Output, Reason: ReasonComplete}
			l.observer.OnStep(step)
			l.state = StateTerminated
			return true, step, nil
		}
	}

	l.state = StateRunning
	return false, CompleteStep{}, nil
}

// waitForUser implements the Executing → WaitingForUser → Running
// transition for `ask_user`: emit UserInputStep, block on the response
// channel (or ctx/cancellation), then resume with the remaining calls'
// Assistant/Tool bookkeeping intact. Grounded on the teacher's HITL
// approval/denial decisions map, simplified to a single blocking channel
// since this loop runs one call at a time rather than the teacher's
// multi-agent transfer graph.
func (l *Loop) waitForUser(ctx context.Context, askCall toolspec.ToolCall, allCalls []toolspec.ToolCall) (bool, CompleteStep, error) {
	question, _ := askCall.Args.GetString("question")
	l.state = StateWaitingForUser
	l.pendingQuestion = question
	l.userResponse = make(chan string, 1)
	l.observer.OnStep(UserInputStep{Question: question})

	var response string
	select {
	case response = <-l.userResponse:
	case <-ctx.Done():
		step, _ := l.terminate(ReasonCancelled, "cancelled while waiting for user input")
		return true, step, nil
	}

	l.transcript.Append(transcript.Assistant{ToolCalls: allCalls})
	askResult := toolspec.ToolResult{ToolCallID: askCall.ID, Success: true, Output: response}
	l.transcript.Append(transcript.Tool{ToolCallID: askResult.ToolCallID, Content: askResult.Output})
	for _, call := range allCalls {
		if call.ID == askCall.ID {
			continue
		}
		// Any tool calls bundled alongside ask_user in the same
		// Assistant message are reported as skipped (I1 still requires
		// one Tool message per tool_call id), since the model issued
		// them without the answer it asked for.
		l.transcript.Append(transcript.Tool{ToolCallID: call.ID, Content: "skipped: awaiting user input from a sibling tool call"})
	}
	l.transcript.Append(transcript.User{Content: response})

	l.state = StateRunning
	return false, CompleteStep{}, nil
}

// recoverFromError implements spec §4.4's error-recovery branch and §7's
// BackendTransport/BackendDecode policy: emit an Error step, feed the
// failure back as a User message instructing the model to try a
// different approach or call complete, and keep the loop running (the
// step budget already decremented in run()).
func (l *Loop) recoverFromError(err error) (bool, CompleteStep, error) {
	l.state = StateErrorRecover
	msg := err.Error()
	l.observer.OnStep(ErrorStep{Msg: msg})

	if apperrors.KindOf(err) == apperrors.KindCancelled {
		return true, CompleteStep{Summary: "cancelled", Reason: ReasonCancelled}, nil
	}

	l.transcript.Append(transcript.User{
		Content: "The previous request failed: " + msg + ". Try a different approach, or call `complete` if you cannot proceed.",
	})
	l.state = StateRunning
	return false, CompleteStep{}, nil
}

// recoverFromEmptyResponse handles the model returning neither content
// nor tool_calls: an anomaly that still consumes a step (I2).
func (l *Loop) recoverFromEmptyResponse() (bool, CompleteStep, error) {
	l.state = StateErrorRecover
	l.observer.OnStep(ErrorStep{Msg: "model returned an empty response"})
	l.transcript.Append(transcript.User{
		Content: "Your last response had no content and no tool calls. Try again, or call `complete` if you cannot proceed.",
	})
	l.state = StateRunning
	return false, CompleteStep{}, nil
}

func (l *Loop) terminate(reason TerminationReason, summary string) (CompleteStep, error) {
	l.state = StateTerminated
	step := CompleteStep{Summary: summary, Reason: reason}
	l.observer.OnStep(step)
	return step, nil
}

// terminateStepCap implements spec S6: the step-cap terminal reports
// itself as a System step naming the configured limit ("Reached maximum
// step limit (N)"), not a generic Complete/Cancelled step.
func (l *Loop) terminateStepCap() (CompleteStep, error) {
	l.state = StateTerminated
	msg := fmt.Sprintf("Reached maximum step limit (%d)", l.cfg.MaxSteps)
	l.observer.OnStep(SystemStep{Msg: msg})
	return CompleteStep{Summary: msg, Reason: ReasonStepCap}, nil
}

// canonicalInput renders a tool call's arguments for observer display
// purposes only; never used as a cache or dedup key.
func canonicalInput(call toolspec.ToolCall) string {
	raw := call.Args.RawMap()
	if len(raw) == 0 {
		return ""
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(b)
}
