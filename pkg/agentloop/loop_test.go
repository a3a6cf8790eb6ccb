package agentloop

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollamabot/agentcore/pkg/backend"
	"github.com/ollamabot/agentcore/pkg/toolexec"
	"github.com/ollamabot/agentcore/pkg/toolspec"
	"github.com/ollamabot/agentcore/pkg/transcript"
)

// stubProfiles is a minimal ProfileBuilder for tests.
type stubProfiles struct{}

func (stubProfiles) OrchestratorSystemPrompt(toolNames []string, maxSteps int) string {
	return "orchestrator"
}
func (stubProfiles) ProjectContextSection(workingDirectory string) (string, bool) {
	return "", false
}

// scriptedBackend replays a fixed sequence of Responses, one per
// ChatWithTools call, then repeats its last entry.
type scriptedBackend struct {
	responses []*backend.Response
	errs      []error
	calls     int
}

func (b *scriptedBackend) ChatWithTools(ctx context.Context, model string, messages []transcript.Message, tools []toolspec.Definition) (*backend.Response, error) {
	i := b.calls
	if i >= len(b.responses) {
		i = len(b.responses) - 1
	}
	b.calls++
	var err error
	if i < len(b.errs) {
		err = b.errs[i]
	}
	return b.responses[i], err
}

func (b *scriptedBackend) ChatStream(ctx context.Context, model string, messages []transcript.Message, images [][]byte) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {}
}

func (b *scriptedBackend) Generate(ctx context.Context, prompt, model string, useCache bool, taskType string) (string, error) {
	return "", nil
}

func (b *scriptedBackend) Warm(ctx context.Context, model string) error { return nil }

func newTestLoop(t *testing.T, responses []*backend.Response) (*Loop, *recordingObserver) {
	t.Helper()
	cat, err := toolspec.NewBuiltinCatalog()
	require.NoError(t, err)
	ex, err := toolexec.New(cat, toolexec.Config{WorkingDirectory: t.TempDir(), CacheCapacity: 16}, nil)
	require.NoError(t, err)

	obs := &recordingObserver{}
	loop := New(&scriptedBackend{responses: responses}, ex, stubProfiles{}, Config{
		MaxSteps:      5,
		YieldInterval: time.Millisecond,
	}, obs)
	return loop, obs
}

type recordingObserver struct {
	steps []AgentStep
}

func (o *recordingObserver) OnStep(s AgentStep) { o.steps = append(o.steps, s) }

func TestLoopTerminatesOnCompleteTool(t *testing.T) {
	loop, obs := newTestLoop(t, []*backend.Response{
		{ToolCalls: []toolspec.ToolCall{{ID: "1", Name: "complete", Args: toolspec.Args{"summary": toolspec.StringValue("done here")}}}},
	})

	result, err := loop.Start(context.Background(), "do the thing", "")
	require.NoError(t, err)
	assert.Equal(t, ReasonComplete, result.Reason)
	assert.Equal(t, "done here", result.Summary)
	assert.Equal(t, StateTerminated, loop.State())

	var sawComplete bool
	for _, s := range obs.steps {
		if _, ok := s.(CompleteStep); ok {
			sawComplete = true
		}
	}
	assert.True(t, sawComplete)
}

func TestLoopTerminatesAtStepCap(t *testing.T) {
	// The model never calls complete and never returns content: always
	// an empty response, which should still terminate within MaxSteps
	// (spec P7, S6).
	loop, obs := newTestLoop(t, []*backend.Response{{}})
	loop.cfg.MaxSteps = 3

	result, err := loop.Start(context.Background(), "do the thing", "")
	require.NoError(t, err)
	assert.Equal(t, ReasonStepCap, result.Reason)

	var errorSteps int
	var sawLimitSystemStep bool
	for _, s := range obs.steps {
		switch step := s.(type) {
		case ErrorStep:
			errorSteps++
		case SystemStep:
			if step.Msg == "Reached maximum step limit (3)" {
				sawLimitSystemStep = true
			}
		}
	}
	assert.Equal(t, 3, errorSteps)
	assert.True(t, sawLimitSystemStep)
}

func TestLoopStopIsIdempotentAndCancels(t *testing.T) {
	loop, _ := newTestLoop(t, []*backend.Response{
		{Content: "thinking out loud"},
	})
	// Stop the running loop from its first Thinking step; Start itself
	// sets is_running, so the stop has to arrive after the loop begins.
	loop.observer = ObserverFunc(func(s AgentStep) {
		if _, ok := s.(ThinkingStep); ok {
			loop.Stop()
			loop.Stop() // idempotent
		}
	})

	result, err := loop.Start(context.Background(), "do the thing", "")
	require.NoError(t, err)
	assert.Equal(t, ReasonCancelled, result.Reason)
}

func TestLoopEmitsThinkingStepForTextContent(t *testing.T) {
	loop, obs := newTestLoop(t, []*backend.Response{
		{Content: "some plan"},
		{ToolCalls: []toolspec.ToolCall{{ID: "1", Name: "complete", Args: toolspec.Args{"summary": toolspec.StringValue("ok")}}}},
	})

	_, err := loop.Start(context.Background(), "task", "")
	require.NoError(t, err)

	var sawThinking bool
	for _, s := range obs.steps {
		if ts, ok := s.(ThinkingStep); ok {
			sawThinking = true
			assert.Equal(t, "some plan", ts.Text)
		}
	}
	assert.True(t, sawThinking)
}

func TestLoopAskUserSuspendsAndResumes(t *testing.T) {
	loop, obs := newTestLoop(t, []*backend.Response{
		{ToolCalls: []toolspec.ToolCall{{ID: "1", Name: "ask_user", Args: toolspec.Args{"question": toolspec.StringValue("which file?")}}}},
		{ToolCalls: []toolspec.ToolCall{{ID: "2", Name: "complete", Args: toolspec.Args{"summary": toolspec.StringValue("used main.go")}}}},
	})

	done := make(chan struct{})
	var result CompleteStep
	var runErr error
	go func() {
		result, runErr = loop.Start(context.Background(), "task", "")
		close(done)
	}()

	require.Eventually(t, func() bool {
		return loop.State() == StateWaitingForUser
	}, time.Second, time.Millisecond)

	loop.ProvideUserInput("main.go")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not resume after user input")
	}

	require.NoError(t, runErr)
	assert.Equal(t, ReasonComplete, result.Reason)

	var sawQuestion bool
	for _, s := range obs.steps {
		if us, ok := s.(UserInputStep); ok {
			sawQuestion = true
			assert.Equal(t, "which file?", us.Question)
		}
	}
	assert.True(t, sawQuestion)
}
