// Package backend implements the abstract ModelBackend capability of
// spec §4.1: a chat-with-tools / streaming-generate / warm surface over
// a local LLM runtime. The reference transport (package-level
// OllamaBackend) speaks the Ollama-shaped wire protocol of spec §6.1;
// callers elsewhere in the module depend only on the ModelBackend
// interface, never on the concrete transport.
package backend

import (
	"context"
	"iter"

	"github.com/ollamabot/agentcore/pkg/toolspec"
	"github.com/ollamabot/agentcore/pkg/transcript"
)

// Response is the result of a chat_with_tools call (spec §4.1): either a
// text Content or a non-empty list of parsed ToolCalls.
type Response struct {
	Content   string
	ToolCalls []toolspec.ToolCall
}

// HasToolCalls reports whether the model asked for one or more tool calls.
func (r *Response) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// ModelBackend is the capability AgentLoop, CycleManager, and the
// delegation tools drive the LLM runtime through.
type ModelBackend interface {
	// ChatWithTools sends a conversation plus the current tool catalog
	// and returns either text content or parsed tool calls.
	ChatWithTools(ctx context.Context, model string, messages []transcript.Message, tools []toolspec.Definition) (*Response, error)

	// ChatStream returns a finite, single-pass, non-restartable lazy
	// sequence of text chunks (spec §9 "Coroutines and streams").
	ChatStream(ctx context.Context, model string, messages []transcript.Message, images [][]byte) iter.Seq2[string, error]

	// Generate is a convenience non-streaming text completion.
	Generate(ctx context.Context, prompt, model string, useCache bool, taskType string) (string, error)

	// Warm ensures the given model is resident; may suspend for tens of
	// seconds on cold load.
	Warm(ctx context.Context, model string) error
}
