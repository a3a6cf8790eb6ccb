package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/ollamabot/agentcore/pkg/apperrors"
	"github.com/ollamabot/agentcore/pkg/ollama"
	"github.com/ollamabot/agentcore/pkg/toolspec"
	"github.com/ollamabot/agentcore/pkg/transcript"
)

// OllamaConfig configures an OllamaBackend.
type OllamaConfig struct {
	BaseURL string
	Timeout time.Duration

	// KeepAlive is forwarded on every request to control model residency
	// in the runtime (e.g. "5m").
	KeepAlive string
}

// OllamaBackend is the reference ModelBackend transport: HTTP to a local
// Ollama-shaped endpoint (spec §6.1), grounded on the teacher's
// pkg/ollama.Client for retry/backoff (via pkg/httpclient).
type OllamaBackend struct {
	client    *ollama.Client
	keepAlive string
}

// NewOllamaBackend constructs an OllamaBackend from configuration.
func NewOllamaBackend(cfg OllamaConfig) *OllamaBackend {
	var client *ollama.Client
	if cfg.Timeout > 0 {
		client = ollama.NewClientWithTimeout(cfg.BaseURL, cfg.Timeout)
	} else {
		client = ollama.NewClient(cfg.BaseURL)
	}
	keepAlive := cfg.KeepAlive
	if keepAlive == "" {
		keepAlive = "5m"
	}
	return &OllamaBackend{client: client, keepAlive: keepAlive}
}

var _ ModelBackend = (*OllamaBackend)(nil)

// wireMessage is the per-message shape of spec §6.1's chat request.
type wireMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content,omitempty"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
	Images    []string       `json:"images,omitempty"`
}

// wireToolCall is the "tool call (wire)" shape of spec §6.1: arguments
// may arrive as a JSON-encoded string or as an already-decoded object.
type wireToolCall struct {
	ID       string `json:"id,omitempty"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type wireChatRequest struct {
	Model     string               `json:"model"`
	Messages  []wireMessage        `json:"messages"`
	Tools     []toolspec.Definition `json:"tools,omitempty"`
	Stream    bool                 `json:"stream"`
	KeepAlive string               `json:"keep_alive,omitempty"`
}

type wireChatResponseChunk struct {
	Message struct {
		Role      string         `json:"role"`
		Content   string         `json:"content,omitempty"`
		ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
	} `json:"message"`
	Done bool `json:"done"`
}

type wireGenerateRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	Stream    bool   `json:"stream"`
	KeepAlive string `json:"keep_alive,omitempty"`
}

type wireGenerateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func toWireMessages(messages []transcript.Message, images [][]byte) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for i, m := range messages {
		var wm wireMessage
		switch v := m.(type) {
		case transcript.System:
			wm = wireMessage{Role: "system", Content: v.Content}
		case transcript.User:
			wm = wireMessage{Role: "user", Content: v.Content}
		case transcript.Assistant:
			wm = wireMessage{Role: "assistant", Content: v.Content}
			for _, tc := range v.ToolCalls {
				raw, _ := json.Marshal(tc.Args.RawMap())
				wtc := wireToolCall{ID: tc.ID}
				wtc.Function.Name = tc.Name
				wtc.Function.Arguments = raw
				wm.ToolCalls = append(wm.ToolCalls, wtc)
			}
		case transcript.Tool:
			wm = wireMessage{Role: "tool", Content: v.Content}
		}
		// Attach any caller-supplied images to the final user message only.
		if i == len(messages)-1 {
			for _, img := range images {
				wm.Images = append(wm.Images, encodeImage(img))
			}
		}
		out = append(out, wm)
	}
	return out
}

func encodeImage(b []byte) string {
	return string(b) // images travel base64-encoded by the caller; passthrough here.
}

// parseWireToolCalls coerces each wire tool call's arguments field,
// which per spec §6.1 "may be a JSON-encoded string", into a decoded
// object either way.
func parseWireToolCalls(wtcs []wireToolCall) ([]toolspec.ToolCall, error) {
	calls := make([]toolspec.ToolCall, 0, len(wtcs))
	for i, wtc := range wtcs {
		var decoded map[string]any
		raw := wtc.Function.Arguments
		if len(raw) > 0 && raw[0] == '"' {
			var asString string
			if err := json.Unmarshal(raw, &asString); err != nil {
				return nil, apperrors.Wrap(apperrors.KindBackendDecode, "failed to decode string-encoded tool arguments", err)
			}
			if err := json.Unmarshal([]byte(asString), &decoded); err != nil {
				return nil, apperrors.Wrap(apperrors.KindBackendDecode, "failed to decode nested tool arguments JSON", err)
			}
		} else if len(raw) > 0 {
			if err := json.Unmarshal(raw, &decoded); err != nil {
				return nil, apperrors.Wrap(apperrors.KindBackendDecode, "failed to decode tool arguments object", err)
			}
		}
		id := wtc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		calls = append(calls, toolspec.ToolCall{
			ID:   id,
			Name: wtc.Function.Name,
			Args: toolspec.ArgsFromMap(decoded),
		})
	}
	return calls, nil
}

// ChatWithTools implements ModelBackend.
func (b *OllamaBackend) ChatWithTools(ctx context.Context, model string, messages []transcript.Message, tools []toolspec.Definition) (*Response, error) {
	req := wireChatRequest{
		Model:     model,
		Messages:  toWireMessages(messages, nil),
		Tools:     tools,
		Stream:    false,
		KeepAlive: b.keepAlive,
	}

	resp, err := b.client.MakeRequest(ctx, "/api/chat", req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindBackendTransport, "chat request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, apperrors.New(apperrors.KindModelUnavailable, fmt.Sprintf("model runtime returned HTTP %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, apperrors.New(apperrors.KindBackendTransport, fmt.Sprintf("model runtime returned HTTP %d", resp.StatusCode))
	}

	var chunk wireChatResponseChunk
	if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
		return nil, apperrors.Wrap(apperrors.KindBackendDecode, "failed to decode chat response", err)
	}

	calls, err := parseWireToolCalls(chunk.Message.ToolCalls)
	if err != nil {
		return nil, err
	}

	return &Response{Content: chunk.Message.Content, ToolCalls: calls}, nil
}

// ChatStream implements ModelBackend. Ollama streams newline-delimited
// JSON chunks; each iteration yields one chunk's text delta.
func (b *OllamaBackend) ChatStream(ctx context.Context, model string, messages []transcript.Message, images [][]byte) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req := wireChatRequest{
			Model:     model,
			Messages:  toWireMessages(messages, images),
			Stream:    true,
			KeepAlive: b.keepAlive,
		}

		resp, err := b.client.MakeStreamingRequest(ctx, "/api/chat", req)
		if err != nil {
			yield("", apperrors.Wrap(apperrors.KindBackendTransport, "chat stream request failed", err))
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var chunk wireChatResponseChunk
			if err := json.Unmarshal(line, &chunk); err != nil {
				if !yield("", apperrors.Wrap(apperrors.KindBackendDecode, "failed to decode stream chunk", err)) {
					return
				}
				continue
			}
			if chunk.Message.Content != "" {
				if !yield(chunk.Message.Content, nil) {
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil && err != io.EOF {
			yield("", apperrors.Wrap(apperrors.KindBackendTransport, "stream read failed", err))
		}
	}
}

// Generate implements ModelBackend's non-streaming convenience call.
// useCache and taskType are accepted for interface parity with spec
// §4.1 and are not used by this transport: it does not cache
// (ToolExecutor owns caching per §4.3), and neither value is sent to
// the runtime.
func (b *OllamaBackend) Generate(ctx context.Context, prompt, model string, useCache bool, taskType string) (string, error) {
	req := wireGenerateRequest{Model: model, Prompt: prompt, Stream: false, KeepAlive: b.keepAlive}

	resp, err := b.client.MakeRequest(ctx, "/api/generate", req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindBackendTransport, "generate request failed", err)
	}
	defer resp.Body.Close()

	var chunk wireGenerateChunk
	if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
		return "", apperrors.Wrap(apperrors.KindBackendDecode, "failed to decode generate response", err)
	}
	return chunk.Response, nil
}

// Warm implements ModelBackend by issuing a zero-content generate call,
// which Ollama uses as the idiomatic way to load a model into memory.
func (b *OllamaBackend) Warm(ctx context.Context, model string) error {
	req := wireGenerateRequest{Model: model, Prompt: "", Stream: false, KeepAlive: b.keepAlive}
	resp, err := b.client.MakeRequest(ctx, "/api/generate", req)
	if err != nil {
		return apperrors.Wrap(apperrors.KindModelUnavailable, fmt.Sprintf("failed to warm model %q", model), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apperrors.New(apperrors.KindModelUnavailable, fmt.Sprintf("model %q unavailable (HTTP %d)", model, resp.StatusCode))
	}
	return nil
}
