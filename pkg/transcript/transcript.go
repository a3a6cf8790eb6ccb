// Package transcript implements the TranscriptMessage tagged union of
// spec §3: an append-only, never-mutated-in-place ordered sequence of
// System/User/Assistant/Tool messages.
package transcript

import "github.com/ollamabot/agentcore/pkg/toolspec"

// Message is the marker interface implemented by the four concrete
// transcript message kinds.
type Message interface {
	isMessage()
}

// System is a System{content} transcript message.
type System struct {
	Content string
}

// User is a User{content} transcript message.
type User struct {
	Content string
}

// Assistant is an Assistant{content?, tool_calls} transcript message.
type Assistant struct {
	Content   string
	ToolCalls []toolspec.ToolCall
}

// Tool is a Tool{tool_call_id, content} transcript message.
type Tool struct {
	ToolCallID string
	Content    string
}

func (System) isMessage()    {}
func (User) isMessage()      {}
func (Assistant) isMessage() {}
func (Tool) isMessage()      {}

// Transcript is the ordered, append-only sequence of Messages that
// AgentLoop owns for one run (spec §3 "Ordered sequence; append-only per
// loop iteration; never mutated in place").
type Transcript struct {
	messages []Message
}

// Append adds one or more messages to the end of the transcript.
func (t *Transcript) Append(msgs ...Message) {
	t.messages = append(t.messages, msgs...)
}

// Messages returns a snapshot slice of the transcript's messages. The
// returned slice must not be mutated by callers; it aliases internal
// storage for read efficiency.
func (t *Transcript) Messages() []Message {
	return t.messages
}

// Len reports the number of messages in the transcript.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// HasToolCalls reports whether the Assistant message carries one or more tool calls.
func (a Assistant) HasToolCalls() bool {
	return len(a.ToolCalls) > 0
}
