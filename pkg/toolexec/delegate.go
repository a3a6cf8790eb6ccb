package toolexec

import (
	"context"
	"fmt"

	"github.com/ollamabot/agentcore/pkg/toolspec"
)

// Delegator builds a structured sub-prompt for a specialist role and
// runs it to completion, per spec §4.3 "Delegation tools": the profile
// assembly itself belongs to ContextBuilder and the model call to
// ModelBackend; toolexec depends only on this narrow seam so it need
// not import either package directly.
type Delegator interface {
	Delegate(ctx context.Context, role, task, taskContext string) (string, error)
}

func delegateHandler(role string) Handler {
	return func(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
		task, err := call.Args.GetString("task")
		if err != nil {
			return "", err
		}
		taskContext := call.Args.GetStringOr("context", "")

		if ex.Delegator == nil {
			return "", fmt.Errorf("delegate_to_%s: no delegator configured", role)
		}

		result, derr := ex.Delegator.Delegate(ctx, role, task, taskContext)
		if derr != nil {
			return "", derr
		}

		ex.delegationMu.Lock()
		ex.delegationLog[fmt.Sprintf("%s_%s", role, call.ID)] = toolspec.ToolResult{
			ToolCallID: call.ID,
			Success:    true,
			Output:     result,
		}
		ex.delegationMu.Unlock()

		return result, nil
	}
}

// DelegationLog returns a snapshot of the per-run delegation audit map
// keyed "<role>_<call_id>" (spec §4.3).
func (ex *Executor) DelegationLog() map[string]toolspec.ToolResult {
	ex.delegationMu.Lock()
	defer ex.delegationMu.Unlock()
	out := make(map[string]toolspec.ToolResult, len(ex.delegationLog))
	for k, v := range ex.delegationLog {
		out[k] = v
	}
	return out
}
