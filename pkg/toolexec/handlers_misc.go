package toolexec

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ollamabot/agentcore/pkg/apperrors"
	"github.com/ollamabot/agentcore/pkg/toolspec"
)

func handleThink(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	thought, err := call.Args.GetString("thought")
	if err != nil {
		return "", err
	}
	return thought, nil
}

// handleComplete's output becomes the terminal step's content; AgentLoop
// treats this tool specially as the loop's exit signal (spec §4.4).
func handleComplete(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	summary, err := call.Args.GetString("summary")
	if err != nil {
		return "", err
	}
	return summary, nil
}

// handleAskUser always fails with a validation error when no interactive
// front-end is wired; AgentLoop intercepts ask_user before dispatch in the normal
// path (spec §4.4 WaitingForUser transition), so reaching this handler
// means the tool was invoked outside that loop (e.g. direct testing).
func handleAskUser(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	question, err := call.Args.GetString("question")
	if err != nil {
		return "", err
	}
	return "", apperrors.New(apperrors.KindValidationError, fmt.Sprintf("ask_user requires AgentLoop's WaitingForUser transition: %q", question))
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

func handleFetchURL(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	url, err := call.Args.GetString("url")
	if err != nil {
		return "", err
	}
	req, rerr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if rerr != nil {
		return "", apperrors.Wrap(apperrors.KindArgInvalid, "invalid URL", rerr)
	}
	resp, derr := httpClient.Do(req)
	if derr != nil {
		return "", apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to fetch %q", url), derr)
	}
	defer resp.Body.Close()
	body, rerr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if rerr != nil {
		return "", apperrors.Wrap(apperrors.KindIO, "failed to read response body", rerr)
	}
	return string(body), nil
}

// handleWebSearch has no search provider wired in the reference
// executor (spec treats it as an external collaborator); it reports a
// typed model-unavailable error rather than silently fabricating results.
func handleWebSearch(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	return "", apperrors.New(apperrors.KindModelUnavailable, "no web search provider configured")
}

func handleExternalUnavailable(name string) Handler {
	return func(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
		return "", apperrors.New(apperrors.KindModelUnavailable, fmt.Sprintf("%s has no external collaborator configured", name))
	}
}
