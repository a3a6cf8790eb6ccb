package toolexec

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ollamabot/agentcore/pkg/apperrors"
	"github.com/ollamabot/agentcore/pkg/toolspec"
)

func handleGitStatus(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	return runGit(ctx, ex, "status", "--porcelain=v1", "--branch")
}

func handleGitDiff(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	return runGit(ctx, ex, "diff")
}

// handleGitCommit decides success purely from the process exit code
// (the Open Question decision: "branch on cmd.ProcessState.ExitCode();
// surface stderr verbatim on nonzero exit; no keyword matching").
func handleGitCommit(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	message, err := args.GetString("message")
	if err != nil {
		return "", err
	}

	if _, addErr := runGit(ctx, ex, "add", "-A"); addErr != nil {
		return "", addErr
	}

	cmd := exec.CommandContext(ctx, "git", "commit", "-m", message)
	cmd.Dir = ex.Config.WorkingDirectory
	output, runErr := cmd.CombinedOutput()

	if cmd.ProcessState != nil && cmd.ProcessState.ExitCode() != 0 {
		return "", apperrors.New(apperrors.KindIO, fmt.Sprintf("git commit failed (exit %d): %s", cmd.ProcessState.ExitCode(), strings.TrimSpace(string(output))))
	}
	if runErr != nil {
		return "", apperrors.Wrap(apperrors.KindIO, "failed to run git commit", runErr)
	}
	return strings.TrimSpace(string(output)), nil
}

func runGit(ctx context.Context, ex *Executor, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = ex.Config.WorkingDirectory
	output, err := cmd.CombinedOutput()
	if cmd.ProcessState != nil && cmd.ProcessState.ExitCode() != 0 {
		return "", apperrors.New(apperrors.KindIO, fmt.Sprintf("git %s failed (exit %d): %s", strings.Join(args, " "), cmd.ProcessState.ExitCode(), strings.TrimSpace(string(output))))
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to run git %s", strings.Join(args, " ")), err)
	}
	return string(output), nil
}
