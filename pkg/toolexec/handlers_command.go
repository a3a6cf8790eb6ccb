package toolexec

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/ollamabot/agentcore/pkg/apperrors"
	"github.com/ollamabot/agentcore/pkg/toolspec"
)

// defaultCommandTimeout bounds every run_command call. Config has no
// timeout field, so this bound is not configurable.
const defaultCommandTimeout = 10 * time.Minute

// handleRunCommand executes a shell command via the configured shell
// (defaultShell() on POSIX/Windows, per spec §9 shell portability),
// grounded on the teacher's CommandTool.executeCommand pattern of
// exec.CommandContext + CombinedOutput under a context timeout.
func handleRunCommand(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	command, err := args.GetString("command")
	if err != nil {
		return "", err
	}

	shell := ex.Config.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	runCtx, cancel := context.WithTimeout(ctx, defaultCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, shell, "-c", command)
	cmd.Dir = ex.Config.WorkingDirectory

	output, runErr := cmd.CombinedOutput()
	if runCtx.Err() != nil {
		return "", apperrors.New(apperrors.KindToolTimeout, fmt.Sprintf("command timed out: %s", command))
	}
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return string(output), apperrors.New(apperrors.KindIO, fmt.Sprintf("command exited %d: %s", exitErr.ExitCode(), string(output)))
		}
		return "", apperrors.Wrap(apperrors.KindIO, "failed to run command", runErr)
	}
	return string(output), nil
}
